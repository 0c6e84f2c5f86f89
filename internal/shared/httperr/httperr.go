// Package httperr maps classified service errors onto fiber errors.
package httperr

import (
	"errors"

	"backend-dogwalk/internal/shared/fault"

	"github.com/gofiber/fiber/v2"
)

func Status(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch fault.CategoryOf(err) {
	case fault.CategoryValidation:
		return fiber.StatusBadRequest
	case fault.CategoryAuthorization:
		return fiber.StatusForbidden
	case fault.CategorySequencing, fault.CategoryCapacity, fault.CategoryState:
		return fiber.StatusConflict
	case fault.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// From converts err for a fiber handler. The response carries the stable
// error code in X-Error-Code when the error is classified.
func From(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	if code := fault.CodeOf(err); code != "" {
		c.Set("X-Error-Code", code)
	}
	return fiber.NewError(Status(err), err.Error())
}
