package storage

import (
	"backend-dogwalk/internal/auth"
	"backend-dogwalk/internal/shared/httperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/walks/:sessionID/photos", authMiddleware, auth.RequireRole(auth.RoleWalker), func(c *fiber.Ctx) error {
		var body struct {
			FileName string `json:"file_name"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		up, err := svc.Reserve(c.Context(), c.Params("sessionID"), auth.UserID(c), body.FileName)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(up)
	})
}
