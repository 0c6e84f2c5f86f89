package assignment

import (
	"backend-dogwalk/internal/auth"
	"backend-dogwalk/internal/capacity"
	"backend-dogwalk/internal/shared/httperr"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts /walkers and /bookings on r.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	walkers := r.Group("/walkers", authMiddleware)

	walkers.Post("/", auth.RequireRole(auth.RoleAdmin), func(c *fiber.Ctx) error {
		var req RegisterWalkerInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		st, err := svc.RegisterWalker(c.Context(), req)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(st)
	})

	walkers.Get("/:walkerID", func(c *fiber.Ctx) error {
		st, err := svc.Walker(c.Params("walkerID"))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(st)
	})

	walkers.Put("/:walkerID/availability", self(), func(c *fiber.Ctx) error {
		var req AvailabilityRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		st, err := svc.SetAvailability(c.Context(), c.Params("walkerID"), req.Available)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(st)
	})

	walkers.Put("/:walkerID/credentials", auth.RequireRole(auth.RoleAdmin), func(c *fiber.Ctx) error {
		var req capacity.Credentials
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		st, err := svc.UpdateCredentials(c.Context(), c.Params("walkerID"), req)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(st)
	})

	walkers.Get("/:walkerID/verifications", self(), func(c *fiber.Ctx) error {
		records, err := svc.Verifications(c.Params("walkerID"))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(records)
	})

	walkers.Post("/:walkerID/accept-check", func(c *fiber.Ctx) error {
		var details capacity.Details
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&details); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		check, err := svc.CanAccept(c.Params("walkerID"), details)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(check)
	})

	r.Post("/bookings", authMiddleware, auth.RequireRole(auth.RoleOwner), func(c *fiber.Ctx) error {
		var req BookingRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if auth.Role(c) != auth.RoleAdmin {
			req.OwnerID = auth.UserID(c)
		}
		booking, err := svc.Book(c.Context(), req)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(booking)
	})
}

// self admits the walker named in the path and admins.
func self() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth.Role(c) == auth.RoleAdmin || auth.UserID(c) == c.Params("walkerID") {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "walkers can only manage themselves")
	}
}
