package tracking

import (
	"backend-dogwalk/internal/auth"
	"backend-dogwalk/internal/shared/httperr"
	"backend-dogwalk/internal/walk"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, auth.RequireRole(auth.RoleAdmin), func(c *fiber.Ctx) error {
		var req CreateInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		snap, err := svc.Create(c.Context(), req)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(snap)
	})

	r.Get("/:id", authMiddleware, participant(svc, false), func(c *fiber.Ctx) error {
		snap, err := svc.Get(c.Params("id"))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(snap)
	})

	r.Post("/:id/start", authMiddleware, participant(svc, true), func(c *fiber.Ctx) error {
		res, err := svc.Start(c.Context(), c.Params("id"), auth.WalkerVerified(c))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(res)
	})

	r.Post("/:id/cancel", authMiddleware, participant(svc, false), func(c *fiber.Ctx) error {
		var req ReasonRequest
		if err := parseOptional(c, &req); err != nil {
			return err
		}
		res, err := svc.Cancel(c.Context(), c.Params("id"), req.Reason)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(res)
	})

	r.Post("/:id/complete", authMiddleware, participant(svc, false), func(c *fiber.Ctx) error {
		var req CompleteRequest
		if err := parseOptional(c, &req); err != nil {
			return err
		}
		res, err := svc.Complete(c.Context(), c.Params("id"), req)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(res)
	})

	r.Post("/:id/emergency", authMiddleware, participant(svc, false), func(c *fiber.Ctx) error {
		var req ReasonRequest
		if err := parseOptional(c, &req); err != nil {
			return err
		}
		res, err := svc.Emergency(c.Context(), c.Params("id"), req.Reason)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(res)
	})

	r.Post("/:id/locations", authMiddleware, participant(svc, true), func(c *fiber.Ctx) error {
		var req walk.SampleInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := svc.AddLocation(c.Context(), c.Params("id"), req)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Get("/:id/locations", authMiddleware, pathReader(svc), func(c *fiber.Ctx) error {
		points, err := svc.Points(c.Context(), c.Params("id"))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(points)
	})

	r.Post("/:id/photos", authMiddleware, participant(svc, true), func(c *fiber.Ctx) error {
		var req PhotoInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		photo, err := svc.AddPhoto(c.Context(), c.Params("id"), req)
		if err != nil {
			return httperr.From(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Get("/:id/photos", authMiddleware, participant(svc, false), func(c *fiber.Ctx) error {
		photos, err := svc.Photos(c.Params("id"))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(photos)
	})

	r.Get("/:id/summary", authMiddleware, participant(svc, false), func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Params("id"))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(summary)
	})

	r.Get("/:id/history", authMiddleware, participant(svc, false), func(c *fiber.Ctx) error {
		history, err := svc.History(c.Params("id"))
		if err != nil {
			return httperr.From(c, err)
		}
		return c.JSON(history)
	})

	r.Delete("/:id", authMiddleware, auth.RequireRole(auth.RoleAdmin), func(c *fiber.Ctx) error {
		if err := svc.Evict(c.Context(), c.Params("id")); err != nil {
			return httperr.From(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// participant admits the walk's walker, its owner unless walkerOnly, and admins.
func participant(svc *Service, walkerOnly bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := svc.lookup(c.Params("id"))
		if err != nil {
			return httperr.From(c, err)
		}
		return admit(c, e.session.OwnerID(), e.session.WalkerID(), walkerOnly)
	}
}

// pathReader guards the recorded path, which outlives the live walk.
func pathReader(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, walkerID, err := svc.Participants(c.Context(), c.Params("id"))
		if err != nil {
			return httperr.From(c, err)
		}
		return admit(c, ownerID, walkerID, false)
	}
}

func admit(c *fiber.Ctx, ownerID, walkerID string, walkerOnly bool) error {
	caller := auth.UserID(c)
	switch {
	case auth.Role(c) == auth.RoleAdmin:
	case caller == walkerID:
	case !walkerOnly && caller == ownerID:
	default:
		return fiber.NewError(fiber.StatusForbidden, "not a participant of this walk")
	}
	return c.Next()
}

func parseOptional(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
