package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionExists lets the route reject subscriptions to unknown walks before
// the upgrade.
type SessionExists func(sessionID string) bool

func RegisterRoutes(r fiber.Router, hub *Hub, exists SessionExists) {
	r.Get("/ws/:sessionID", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if exists != nil && !exists(c.Params("sessionID")) {
			return fiber.NewError(fiber.StatusNotFound, "walk not found")
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("sessionID"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					_ = c.Close()
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
