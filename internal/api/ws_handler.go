package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Ar5h1a-M/LockedIn/internal/chat"
)

// WebSocketAuth gates the feed route. Browsers cannot set an Authorization
// header on websocket connects, so the token rides a query parameter here.
func WebSocketAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
		}
		if _, err := validateToken(token); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		c.Locals("accessToken", token)
		return c.Next()
	}
}

// ChatFeedHandler subscribes the connection to the group's message feed and
// blocks until the client goes away. Pushes come from the feed's poller.
func ChatFeedHandler(feed *chat.Feed) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		groupID := conn.Params("groupId")
		token, _ := conn.Locals("accessToken").(string)

		unsubscribe := feed.Subscribe(groupID, token, conn)
		defer unsubscribe()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
