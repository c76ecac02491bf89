// middleware/user_context.go
package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware lifts the optional user identity forwarded by the
// Gateway into the request context. Table kiosks run anonymously; a signed-in
// phone session carries these headers so queue spots can be claimed.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", c.Get("X-User-ID"))
		c.Locals("user_name", c.Get("X-User-Name"))
		return c.Next()
	}
}
