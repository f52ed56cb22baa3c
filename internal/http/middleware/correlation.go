package middleware

import (
	"github.com/gofiber/fiber/v2"

	"docgate/internal/correlation"
)

// CorrelationLocalKey is the key used to store the correlation id in Fiber's
// context locals.
const CorrelationLocalKey = "correlation_id"

// Correlation ensures every request carries a correlation id.
//
// Behavior:
// - Reads X-Correlation-Id from the incoming request header.
// - If missing, generates a new token.
// - Stores the value in Fiber locals and in the request's user context, so
//   the authorizer and the upstream client log under the same id.
// - Echoes X-Correlation-Id on the response with the same value.
func Correlation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(correlation.Header)
		if id == "" {
			id = correlation.New()
		}

		c.Locals(CorrelationLocalKey, id)
		c.SetUserContext(correlation.WithContext(c.UserContext(), id))
		c.Set(correlation.Header, id)

		return c.Next()
	}
}
