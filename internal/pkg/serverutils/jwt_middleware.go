package serverutils

import (
	"strings"

	"friendlist-be/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

const sessionLocalKey = "session"

// TokenParser is satisfied by *auth.TokenIssuer.
type TokenParser interface {
	Parse(token string) (*auth.Session, error)
}

// JwtMiddleware guards a route group. The token comes from the Authorization header,
// or from the "token" query parameter for browser websocket handshakes.
func JwtMiddleware(parser TokenParser) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		session, err := parser.Parse(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(sessionLocalKey, session)
		return ctx.Next()
	}
}

func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ctx.Query("token")
}

// SessionFrom returns the session stored by JwtMiddleware, or nil on unguarded routes.
func SessionFrom(ctx *fiber.Ctx) *auth.Session {
	session, _ := ctx.Locals(sessionLocalKey).(*auth.Session)
	return session
}
