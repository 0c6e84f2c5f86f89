package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localUserID         = "user_id"
	localRole           = "role"
	localWalkerVerified = "walker_verified"
)

// JWTMiddleware validates bearer tokens and stores the caller identity in locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secretBytes, nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid || claims.UserID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}

		SetIdentity(c, *claims)
		return c.Next()
	}
}

// SetIdentity stores the caller identity read back by UserID, Role and
// WalkerVerified.
func SetIdentity(c *fiber.Ctx, claims Claims) {
	c.Locals(localUserID, claims.UserID)
	c.Locals(localRole, claims.Role)
	c.Locals(localWalkerVerified, claims.WalkerVerified)
}

// RequireRole rejects callers whose role is not listed. Admins always pass.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		if role == RoleAdmin {
			return c.Next()
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "role not permitted")
	}
}

func UserID(c *fiber.Ctx) string {
	v, _ := c.Locals(localUserID).(string)
	return v
}

func Role(c *fiber.Ctx) string {
	v, _ := c.Locals(localRole).(string)
	return v
}

func WalkerVerified(c *fiber.Ctx) bool {
	v, _ := c.Locals(localWalkerVerified).(bool)
	return v
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
