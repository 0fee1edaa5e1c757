package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"vaultapi/internal/model"
)

// PrincipalLocalKey is the Locals key under which Auth stores the
// authenticated model.Principal.
const PrincipalLocalKey = "principal"

type principalClaims struct {
	Username    string `json:"username"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	jwt.RegisteredClaims
}

// Auth verifies the Bearer token on every request and stores the resulting
// principal in Locals. Requests without a valid token are rejected with 401;
// authorization beyond that is the service layer's job.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims := &principalClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(PrincipalLocalKey, model.Principal{
			ID:              claims.Subject,
			Username:        claims.Username,
			IsStaff:         claims.IsStaff,
			IsSuperuser:     claims.IsSuperuser,
			IsAuthenticated: true,
		})
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by Auth, or the zero
// (unauthenticated) principal when the middleware did not run.
func PrincipalFromCtx(c *fiber.Ctx) model.Principal {
	if v := c.Locals(PrincipalLocalKey); v != nil {
		if p, ok := v.(model.Principal); ok {
			return p
		}
	}
	return model.Principal{}
}
