package auth

import (
	"context"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxEstablishmentIDKey = "establishment_id"
	CtxStaffNameKey       = "staff_name"
)

// JWTMiddleware scopes the request to the establishment named in the token.
// Switching establishment means opening a new session; nothing else carries a tenant.
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxEstablishmentIDKey, claims.EstablishmentID)
		c.Locals(CtxStaffNameKey, claims.StaffName)
		return c.Next()
	}
}

// EstablishmentID returns the establishment the request is scoped to.
func EstablishmentID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals(CtxEstablishmentIDKey).(uint)
	if !ok || id == 0 {
		return 0, apperror.AccessDenied("no establishment selected")
	}
	return id, nil
}

// RequestContext carries the staff name for audit attribution.
func RequestContext(c *fiber.Ctx) context.Context {
	staff, _ := c.Locals(CtxStaffNameKey).(string)
	return audit.WithActor(c.UserContext(), staff)
}
