package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Require checks that the user bound to ctx holds one of the allowed roles.
// A missing user or an unknown stored role is forbidden as well.
func Require(ctx context.Context, allowed ...domain.Role) error {
	user, ok := UserFromContext(ctx)
	if !ok || !user.Role.Valid() {
		return ErrForbidden
	}
	for _, role := range allowed {
		if user.HasRole(role) {
			return nil
		}
	}
	return ErrForbidden
}

// RequireRole guards a route so only the allowed roles reach it.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	roles := append([]domain.Role(nil), allowed...)
	return func(c *fiber.Ctx) error {
		if err := Require(c.UserContext(), roles...); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAnyRole lets any authenticated user with a known role through.
func RequireAnyRole() fiber.Handler {
	return RequireRole(domain.Roles()...)
}
