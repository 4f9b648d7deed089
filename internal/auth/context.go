package auth

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type userKey struct{}

// WithUser binds the authenticated user to ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext retrieves the authenticated user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
