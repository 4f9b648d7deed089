package auth

import (
	"context"
	"errors"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// IdentityLoader resolves a token subject into a user.
type IdentityLoader interface {
	Load(ctx context.Context, subjectID int64) (*domain.User, error)
}

// UserLoader loads identities straight from the user store, without caching.
type UserLoader struct {
	users repository.UserRepository
}

// NewUserLoader constructs a loader backed by users.
func NewUserLoader(users repository.UserRepository) *UserLoader {
	return &UserLoader{users: users}
}

// Load fetches the user by id. A miss yields ErrIdentityNotFound.
func (l *UserLoader) Load(ctx context.Context, subjectID int64) (*domain.User, error) {
	user, err := l.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return user, nil
}
