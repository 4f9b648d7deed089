package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// UserService exposes user administration.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger}
}

// List returns all users, or only the one matching email when it is set.
func (s *UserService) List(ctx context.Context, email string) ([]domain.User, error) {
	return s.users.List(ctx, repository.UserFilter{Email: email})
}

// GetByEmail returns a single user.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, err
	}
	return user, nil
}

// ChangeRole sets the role of user id. actor is the admin performing the change.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.User, id int64, role domain.Role) error {
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"id": strconv.FormatInt(id, 10)})
		}
		return err
	}
	if user.Role == role {
		return nil
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"id": strconv.FormatInt(id, 10)})
		}
		return err
	}

	var actorID *int64
	if actor != nil {
		actorID = &actor.ID
	}
	if s.dispatcher != nil {
		event := events.NewEvent(events.EventUserRoleChanged, id, actorID, events.UserRoleChangedPayload{
			OldRole: user.Role,
			NewRole: role,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return nil
}
