package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// LoginGuard tracks failed logins per account.
type LoginGuard interface {
	Locked(ctx context.Context, account string) (bool, error)
	RegisterFailure(ctx context.Context, account string) error
	Reset(ctx context.Context, account string) error
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string
	Password string
	Phone    *string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenCodec
	guard      LoginGuard
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenCodec
	LoginGuard LoginGuard
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		guard:      deps.LoginGuard,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a complainer account and returns its first access token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, domain.IssuedToken, error) {
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.IssuedToken{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.IssuedToken{}, err
	}

	user, err := s.createUser(ctx, in, domain.RoleComplainer)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, nil, events.UserRegisteredPayload{
		Email: user.Email,
		Role:  user.Role,
	}))

	token, err := s.issue(user)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}
	return user, token, nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.IssuedToken, error) {
	if s.locked(ctx, email) {
		return nil, domain.IssuedToken{}, apperrors.NewTooManyRequests("Too many failed login attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.registerFailure(ctx, email)
			return nil, domain.IssuedToken{}, errWrongCredentials()
		}
		return nil, domain.IssuedToken{}, err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.registerFailure(ctx, email)
			return nil, domain.IssuedToken{}, errWrongCredentials()
		}
		return nil, domain.IssuedToken{}, err
	}

	if s.guard != nil {
		if err := s.guard.Reset(ctx, email); err != nil {
			s.logger.Warn("reset login failures", zap.Error(err))
		}
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}
	return user, token, nil
}

// EnsureAdmin creates an admin account when none exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	count, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		if err := s.users.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
			return false, err
		}
		s.logger.Info("promoted existing user to admin", zap.Int64("user_id", existing.ID))
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	user, err := s.createUser(ctx, RegisterInput{Email: email, Password: password}, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.Int64("user_id", user.ID))
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role domain.Role) (*domain.User, error) {
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("Invalid request payload", map[string]any{
				"password": fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes),
			})
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        in.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (domain.IssuedToken, error) {
	token, exp, err := s.tokens.Encode(user)
	if err != nil {
		s.logger.Error("token encoding failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) locked(ctx context.Context, email string) bool {
	if s.guard == nil {
		return false
	}
	locked, err := s.guard.Locked(ctx, email)
	if err != nil {
		s.logger.Warn("login lockout check failed", zap.Error(err))
		return false
	}
	return locked
}

func (s *AuthService) registerFailure(ctx context.Context, email string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.RegisterFailure(ctx, email); err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func errWrongCredentials() error {
	return apperrors.NewUnauthorized("Wrong email or password")
}
