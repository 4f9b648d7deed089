package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates bearer tokens and binds the resolved user to the request.
type AuthMiddleware struct {
	tokens *TokenCodec
	loader IdentityLoader
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenCodec, loader IdentityLoader, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, loader: loader, logger: logger}
}

// Handle enforces authentication for protected routes.
// Steps run strictly in order: extract, decode, load, bind.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	tokenStr, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	subjectID, err := m.tokens.Decode(tokenStr)
	if err != nil {
		m.logger.Debug("token rejected", zap.Error(err), zap.String("path", c.Path()))
		return err
	}

	ctx := c.UserContext()
	user, err := m.loader.Load(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			m.logger.Info("token subject not found", zap.Int64("subject_id", subjectID))
		}
		return err
	}

	c.SetUserContext(WithUser(ctx, user))
	return c.Next()
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredential
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingCredential
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
