package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/auth"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// Response details for authentication and authorization failures.
const (
	DetailNotAuthenticated = "Not authenticated"
	DetailTokenExpired     = "Token has expired"
	DetailInvalidToken     = "Invalid Token"
	DetailForbidden        = "Forbidden"
)

// translateError maps every error kind to the status and message sent to the client.
func translateError(err error) *apperrors.DomainError {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return wrap("MISSING_CREDENTIAL", DetailNotAuthenticated, fiber.StatusUnauthorized, err)
	case errors.Is(err, auth.ErrExpiredToken):
		return wrap("TOKEN_EXPIRED", DetailTokenExpired, fiber.StatusUnauthorized, err)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrIdentityNotFound):
		return wrap("INVALID_TOKEN", DetailInvalidToken, fiber.StatusUnauthorized, err)
	case errors.Is(err, auth.ErrForbidden):
		return wrap("FORBIDDEN", DetailForbidden, fiber.StatusForbidden, err)
	}

	var encErr *auth.EncodingError
	if errors.As(err, &encErr) {
		return apperrors.ToDomainError(apperrors.NewInternalError(err))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &apperrors.DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
			Err:        err,
		}
	}

	return apperrors.ToDomainError(err)
}

func wrap(code, message string, status int, err error) *apperrors.DomainError {
	return &apperrors.DomainError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "HTTP_ERROR"
	}
}

func isAuthRejection(code string) bool {
	switch code {
	case "MISSING_CREDENTIAL", "TOKEN_EXPIRED", "INVALID_TOKEN", "FORBIDDEN":
		return true
	default:
		return false
	}
}
