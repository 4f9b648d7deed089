package auth

import "errors"

// Authentication and authorization failures. Each one ends the request.
var (
	ErrMissingCredential = errors.New("auth: missing bearer credential")
	ErrExpiredToken      = errors.New("auth: token has expired")
	ErrInvalidToken      = errors.New("auth: invalid token")
	ErrIdentityNotFound  = errors.New("auth: token subject does not resolve to a user")
	ErrForbidden         = errors.New("auth: forbidden")
)

// EncodingError reports an unexpected failure while signing a token.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return "auth: encode token: " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
