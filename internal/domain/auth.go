package domain

import "time"

// IssuedToken is an access token handed out at registration or login.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
