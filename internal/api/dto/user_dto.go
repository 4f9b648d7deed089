package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=120"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Phone    *string `json:"phone" validate:"omitempty,min=3,max=20"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserOut is the public view of a user.
type UserOut struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Role  string  `json:"role"`
	Phone *string `json:"phone"`
}

// NewUserOut maps a domain user without its password hash.
func NewUserOut(u *domain.User) UserOut {
	return UserOut{
		ID:    u.ID,
		Email: u.Email,
		Role:  string(u.Role),
		Phone: u.Phone,
	}
}

// NewUserOutList maps a slice of users.
func NewUserOutList(users []domain.User) []UserOut {
	out := make([]UserOut, 0, len(users))
	for i := range users {
		out = append(out, NewUserOut(&users[i]))
	}
	return out
}
