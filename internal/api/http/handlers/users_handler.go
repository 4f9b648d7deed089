package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// UsersHandler exposes user administration endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users?email=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserOutList(users))
}

// GetByEmail handles GET /user?email=.
func (h *UsersHandler) GetByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.NewValidationError("email query parameter is required", map[string]any{"email": "email is required"})
	}
	user, err := h.users.GetByEmail(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserOut(user))
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c.UserContext())
	if !ok {
		return auth.ErrForbidden
	}
	return c.JSON(dto.NewUserOut(user))
}

// MakeAdmin handles PUT /users/:id/make-admin.
func (h *UsersHandler) MakeAdmin(c *fiber.Ctx) error {
	return h.changeRole(c, domain.RoleAdmin)
}

// MakeApprover handles PUT /users/:id/make-approver.
func (h *UsersHandler) MakeApprover(c *fiber.Ctx) error {
	return h.changeRole(c, domain.RoleApprover)
}

func (h *UsersHandler) changeRole(c *fiber.Ctx, role domain.Role) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid user id", map[string]any{"id": c.Params("id")})
	}

	actor, _ := auth.UserFromContext(c.UserContext())
	if err := h.users.ChangeRole(c.UserContext(), actor, id, role); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
