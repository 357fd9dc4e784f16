package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/financing-service/internal/api/dto"
	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/service"
	apperrors "github.com/spec-kit/financing-service/pkg/util"
)

// UsersHandler exposes account and session endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Signup handles POST /api/users/signup.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "first_name, last_name, email, password required")
	}

	user, token, exp, err := h.auth.Signup(c.Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /api/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /api/users/logout. It revokes the presented
// token's id with TTL equal to the token's remaining lifetime.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.Context(), auth.BearerToken(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "successfully logged out"}})
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewIdentityResponse(identity)}})
}

// UpdateMe handles PATCH /api/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.auth.UpdateProfile(c.Context(), identity.UserID, service.ProfileUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewUserResponse(user)}})
}

// DeleteMe handles DELETE /api/users/me.
func (h *UsersHandler) DeleteMe(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}
	if err := h.auth.DeleteAccount(c.Context(), identity.UserID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "account deleted"}})
}
