package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/service"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// AuthHandler exposes token lifecycle endpoints.
type AuthHandler struct {
	tokens   *service.TokenService
	accounts *service.AccountService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *service.TokenService, accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{tokens: tokens, accounts: accounts}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username, email, password required")
	}

	user, pair, err := h.accounts.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.UserResponse{
				ID:       user.ID,
				Username: user.Username,
				Email:    user.Email,
				Role:     string(user.Role),
				Active:   user.Active,
				Verified: user.Verified,
			},
			"tokens": tokenPairResponse(pair),
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password required")
	}

	pair, err := h.tokens.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	return c.JSON(fiber.Map{"data": tokenPairResponse(pair)})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.RefreshToken == "" {
		return fiber.NewError(http.StatusBadRequest, "refresh_token required")
	}

	access, expiresAt, err := h.tokens.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return mapAuthError(err)
	}

	return c.JSON(fiber.Map{"data": dto.AccessTokenResponse{
		AccessToken:     access,
		AccessExpiresAt: expiresAt,
	}})
}

// Logout handles POST /auth/logout. The bearer token counts as the access
// token when the body omits it.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	// The body is optional; a bare bearer-only logout is fine.
	_ = c.BodyParser(&req)
	if req.AccessToken == "" {
		req.AccessToken = bearerToken(c)
	}

	if err := h.tokens.Logout(c.UserContext(), req.AccessToken, req.RefreshToken); err != nil {
		return mapAuthError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.PrincipalResponse{
		UserID:    principal.UserID,
		Role:      string(principal.Role),
		Verified:  principal.Verified,
		IssuedAt:  principal.IssuedAt,
		ExpiresAt: principal.ExpiresAt,
	}})
}

func tokenPairResponse(pair *domain.TokenPair) dto.TokenPairResponse {
	return dto.TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
