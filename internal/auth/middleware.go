package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const principalKey = "auth_principal"

// TokenVerifier is the slice of the token service the resolver needs.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (domain.Principal, error)
}

// AuthMiddleware resolves bearer tokens into request principals. Any failure
// short-circuits the request before handler logic runs.
type AuthMiddleware struct {
	verifier TokenVerifier
	// retryBackoff is waited once before retrying a revocation store failure.
	retryBackoff time.Duration
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, retryBackoff: 100 * time.Millisecond}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	principal, err := m.verifier.Verify(c.UserContext(), parts[1])
	if errors.Is(err, ErrStoreUnavailable) {
		// One bounded retry before surfacing service-unavailable.
		time.Sleep(m.retryBackoff)
		principal, err = m.verifier.Verify(c.UserContext(), parts[1])
	}
	if err != nil {
		return mapVerifyError(err)
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func mapVerifyError(err error) error {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return apperrors.NewServiceUnavailable("authentication temporarily unavailable")
	case errors.Is(err, ErrTokenExpired):
		// Distinct message so clients know to re-authenticate rather than
		// treat the token as forged.
		return apperrors.NewUnauthorized("token expired")
	case errors.Is(err, ErrTokenRevoked):
		return apperrors.NewUnauthorized("token revoked")
	default:
		return apperrors.NewUnauthorized("invalid token")
	}
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok
}

// RequirePermission gates a route on a permission with no ownership context.
// Ownership-scoped checks run inside handlers where the resource owner is
// known.
func RequirePermission(engine *AuthorizationEngine, permission domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !engine.Check(principal, permission, "") {
			return apperrors.NewForbidden("insufficient permissions")
		}
		return c.Next()
	}
}
