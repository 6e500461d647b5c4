package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/auth"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// bearerToken extracts the raw bearer token from the Authorization header,
// or returns "" when none is present.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// mapAuthError converts token lifecycle failures into the narrow set of
// user-visible outcomes: 401 for anything credential- or token-shaped, 503
// when the revocation store is down. Internal detail stays internal.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("invalid credentials")
	case errors.Is(err, auth.ErrAccountInactive):
		return apperrors.NewUnauthorized("account inactive")
	case errors.Is(err, auth.ErrTokenExpired):
		return apperrors.NewUnauthorized("token expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		return apperrors.NewUnauthorized("token revoked")
	case errors.Is(err, auth.ErrMalformedToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrWrongTokenKind):
		return apperrors.NewUnauthorized("invalid token")
	case errors.Is(err, auth.ErrStoreUnavailable):
		return apperrors.NewServiceUnavailable("authentication temporarily unavailable")
	default:
		return err
	}
}
