package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
)

// TokenService orchestrates the token lifecycle: login issues an
// access/refresh pair, refresh mints new access tokens, logout revokes, and
// Verify is the per-request hot path turning a bearer token into a Principal.
type TokenService struct {
	users       repository.UserRepository
	codec       *auth.TokenCodec
	revocations auth.RevocationStore
	dispatcher  events.Dispatcher
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// TokenDependencies bundles collaborators for the token service.
type TokenDependencies struct {
	UserRepo    repository.UserRepository
	Codec       *auth.TokenCodec
	Revocations auth.RevocationStore
	Dispatcher  events.Dispatcher
}

// NewTokenService builds the service.
func NewTokenService(cfg config.AuthConfig, deps TokenDependencies) *TokenService {
	return &TokenService{
		users:       deps.UserRepo,
		codec:       deps.Codec,
		revocations: deps.Revocations,
		dispatcher:  deps.Dispatcher,
		accessTTL:   cfg.AccessTokenTTL(),
		refreshTTL:  cfg.RefreshTokenTTL(),
	}
}

// Login authenticates the credentials and issues a fresh token pair. The
// access and refresh tokens carry independent token ids, so revoking one
// never implicitly revokes the other. Unknown username and wrong password
// both come back as ErrInvalidCredentials.
func (s *TokenService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, auth.ErrAccountInactive
	}

	pair, accessClaims, refreshClaims, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserLoggedIn,
		UserID:    user.ID,
		Timestamp: time.Now(),
		Payload: events.UserLoggedInPayload{
			Username:        user.Username,
			AccessTokenID:   accessClaims.TokenID(),
			RefreshTokenID:  refreshClaims.TokenID(),
			AccessExpiresAt: pair.AccessExpiresAt,
		},
	})

	return pair, nil
}

// Refresh validates a refresh token and mints a new access token for the
// same subject and role. The refresh token itself is not rotated and its
// expiry never moves; once it expires, refreshing fails for good.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.codec.Parse(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if claims.Kind != domain.TokenKindRefresh {
		return "", time.Time{}, auth.ErrWrongTokenKind
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return "", time.Time{}, err
	}
	if revoked {
		return "", time.Time{}, auth.ErrTokenRevoked
	}

	subject := &domain.User{
		ID:       claims.Subject,
		Role:     claims.Role,
		Verified: claims.Verified,
	}
	access, accessClaims, err := s.codec.Issue(subject, domain.TokenKindAccess, s.accessTTL)
	if err != nil {
		return "", time.Time{}, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTokenRefreshed,
		UserID:    claims.Subject,
		Timestamp: time.Now(),
		Payload: events.TokenRefreshedPayload{
			RefreshTokenID: claims.TokenID(),
			AccessTokenID:  accessClaims.TokenID(),
		},
	})

	return access, accessClaims.ExpiresAt.Time, nil
}

// Logout revokes both tokens of a pair. It is idempotent: revoking an
// already-revoked id overwrites the same entry, and tokens that are expired
// or unparseable are skipped as no-op successes since they can never verify
// again anyway. Only a revocation store failure is reported.
func (s *TokenService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var revokedIDs []string
	var subjectID string

	for _, raw := range []string{accessToken, refreshToken} {
		if raw == "" {
			continue
		}
		claims, err := s.codec.Parse(raw)
		if err != nil {
			// Expired, forged, or damaged tokens cannot come back to life;
			// nothing to revoke.
			continue
		}
		if err := s.revocations.Revoke(ctx, claims.TokenID(), claims.ExpiresAt.Time); err != nil {
			return err
		}
		revokedIDs = append(revokedIDs, claims.TokenID())
		if subjectID == "" {
			subjectID = claims.Subject
		}
	}

	if len(revokedIDs) > 0 {
		s.publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserLoggedOut,
			UserID:    subjectID,
			Timestamp: time.Now(),
			Payload:   events.UserLoggedOutPayload{RevokedTokenIDs: revokedIDs},
		})
	}
	return nil
}

// Verify is the hot path behind every authenticated request. Signature and
// expiry failures short-circuit before the revocation lookup so clearly
// invalid tokens never cost a store round-trip.
func (s *TokenService) Verify(ctx context.Context, accessToken string) (domain.Principal, error) {
	claims, err := s.codec.Parse(accessToken)
	if err != nil {
		return domain.Principal{}, err
	}
	if claims.Kind != domain.TokenKindAccess {
		return domain.Principal{}, auth.ErrWrongTokenKind
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return domain.Principal{}, err
	}
	if revoked {
		return domain.Principal{}, auth.ErrTokenRevoked
	}

	return claims.Principal(), nil
}

// IssuePair mints a token pair for an already-authenticated user, used by
// registration where the password was just set.
func (s *TokenService) IssuePair(user *domain.User) (*domain.TokenPair, error) {
	pair, _, _, err := s.issuePair(user)
	return pair, err
}

func (s *TokenService) issuePair(user *domain.User) (*domain.TokenPair, *auth.Claims, *auth.Claims, error) {
	access, accessClaims, err := s.codec.Issue(user, domain.TokenKindAccess, s.accessTTL)
	if err != nil {
		return nil, nil, nil, err
	}
	refresh, refreshClaims, err := s.codec.Issue(user, domain.TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return nil, nil, nil, err
	}
	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, accessClaims, refreshClaims, nil
}

func (s *TokenService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
