package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// pgUniqueViolation is the Postgres error code for unique-constraint hits.
const pgUniqueViolation = "23505"

// AccountService covers account flows around the token lifecycle:
// registration, password change, password reset, and role administration.
type AccountService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokens     *TokenService
	dispatcher events.Dispatcher
	bcryptCost int
	resetTTL   time.Duration
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	ResetRepo  repository.PasswordResetRepository
	Tokens     *TokenService
	Dispatcher events.Dispatcher
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, deps AccountDependencies) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		resets:     deps.ResetRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
	}
}

// Register creates a new account with the default role and returns it together
// with a first token pair. New accounts start active but unverified.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*domain.User, *domain.TokenPair, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, nil, apperrors.NewConflict("username already taken", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		Verified:     false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The pre-insert checks race with concurrent registration; the
		// unique constraint is the authority, so its violation is still a
		// conflict, not an internal error.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, nil, apperrors.NewConflict("username or email already registered", nil)
		}
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserRegistered,
		UserID:    user.ID,
		Timestamp: time.Now(),
		Payload: events.UserRegisteredPayload{
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	})

	return user, pair, nil
}

// GetUser loads the stored account for a verified principal.
func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		return auth.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPasswordChanged,
		UserID:    user.ID,
		Timestamp: time.Now(),
	})
	return nil
}

// RequestPasswordReset stores a single-use reset token for the account behind
// the email. An unknown email is reported as success to the caller; whether a
// mail goes out is the notification collaborator's business, never visible in
// the response.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPasswordResetRequested,
		UserID:    user.ID,
		Timestamp: time.Now(),
		Payload: events.PasswordResetRequestedPayload{
			Email:      user.Email,
			ResetToken: token.Token,
			ExpiresAt:  token.ExpiresAt,
		},
	})
	return nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid or expired reset token", nil)
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("invalid or expired reset token", nil)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}

	// Burn the token before touching the password; a failure here must not
	// leave a spendable token behind a changed credential.
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPasswordChanged,
		UserID:    user.ID,
		Timestamp: time.Now(),
	})
	return nil
}

// UpdateRole moves an account to another role within the closed role set.
// Already-issued tokens keep their encoded role until expiry; the new role
// takes effect as logins and refreshes mint new tokens.
func (s *AccountService) UpdateRole(ctx context.Context, actorID, userID string, role domain.Role) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	oldRole := user.Role

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRoleChanged,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload: events.RoleChangedPayload{
			OldRole: oldRole,
			NewRole: role,
			ActorID: actorID,
		},
	})
	return nil
}

func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
