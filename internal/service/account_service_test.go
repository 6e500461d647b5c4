package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

type accountFixture struct {
	accounts *AccountService
	tokens   *TokenService
	users    *fakeUserRepo
	resets   *fakeResetRepo
	captured *capturedEvents
}

// capturedEvents records what the services publish.
type capturedEvents struct {
	types []events.EventType
}

func (c *capturedEvents) record(_ context.Context, event events.Event) error {
	c.types = append(c.types, event.Type)
	return nil
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	store := newFakeRevocationStore()
	codec := auth.NewTokenCodec("test-secret")

	captured := &capturedEvents{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	for _, et := range []events.EventType{
		events.EventUserRegistered,
		events.EventPasswordChanged,
		events.EventPasswordResetRequested,
		events.EventRoleChanged,
	} {
		dispatcher.Subscribe(et, captured.record)
	}

	tokens := NewTokenService(testAuthConfig(), TokenDependencies{
		UserRepo:    users,
		Codec:       codec,
		Revocations: store,
		Dispatcher:  dispatcher,
	})
	accounts := NewAccountService(testAuthConfig(), AccountDependencies{
		UserRepo:   users,
		ResetRepo:  resets,
		Tokens:     tokens,
		Dispatcher: dispatcher,
	})
	return &accountFixture{accounts: accounts, tokens: tokens, users: users, resets: resets, captured: captured}
}

func TestRegisterCreatesUserWithDefaultRole(t *testing.T) {
	f := newAccountFixture(t)

	user, pair, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, user.Role)
	require.True(t, user.Active)
	require.False(t, user.Verified)
	require.NotEmpty(t, pair.AccessToken)
	require.Contains(t, f.captured.types, events.EventUserRegistered)

	// The stored hash verifies against the original password.
	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, auth.VerifyPassword(stored.PasswordHash, "hunter2"))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newAccountFixture(t)

	_, _, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	_, _, err = f.accounts.Register(context.Background(), "alice", "other@example.com", "hunter2")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "CONFLICT", domainErr.Code)

	_, _, err = f.accounts.Register(context.Background(), "bob", "alice@example.com", "hunter2")
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "CONFLICT", domainErr.Code)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	f := newAccountFixture(t)
	user, _, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	err = f.accounts.ChangePassword(context.Background(), user.ID, "wrong", "newpass")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, f.accounts.ChangePassword(context.Background(), user.ID, "hunter2", "newpass"))
	require.Contains(t, f.captured.types, events.EventPasswordChanged)

	_, err = f.tokens.Login(context.Background(), "alice", "hunter2")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.tokens.Login(context.Background(), "alice", "newpass")
	require.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAccountFixture(t)
	_, _, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, f.accounts.RequestPasswordReset(context.Background(), "alice@example.com"))
	require.Contains(t, f.captured.types, events.EventPasswordResetRequested)
	require.Len(t, f.resets.tokens, 1)

	var resetToken string
	for token := range f.resets.tokens {
		resetToken = token
	}

	require.NoError(t, f.accounts.ConfirmPasswordReset(context.Background(), resetToken, "newpass"))
	_, err = f.tokens.Login(context.Background(), "alice", "newpass")
	require.NoError(t, err)

	// Single use: the same token cannot reset twice.
	err = f.accounts.ConfirmPasswordReset(context.Background(), resetToken, "again")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newAccountFixture(t)

	require.NoError(t, f.accounts.RequestPasswordReset(context.Background(), "nobody@example.com"))
	require.Empty(t, f.resets.tokens)
	require.NotContains(t, f.captured.types, events.EventPasswordResetRequested)
}

func TestPasswordResetTokenBurnedBeforePasswordChange(t *testing.T) {
	f := newAccountFixture(t)
	_, _, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, f.accounts.RequestPasswordReset(context.Background(), "alice@example.com"))
	var resetToken string
	for token := range f.resets.tokens {
		resetToken = token
	}

	f.resets.markUsedErr = errors.New("write timeout")
	err = f.accounts.ConfirmPasswordReset(context.Background(), resetToken, "newpass")
	require.Error(t, err)

	// The password did not change, so a failed burn never leaves a live
	// token behind a new credential.
	_, err = f.tokens.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	_, err = f.tokens.Login(context.Background(), "alice", "newpass")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterMapsUniqueViolationToConflict(t *testing.T) {
	f := newAccountFixture(t)
	f.users.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}

	_, _, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "CONFLICT", domainErr.Code)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	f := newAccountFixture(t)
	user, _, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	token := newExpiredResetToken(t, f, user.ID)
	err = f.accounts.ConfirmPasswordReset(context.Background(), token, "newpass")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func newExpiredResetToken(t *testing.T, f *accountFixture, userID string) string {
	t.Helper()
	f.resets.mu.Lock()
	defer f.resets.mu.Unlock()
	f.resets.seq++
	token := "expired-token"
	f.resets.tokens[token] = &repository.PasswordResetToken{
		ID:        "reset-expired",
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	return token
}

func TestUpdateRole(t *testing.T) {
	f := newAccountFixture(t)
	user, _, err := f.accounts.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, f.accounts.UpdateRole(context.Background(), "admin-1", user.ID, domain.RoleEditor))
	require.Contains(t, f.captured.types, events.EventRoleChanged)

	updated, err := f.accounts.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleEditor, updated.Role)

	err = f.accounts.UpdateRole(context.Background(), "admin-1", "missing", domain.RoleGuest)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "NOT_FOUND", domainErr.Code)
}
