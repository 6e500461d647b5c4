package events

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventUserLoggedIn           EventType = "user_logged_in"
	EventUserLoggedOut          EventType = "user_logged_out"
	EventTokenRefreshed         EventType = "token_refreshed"
	EventPasswordChanged        EventType = "password_changed"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventRoleChanged            EventType = "role_changed"
)

// Event represents an auth domain event emitted by services. These feed the
// audit/notification path; they are advisory and never gate the operation
// that produced them.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	Username        string    `json:"username"`
	AccessTokenID   string    `json:"access_token_id"`
	RefreshTokenID  string    `json:"refresh_token_id"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// UserLoggedOutPayload payload.
type UserLoggedOutPayload struct {
	RevokedTokenIDs []string `json:"revoked_token_ids"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	RefreshTokenID string `json:"refresh_token_id"`
	AccessTokenID  string `json:"access_token_id"`
}

// PasswordResetRequestedPayload payload. The reset token travels to the
// email collaborator, never to the requester's response.
type PasswordResetRequestedPayload struct {
	Email      string    `json:"email"`
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
	ActorID string      `json:"actor_id"`
}
