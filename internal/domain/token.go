package domain

import "time"

// TokenKind differentiates access and refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "ACCESS"
	TokenKindRefresh TokenKind = "REFRESH"
)

// TokenPair is the result of a successful login or registration.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Principal is the verified identity derived from an access token for the
// duration of one request. It is never persisted.
type Principal struct {
	UserID    string
	Role      Role
	Verified  bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}
