package auth

import "errors"

// Sentinel errors for the token lifecycle. The HTTP boundary collapses these
// into a narrow set of user-visible outcomes; internally they stay distinct so
// callers can branch (for example "log in again" vs "invalid token").
var (
	// ErrInvalidCredentials covers both unknown username and wrong password,
	// deliberately indistinguishable to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrMalformedToken     = errors.New("malformed token")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrWrongTokenKind     = errors.New("wrong token kind")
	ErrStoreUnavailable   = errors.New("revocation store unavailable")
)
