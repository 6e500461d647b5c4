package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// Claims describes the JWT payload for both access and refresh tokens. The
// token id (jti) is unique per issuance and keys the revocation store.
type Claims struct {
	Role     domain.Role      `json:"role"`
	Kind     domain.TokenKind `json:"kind"`
	Verified bool             `json:"verified"`
	jwt.RegisteredClaims
}

// TokenID returns the unique id assigned at issuance.
func (c *Claims) TokenID() string {
	return c.ID
}

// Principal derives the per-request identity from verified claims.
func (c *Claims) Principal() domain.Principal {
	p := domain.Principal{
		UserID:   c.Subject,
		Role:     c.Role,
		Verified: c.Verified,
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

// TokenCodec issues and parses signed tokens. It holds only immutable key
// material set at startup and is safe for concurrent use.
type TokenCodec struct {
	signingKey []byte
	// verifyKeys always contains signingKey first, followed by any extra
	// trusted keys kept alive through a rotation window.
	verifyKeys [][]byte
	now        func() time.Time
}

// NewTokenCodec builds a codec. extraVerifyKeys lets previously issued tokens
// stay verifiable after the signing key rotates; rotation itself is an
// operational action outside this type.
func NewTokenCodec(signingKey string, extraVerifyKeys ...string) *TokenCodec {
	keys := make([][]byte, 0, len(extraVerifyKeys)+1)
	keys = append(keys, []byte(signingKey))
	for _, k := range extraVerifyKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return &TokenCodec{
		signingKey: []byte(signingKey),
		verifyKeys: keys,
		now:        time.Now,
	}
}

// Issue signs a token of the given kind for the user. Each call mints a fresh
// token id, so access and refresh tokens of one login revoke independently.
func (tc *TokenCodec) Issue(user *domain.User, kind domain.TokenKind, ttl time.Duration) (string, *Claims, error) {
	now := tc.now()
	claims := &Claims{
		Role:     user.Role,
		Kind:     kind,
		Verified: user.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates the token against every trusted key and returns its claims.
// Failure kinds are distinct: ErrMalformedToken for structural damage,
// ErrInvalidSignature when no trusted key verifies it, ErrTokenExpired when
// the signature is good but the token is past its encoded expiry. On
// ErrTokenExpired the claims are still returned so callers such as logout can
// treat the token as already dead instead of failing.
func (tc *TokenCodec) Parse(raw string) (*Claims, error) {
	for _, key := range tc.verifyKeys {
		key := key
		parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return key, nil
		}, jwt.WithTimeFunc(tc.now))
		if err == nil {
			claims, ok := parsed.Claims.(*Claims)
			if !ok || !parsed.Valid {
				return nil, ErrMalformedToken
			}
			return claims, nil
		}

		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			// Signature verified under this key; expiry is the only problem.
			if claims, ok := parsed.Claims.(*Claims); ok {
				return claims, ErrTokenExpired
			}
			return nil, ErrTokenExpired
		}
		// Signature mismatch or unverifiable under this key; try the next
		// trusted key before giving up.
	}
	return nil, ErrInvalidSignature
}
