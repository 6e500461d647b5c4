package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)

	require.NoError(t, VerifyPassword(hash, "s3cret"))
}

func TestVerifyPasswordMismatch(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	require.ErrorIs(t, VerifyPassword(hash, "wrong"), ErrInvalidCredentials)
	require.ErrorIs(t, VerifyPassword("not-a-hash", "s3cret"), ErrInvalidCredentials)
}

func TestHashPasswordUsesSalt(t *testing.T) {
	first, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
