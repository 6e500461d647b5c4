package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "auth-service", cfg.App.Name)
	require.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	require.Equal(t, 30*time.Second, cfg.App.RequestTimeout())

	require.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL())
	require.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL())
	require.Equal(t, 500*time.Millisecond, cfg.Auth.RevocationTimeout())
	require.Equal(t, 12, cfg.Auth.BcryptCost)
	require.Empty(t, cfg.Auth.JWTVerificationKeys)
	require.Equal(t, 10, cfg.Auth.LoginRatePerMinute)
	require.Equal(t, 5, cfg.Auth.LoginRateBurst)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "prod-secret")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_HOURS", "24")
	t.Setenv("AUTH_JWT_VERIFICATION_KEYS", "old-key-1, old-key-2,")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "prod-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	require.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL())
	require.Equal(t, []string{"old-key-1", "old-key-2"}, cfg.Auth.JWTVerificationKeys)
	require.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
}

func TestLoadIgnoresUnparseableNumbers(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL())
}

func TestRevocationTimeoutFloor(t *testing.T) {
	cfg := AuthConfig{RevocationTimeoutMillis: 0}
	require.Equal(t, 500*time.Millisecond, cfg.RevocationTimeout())

	cfg.RevocationTimeoutMillis = 250
	require.Equal(t, 250*time.Millisecond, cfg.RevocationTimeout())
}
