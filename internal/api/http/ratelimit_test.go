package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoginLimiterBurstThenThrottle(t *testing.T) {
	limiter := newLoginLimiter(60, 2)

	require.True(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
}

func TestLoginLimiterIsolatesClients(t *testing.T) {
	limiter := newLoginLimiter(60, 1)

	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))
}

func TestLoginLimiterDefaults(t *testing.T) {
	limiter := newLoginLimiter(0, 0)

	for i := 0; i < 5; i++ {
		require.True(t, limiter.allow("10.0.0.1"))
	}
	require.False(t, limiter.allow("10.0.0.1"))
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Post("/auth/login", LoginRateLimit(60, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/auth/login", nil), 5000)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
		resp.Body.Close()
	}
	require.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, statuses)
}
