package auth_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/app"
	"github.com/aussiebroadwan/signet/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common helpers for auth service end-to-end tests. The service is wired
 * through app.New exactly as cmd/auth does it and served in-process.
 */

const (
	signingSecret = "e2e-signing-secret-0123456789abcdef"
	testPassword  = "Passw0rd!"
)

// setupAuthService configures the service from environment variables (on
// top of test defaults), starts it behind an httptest server and returns
// its base URL. Overrides win over the defaults.
func setupAuthService(t *testing.T, overrides map[string]string) string {
	t.Helper()

	env := map[string]string{
		"AUTH_DATABASE_FILE":  filepath.Join(t.TempDir(), "auth.db"),
		"AUTH_KV_DRIVER":      "sqlite",
		"AUTH_SIGNING_SECRET": signingSecret,
		"AUTH_BCRYPT_COST":    "4",
		"ENV":                 "test",
		"LOG_LEVEL":           "error",
		// Increase rate limits so rapid test requests are not throttled
		"RATELIMIT_STRICT_REQUESTS":     "1000",
		"RATELIMIT_STRICT_WINDOW_SEC":   "60",
		"RATELIMIT_STRICT_BURST":        "1000",
		"RATELIMIT_MODERATE_REQUESTS":   "1000",
		"RATELIMIT_MODERATE_WINDOW_SEC": "60",
		"RATELIMIT_MODERATE_BURST":      "1000",
	}
	for k, v := range overrides {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	a, err := app.New(cfg, app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, a.Shutdown())
	})

	return srv.URL
}

// setupRedis starts a throwaway Redis container and returns its URL.
func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

// signUpAndIn registers username and returns a session token for it.
func signUpAndIn(t *testing.T, client *authsdk.SDKClient, username string) (*authsdk.UserResponse, string) {
	t.Helper()
	ctx := t.Context()

	user, err := client.SignUp(ctx, username, testPassword)
	require.NoError(t, err)

	token, err := client.SignIn(ctx, username, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)

	return user, token.AccessToken
}

// assertHealthy checks that a health response indicates the service is healthy.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertStatus checks that err is an API error with the given status.
func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.True(t, authsdk.IsStatus(err, status), "expected HTTP %d, got %v", status, err)
}
