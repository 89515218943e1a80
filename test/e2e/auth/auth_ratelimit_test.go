package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/signet/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// setupAuthServiceWithDefaultRateLimits uses the production limits.
func setupAuthServiceWithDefaultRateLimits(t *testing.T) string {
	t.Helper()
	return setupAuthService(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":     "5",
		"RATELIMIT_STRICT_WINDOW_SEC":   "60",
		"RATELIMIT_STRICT_BURST":        "5",
		"RATELIMIT_MODERATE_REQUESTS":   "20",
		"RATELIMIT_MODERATE_WINDOW_SEC": "60",
		"RATELIMIT_MODERATE_BURST":      "20",
	})
}

// TestRateLimitSignIn verifies that sign-in is limited per IP and username
// (strict limit, 5 req/min).
func TestRateLimitSignIn(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthServiceWithDefaultRateLimits(t))
	ctx := t.Context()

	for i := range 5 {
		_, err := client.SignIn(ctx, "wronguser", "wrongpass")
		require.False(t, authsdk.IsStatus(err, http.StatusTooManyRequests), "request %d rate limited too early", i+1)
	}

	_, err := client.SignIn(ctx, "wronguser", "wrongpass")
	assertStatus(t, err, http.StatusTooManyRequests)

	// Another username is still allowed from the same address.
	_, err = client.SignIn(ctx, "otheruser", "wrongpass")
	assertStatus(t, err, http.StatusNotFound)
}

// TestRateLimitEmailOTP verifies that guessing codes for one address is
// limited (moderate limit, 20 req/min).
func TestRateLimitEmailOTP(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthServiceWithDefaultRateLimits(t))
	ctx := t.Context()

	_, token := signUpAndIn(t, client, "alice")

	var err error
	for range 20 {
		_, err = client.VerifyEmailOTP(ctx, token, "alice@example.com", 1)
		require.False(t, authsdk.IsStatus(err, http.StatusTooManyRequests))
	}

	_, err = client.VerifyEmailOTP(ctx, token, "alice@example.com", 1)
	assertStatus(t, err, http.StatusTooManyRequests)
}
