package service_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/domain"
	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/pkg/errutil"
	"github.com/aussiebroadwan/signet/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view, err := f.auth.SignUp(ctx, "alice", "pw123")
	require.NoError(t, err)
	require.Equal(t, "alice", view.Username)
	_, err = idx.Parse(view.ID)
	require.NoError(t, err)
	require.False(t, view.CreatedAt.IsZero())

	stored, err := f.users.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotEqual(t, "pw123", stored.PasswordHash)
	require.True(t, strings.HasPrefix(stored.PasswordHash, "$2a$"))

	_, err = f.auth.SignUp(ctx, "alice", "anything")
	require.ErrorIs(t, err, service.ErrDuplicateIdentity)
	require.Equal(t, 1, f.users.Len())

	// Identities are case-sensitive.
	_, err = f.auth.SignUp(ctx, "Alice", "pw123")
	require.NoError(t, err)
}

func TestSignUp_ErrorCarriesContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.SignUp(ctx, "alice", "pw123")
	require.NoError(t, err)
	_, err = f.auth.SignUp(ctx, "alice", "pw123")

	errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_IDENTITY")
	errutil.AssertErrorContext(t, err, "username", "alice")
}

func TestSignUp_ConcurrentSameName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.auth.SignUp(ctx, "alice", "pw123")
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, service.ErrDuplicateIdentity)
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, f.users.Len())
}

func TestSignUp_PasswordTooLong(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.SignUp(context.Background(), "alice", strings.Repeat("p", 100))
	require.ErrorIs(t, err, service.ErrBadRequest)
	require.Zero(t, f.users.Len())
}

func TestSignUp_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.err = errBackendDown

	_, err := f.auth.SignUp(context.Background(), "alice", "pw123")
	require.ErrorIs(t, err, service.ErrStoreUnavailable)
	require.ErrorIs(t, err, errBackendDown)
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.SignUp(ctx, "alice", "pw123")
	require.NoError(t, err)

	tok, err := f.auth.SignIn(ctx, "alice", "pw123")
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)

	subject, err := f.tokens.Validate(tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", subject)

	_, err = f.auth.SignIn(ctx, "alice", "wrong")
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.auth.SignIn(ctx, "bob", "x")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestRequestEmailOTP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	token := signedUpAndIn(t, f, "alice", "pw123")

	code, err := f.auth.RequestEmailOTP(ctx, token, "a@x.com")
	require.NoError(t, err)
	require.GreaterOrEqual(t, code, 1000)
	require.LessOrEqual(t, code, 9999)

	stored, err := f.kv.Get(ctx, domain.OTPKey("a@x.com"))
	require.NoError(t, err)
	require.Equal(t, code, mustAtoi(t, stored))
}

func TestRequestEmailOTP_TokenErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	token := signedUpAndIn(t, f, "alice", "pw123")

	t.Run("garbage", func(t *testing.T) {
		_, err := f.auth.RequestEmailOTP(ctx, "garbage", "a@x.com")
		require.ErrorIs(t, err, service.ErrMalformedToken)
	})

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(token, ".")
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		parts[2] = string(sig)
		_, err := f.auth.RequestEmailOTP(ctx, strings.Join(parts, "."), "a@x.com")
		require.ErrorIs(t, err, service.ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		f.clock.Advance(25 * time.Hour)
		_, err := f.auth.RequestEmailOTP(ctx, token, "a@x.com")
		require.ErrorIs(t, err, service.ErrExpiredToken)
	})

	// No code was written by any failed request.
	_, err := f.kv.Get(ctx, domain.OTPKey("a@x.com"))
	require.Error(t, err)
}

func TestVerifyEmailOTP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	token := signedUpAndIn(t, f, "alice", "pw123")

	code, err := f.auth.RequestEmailOTP(ctx, token, "a@x.com")
	require.NoError(t, err)

	view, err := f.auth.VerifyEmailOTP(ctx, "a@x.com", code, token)
	require.NoError(t, err)
	require.Equal(t, "alice", view.Username)

	// Without the consume policy the code stays valid until it expires.
	_, err = f.auth.VerifyEmailOTP(ctx, "a@x.com", code, token)
	require.NoError(t, err)

	_, err = f.auth.VerifyEmailOTP(ctx, "a@x.com", code+1, token)
	require.ErrorIs(t, err, service.ErrBadRequest)
	require.ErrorIs(t, err, service.ErrChallengeMismatch)

	_, err = f.auth.VerifyEmailOTP(ctx, "other@x.com", code, token)
	require.ErrorIs(t, err, service.ErrBadRequest)
	require.ErrorIs(t, err, service.ErrChallengeNotFound)
}

func TestVerifyEmailOTP_NotBoundToRequester(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	aliceToken := signedUpAndIn(t, f, "alice", "pw123")
	bobToken := signedUpAndIn(t, f, "bob", "hunter2")

	code, err := f.auth.RequestEmailOTP(ctx, aliceToken, "shared@x.com")
	require.NoError(t, err)

	// The code is keyed by address only; whoever presents it is resolved
	// from their own token.
	view, err := f.auth.VerifyEmailOTP(ctx, "shared@x.com", code, bobToken)
	require.NoError(t, err)
	require.Equal(t, "bob", view.Username)
}

func TestVerifyEmailOTP_OrderOfChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	token := signedUpAndIn(t, f, "alice", "pw123")

	code, err := f.auth.RequestEmailOTP(ctx, token, "a@x.com")
	require.NoError(t, err)

	t.Run("otp checked before token", func(t *testing.T) {
		_, err := f.auth.VerifyEmailOTP(ctx, "a@x.com", code+1, "garbage")
		require.ErrorIs(t, err, service.ErrBadRequest)
	})

	t.Run("bad token with good code", func(t *testing.T) {
		_, err := f.auth.VerifyEmailOTP(ctx, "a@x.com", code, "garbage")
		require.ErrorIs(t, err, service.ErrMalformedToken)
	})

	t.Run("subject deleted", func(t *testing.T) {
		f.users.Delete("alice")
		_, err := f.auth.VerifyEmailOTP(ctx, "a@x.com", code, token)
		require.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestVerifyEmailOTP_Expired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	token := signedUpAndIn(t, f, "alice", "pw123")

	code, err := f.auth.RequestEmailOTP(ctx, token, "a@x.com")
	require.NoError(t, err)

	f.clock.Advance(300 * time.Second)
	_, err = f.auth.VerifyEmailOTP(ctx, "a@x.com", code, token)
	require.ErrorIs(t, err, service.ErrBadRequest)
	require.ErrorIs(t, err, service.ErrChallengeNotFound)
}

func TestVerifyEmailOTP_ConsumeOnVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withConsumeOnVerify())
	token := signedUpAndIn(t, f, "alice", "pw123")

	code, err := f.auth.RequestEmailOTP(ctx, token, "a@x.com")
	require.NoError(t, err)

	// A failed attempt does not burn the code.
	_, err = f.auth.VerifyEmailOTP(ctx, "a@x.com", code, "garbage")
	require.ErrorIs(t, err, service.ErrMalformedToken)

	_, err = f.auth.VerifyEmailOTP(ctx, "a@x.com", code, token)
	require.NoError(t, err)

	_, err = f.auth.VerifyEmailOTP(ctx, "a@x.com", code, token)
	require.ErrorIs(t, err, service.ErrChallengeNotFound)
}

func TestNewAuthService_RequiresCollaborators(t *testing.T) {
	_, err := service.NewAuthService(service.AuthServiceOptions{})
	require.Error(t, err)
}

func signedUpAndIn(t *testing.T, f *fixture, username, password string) string {
	t.Helper()
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, username, password)
	require.NoError(t, err)
	tok, err := f.auth.SignIn(ctx, username, password)
	require.NoError(t, err)
	return tok.AccessToken
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
