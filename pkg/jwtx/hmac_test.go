package jwtx_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/signet/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewHMACSigner(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512", "hs256"} {
		t.Run(alg, func(t *testing.T) {
			s, err := jwtx.NewHMACSigner(alg, testSecret)
			require.NoError(t, err)
			require.Equal(t, strings.ToUpper(alg), s.Alg())
		})
	}

	t.Run("rejects asymmetric algorithms", func(t *testing.T) {
		_, err := jwtx.NewHMACSigner("RS256", testSecret)
		require.ErrorIs(t, err, jwtx.ErrUnsupportedAlg)
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := jwtx.NewHMACSigner("HS256", nil)
		require.ErrorIs(t, err, jwtx.ErrEmptySecret)
	})
}

func TestHMACSignAndVerify(t *testing.T) {
	signer, err := jwtx.NewHMACSigner(jwtx.AlgorithmHS256, testSecret)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	token, err := signer.Sign(jwtx.NewSessionClaims("alice", time.Hour, now))
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(token, "."))

	claims, err := signer.Verifier().Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.True(t, now.Equal(claims.IssuedAtTime()))
	require.True(t, now.Add(time.Hour).Equal(claims.ExpiresAtTime()))
}

func TestHMACVerify_Expiry(t *testing.T) {
	signer, err := jwtx.NewHMACSigner(jwtx.AlgorithmHS256, testSecret)
	require.NoError(t, err)

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := signer.Sign(jwtx.NewSessionClaims("alice", jwtx.DefaultSessionTTL, issued))
	require.NoError(t, err)

	t.Run("valid one second before exp", func(t *testing.T) {
		v := signer.Verifier().WithClock(fixedClock(issued.Add(jwtx.DefaultSessionTTL - time.Second)))
		_, err := v.Verify(token)
		require.NoError(t, err)
	})

	t.Run("expired at exp", func(t *testing.T) {
		v := signer.Verifier().WithClock(fixedClock(issued.Add(jwtx.DefaultSessionTTL)))
		_, err := v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expired one second after exp", func(t *testing.T) {
		v := signer.Verifier().WithClock(fixedClock(issued.Add(jwtx.DefaultSessionTTL + time.Second)))
		_, err := v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestHMACVerify_Failures(t *testing.T) {
	signer, err := jwtx.NewHMACSigner(jwtx.AlgorithmHS256, testSecret)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewSessionClaims("alice", time.Hour, time.Now()))
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		v, err := jwtx.NewHMACVerifier(jwtx.AlgorithmHS256, []byte("another-secret-another-secret-00"))
		require.NoError(t, err)
		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("algorithm mismatch", func(t *testing.T) {
		other, err := jwtx.NewHMACSigner(jwtx.AlgorithmHS512, testSecret)
		require.NoError(t, err)
		tok512, err := other.Sign(jwtx.NewSessionClaims("alice", time.Hour, time.Now()))
		require.NoError(t, err)

		_, err = signer.Verifier().Verify(tok512)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone,
			jwtx.NewSessionClaims("alice", time.Hour, time.Now()),
		).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = signer.Verifier().Verify(unsigned)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b", "a.b.c", "!!!.???.###"} {
			_, err := signer.Verifier().Verify(raw)
			require.ErrorIs(t, err, jwtx.ErrMalformed, raw)
		}
	})

	t.Run("missing exp", func(t *testing.T) {
		c := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}
		tok, err := signer.Sign(c)
		require.NoError(t, err)

		_, err = signer.Verifier().Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("missing sub", func(t *testing.T) {
		tok, err := signer.Sign(jwtx.NewSessionClaims("", time.Hour, time.Now()))
		require.NoError(t, err)

		_, err = signer.Verifier().Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestHMACVerify_Tampering(t *testing.T) {
	signer, err := jwtx.NewHMACSigner(jwtx.AlgorithmHS256, testSecret)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewSessionClaims("alice", time.Hour, time.Now()))
	require.NoError(t, err)

	// Flip one byte in each segment. The final character of a segment is
	// avoided because its low bits are padding in unpadded base64.
	segments := strings.Split(token, ".")
	offset := 0
	for i, seg := range segments {
		pos := offset + len(seg)/2
		offset += len(seg) + 1

		t.Run([]string{"header", "payload", "signature"}[i], func(t *testing.T) {
			b := []byte(token)
			if b[pos] == 'A' {
				b[pos] = 'B'
			} else {
				b[pos] = 'A'
			}

			_, err := signer.Verifier().Verify(string(b))
			require.Error(t, err)
			require.True(t,
				errorIsAny(err, jwtx.ErrInvalidSig, jwtx.ErrMalformed),
				"unexpected error kind: %v", err)
		})
	}
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
