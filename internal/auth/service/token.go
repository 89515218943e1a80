package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/domain"
	"github.com/aussiebroadwan/signet/pkg/jwtx"
	"github.com/samber/oops"
)

// TokenService issues and validates stateless session tokens. There is no
// revocation list: a token is good until its exp passes.
type TokenService struct {
	signer   *jwtx.HMACSigner
	verifier *jwtx.HMACVerifier
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService returns a TokenService signing with signer. A non-positive
// ttl falls back to jwtx.DefaultSessionTTL.
func NewTokenService(signer *jwtx.HMACSigner, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}
	return &TokenService{
		signer:   signer,
		verifier: signer.Verifier(),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock returns a copy of s that reads time from now for both issuing
// and validating. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	cp.verifier = s.verifier.WithClock(now)
	return &cp
}

// TTL is the lifetime of tokens issued by s.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject valid from now until now+TTL.
func (s *TokenService) Issue(subject string) (domain.SessionToken, error) {
	if subject == "" {
		return domain.SessionToken{}, oops.
			Code("TOKEN_SUBJECT_EMPTY").
			Errorf("session token subject cannot be empty")
	}

	claims := jwtx.NewSessionClaims(subject, s.ttl, s.now())
	signed, err := s.signer.Sign(claims)
	if err != nil {
		return domain.SessionToken{}, oops.
			Code("TOKEN_SIGN_FAILED").
			With("alg", s.signer.Alg()).
			Wrap(err)
	}

	return domain.SessionToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAtTime(),
	}, nil
}

// Validate checks token and returns its subject. Failures match
// ErrExpiredToken, ErrInvalidSignature or ErrMalformedToken.
func (s *TokenService) Validate(token string) (string, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, jwtx.ErrExpired):
			return "", oops.Code("TOKEN_EXPIRED").Wrap(fmt.Errorf("%w: %w", ErrExpiredToken, err))
		case errors.Is(err, jwtx.ErrInvalidSig):
			return "", oops.Code("TOKEN_INVALID_SIGNATURE").Wrap(fmt.Errorf("%w: %w", ErrInvalidSignature, err))
		default:
			return "", oops.Code("TOKEN_MALFORMED").Wrap(fmt.Errorf("%w: %w", ErrMalformedToken, err))
		}
	}
	return claims.Subject, nil
}
