package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrExpired    = errors.New("jwtx: token expired")
)

// HMACVerifier validates tokens signed by an HMACSigner. The clock is the
// wall clock unless WithClock is used; there is no leeway.
type HMACVerifier struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	now    func() time.Time
}

// NewHMACVerifier creates a verifier for alg and secret.
func NewHMACVerifier(alg string, secret []byte) (*HMACVerifier, error) {
	s, err := NewHMACSigner(alg, secret)
	if err != nil {
		return nil, err
	}
	return s.Verifier(), nil
}

// WithClock returns a copy of v that reads time from now.
func (v *HMACVerifier) WithClock(now func() time.Time) *HMACVerifier {
	cp := *v
	cp.now = now
	return &cp
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Every failure wraps exactly one of ErrMalformed, ErrInvalidSig or
// ErrExpired.
func (v *HMACVerifier) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.now))
	}

	var claims Claims
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub", ErrMalformed)
	}

	return claims, nil
}

// classify folds the jwt library's error tree into our three kinds. Order
// matters: an expired token also reports ErrTokenInvalidClaims.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
