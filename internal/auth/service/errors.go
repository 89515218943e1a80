package service

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Errors returned by this package match one of these with errors.Is. OTP
// failures during verification match ErrBadRequest and their cause.
var (
	ErrDuplicateIdentity = errors.New("identity already registered")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrExpiredToken      = errors.New("session token expired")
	ErrInvalidSignature  = errors.New("session token signature invalid")
	ErrMalformedToken    = errors.New("session token malformed")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeMismatch = errors.New("challenge mismatch")
	ErrBadRequest        = errors.New("bad request")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// IsTokenError reports whether err is one of the session-token kinds.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMalformedToken)
}

// storeFailure wraps a collaborator failure so it matches
// ErrStoreUnavailable while keeping the driver error reachable.
func storeFailure(op string, err error) error {
	return oops.
		Code("STORE_UNAVAILABLE").
		With("operation", op).
		Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}
