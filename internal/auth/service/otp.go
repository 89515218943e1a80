package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/store"
	"github.com/aussiebroadwan/signet/pkg/cryptox"
	"github.com/samber/oops"
)

// Defaults for email one-time codes.
const (
	DefaultOTPTTL = 300 * time.Second
	DefaultOTPMin = 1000
	DefaultOTPMax = 9999
)

// ChallengeService issues short numeric codes and checks them later. A key
// holds at most one live code; issuing again replaces it.
type ChallengeService struct {
	kv       store.ExpiringKV
	ttl      time.Duration
	min, max int
}

// ChallengeOptions configures a ChallengeService. Zero values take the
// package defaults.
type ChallengeOptions struct {
	TTL time.Duration
	Min int
	Max int
}

func NewChallengeService(kv store.ExpiringKV, opts ChallengeOptions) (*ChallengeService, error) {
	s := &ChallengeService{kv: kv, ttl: opts.TTL, min: opts.Min, max: opts.Max}
	if s.ttl <= 0 {
		s.ttl = DefaultOTPTTL
	}
	if s.min == 0 && s.max == 0 {
		s.min, s.max = DefaultOTPMin, DefaultOTPMax
	}
	if s.min < 0 || s.max < s.min {
		return nil, oops.
			Code("OTP_RANGE_INVALID").
			With("min", s.min).
			With("max", s.max).
			Errorf("otp range is empty or negative")
	}
	return s, nil
}

// TTL is how long an issued code stays valid.
func (s *ChallengeService) TTL() time.Duration { return s.ttl }

// Issue draws a fresh code for key, stores it with the configured TTL and
// returns it. Any earlier code for key stops working.
func (s *ChallengeService) Issue(ctx context.Context, key string) (int, error) {
	code, err := cryptox.RandomIntInRange(s.min, s.max)
	if err != nil {
		return 0, oops.Code("OTP_GENERATE_FAILED").Wrap(err)
	}

	if err := s.kv.Set(ctx, key, strconv.Itoa(code), s.ttl); err != nil {
		return 0, storeFailure("otp.set", err)
	}
	return code, nil
}

// Verify compares candidate with the live code for key. It never changes
// the stored code, so a correct code keeps verifying until it expires.
func (s *ChallengeService) Verify(ctx context.Context, key string, candidate int) error {
	stored, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return oops.Code("OTP_NOT_FOUND").With("key", key).Wrap(ErrChallengeNotFound)
	}
	if err != nil {
		return storeFailure("otp.get", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(strconv.Itoa(candidate))) != 1 {
		return oops.Code("OTP_MISMATCH").With("key", key).Wrap(ErrChallengeMismatch)
	}
	return nil
}

// Consume removes the code for key. Removing a missing code is not an error.
func (s *ChallengeService) Consume(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return storeFailure("otp.delete", err)
	}
	return nil
}
