package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/domain"
	"github.com/aussiebroadwan/signet/internal/auth/store"
	"github.com/aussiebroadwan/signet/pkg/cryptox"
	"github.com/aussiebroadwan/signet/pkg/idx"
	"github.com/samber/oops"
)

// dummyPassword is hashed once at construction. Sign-in for an unknown
// username verifies against that hash so the response takes as long as a
// real password check.
const dummyPassword = "signet-timing-equaliser"

// AuthService drives sign-up, sign-in and the email OTP flow. It holds no
// mutable state and is safe for concurrent use.
type AuthService struct {
	users      store.Users
	hasher     *cryptox.PasswordHasher
	tokens     *TokenService
	challenges *ChallengeService
	ids        *idx.Generator
	now        func() time.Time

	consumeOTPOnVerify bool
	dummyHash          string
}

type AuthServiceOptions struct {
	Users      store.Users
	Hasher     *cryptox.PasswordHasher
	Tokens     *TokenService
	Challenges *ChallengeService
	IDs        *idx.Generator

	// ConsumeOTPOnVerify deletes a code after a fully successful
	// verification. When false a code may be verified repeatedly until it
	// expires.
	ConsumeOTPOnVerify bool
}

func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Users == nil || opts.Hasher == nil || opts.Tokens == nil || opts.Challenges == nil {
		return nil, oops.Code("AUTH_SERVICE_MISCONFIGURED").Errorf("auth service requires users, hasher, tokens and challenges")
	}
	if opts.IDs == nil {
		opts.IDs = idx.NewGenerator()
	}

	dummy, err := opts.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH_FAILED").Wrap(err)
	}

	return &AuthService{
		users:              opts.Users,
		hasher:             opts.Hasher,
		tokens:             opts.Tokens,
		challenges:         opts.Challenges,
		ids:                opts.IDs,
		now:                time.Now,
		consumeOTPOnVerify: opts.ConsumeOTPOnVerify,
		dummyHash:          dummy,
	}, nil
}

// SignUp registers username with password and returns the new user's
// public view. Nothing is written when it fails.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (domain.UserView, error) {
	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.UserView{}, duplicate(username)
	case !errors.Is(err, store.ErrNotFound):
		return domain.UserView{}, storeFailure("users.get_by_username", err)
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, cryptox.ErrPasswordTooLong) {
		return domain.UserView{}, oops.
			Code("AUTH_PASSWORD_TOO_LONG").
			Wrap(fmt.Errorf("%w: %w", ErrBadRequest, err))
	}
	if err != nil {
		return domain.UserView{}, oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           s.ids.NewAt(now).String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent sign-up for the same name.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.UserView{}, duplicate(username)
		}
		return domain.UserView{}, storeFailure("users.create", err)
	}

	return user.View(), nil
}

// SignIn checks the credentials and issues a session token whose subject is
// the username.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (domain.SessionToken, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		_ = s.hasher.Verify(password, s.dummyHash)
		return domain.SessionToken{}, oops.
			Code("AUTH_USER_NOT_FOUND").
			With("username", username).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return domain.SessionToken{}, storeFailure("users.get_by_username", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.SessionToken{}, oops.
			Code("AUTH_INVALID_CREDENTIALS").
			With("username", username).
			Wrap(ErrUnauthorized)
	}

	return s.tokens.Issue(user.Username)
}

// RequestEmailOTP issues a code for address on behalf of the holder of a
// valid session token. The code is not tied to the token's subject.
func (s *AuthService) RequestEmailOTP(ctx context.Context, sessionToken, address string) (int, error) {
	if _, err := s.tokens.Validate(sessionToken); err != nil {
		return 0, err
	}
	return s.challenges.Issue(ctx, domain.OTPKey(address))
}

// VerifyEmailOTP checks candidate against the live code for address, then
// resolves the session token to its user. OTP failures surface as
// ErrBadRequest; token failures keep their own kind.
func (s *AuthService) VerifyEmailOTP(
	ctx context.Context,
	address string,
	candidate int,
	sessionToken string,
) (domain.UserView, error) {
	key := domain.OTPKey(address)

	if err := s.challenges.Verify(ctx, key, candidate); err != nil {
		if errors.Is(err, ErrChallengeNotFound) || errors.Is(err, ErrChallengeMismatch) {
			return domain.UserView{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return domain.UserView{}, err
	}

	subject, err := s.tokens.Validate(sessionToken)
	if err != nil {
		return domain.UserView{}, err
	}

	user, err := s.users.GetUserByUsername(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.UserView{}, oops.
			Code("AUTH_USER_NOT_FOUND").
			With("username", subject).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return domain.UserView{}, storeFailure("users.get_by_username", err)
	}

	if s.consumeOTPOnVerify {
		if err := s.challenges.Consume(ctx, key); err != nil {
			return domain.UserView{}, err
		}
	}

	return user.View(), nil
}

func duplicate(username string) error {
	return oops.
		Code("AUTH_DUPLICATE_IDENTITY").
		With("username", username).
		Wrap(ErrDuplicateIdentity)
}
