package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Defaults for the adaptive hashing parameters.
const (
	DefaultBcryptCost = 12

	// Argon2id parameters follow the OWASP minimum profile (m=19MiB, t=2, p=1).
	DefaultArgon2Time = 2
	argon2Memory      = 19 * 1024 // KiB
	argon2Parallelism = 1
	argon2KeyLength   = 32
	argon2SaltLength  = 16

	// MaxArgon2Time bounds the configured iteration count.
	MaxArgon2Time = 64

	// Ceilings for parameters read back from a stored hash. Anything larger
	// is treated as malformed rather than computed.
	maxStoredArgon2Memory = 1 << 20 // KiB, 1 GiB
	maxStoredArgon2Time   = MaxArgon2Time
)

var (
	ErrUnknownHashAlgorithm = errors.New("cryptox: unknown password hash algorithm")
	ErrInvalidWorkFactor    = errors.New("cryptox: invalid work factor")

	// ErrPasswordTooLong is returned by bcrypt for input over 72 bytes.
	ErrPasswordTooLong = bcrypt.ErrPasswordTooLong
)

// PasswordHasherOptions configures a PasswordHasher. Zero values fall back
// to the defaults above.
type PasswordHasherOptions struct {
	Algorithm  string // bcrypt (default) or argon2id
	BcryptCost int    // bcrypt cost, 4..31
	Argon2Time uint32 // argon2id iterations, 1..64
}

// PasswordHasher salts and hashes credentials. It holds only immutable
// configuration so a single instance can be shared by every request.
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
	argon2Time uint32
}

// NewPasswordHasher validates opts and returns a hasher.
func NewPasswordHasher(opts PasswordHasherOptions) (*PasswordHasher, error) {
	h := &PasswordHasher{
		algorithm:  strings.ToLower(opts.Algorithm),
		bcryptCost: opts.BcryptCost,
		argon2Time: opts.Argon2Time,
	}

	if h.algorithm == "" {
		h.algorithm = AlgorithmBcrypt
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = DefaultBcryptCost
	}
	if h.argon2Time == 0 {
		h.argon2Time = DefaultArgon2Time
	}

	switch h.algorithm {
	case AlgorithmBcrypt:
		if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%w: bcrypt cost %d outside [%d, %d]",
				ErrInvalidWorkFactor, h.bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case AlgorithmArgon2id:
		if h.argon2Time > MaxArgon2Time {
			return nil, fmt.Errorf("%w: argon2id time %d outside [1, %d]",
				ErrInvalidWorkFactor, h.argon2Time, MaxArgon2Time)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashAlgorithm, opts.Algorithm)
	}

	return h, nil
}

// Algorithm reports the algorithm used for new hashes.
func (h *PasswordHasher) Algorithm() string { return h.algorithm }

// Hash returns a self-describing encoded hash (salt and parameters
// included) of the plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return h.hashArgon2id(plaintext)
	}

	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify reports whether plaintext matches the stored hash. The algorithm
// and its parameters are read from the encoded hash, so hashes produced
// under an earlier configuration keep verifying. Malformed hashes never
// match.
func (h *PasswordHasher) Verify(plaintext, encodedHash string) bool {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return verifyArgon2id(plaintext, encodedHash) == nil
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(plaintext)) == nil
	default:
		return false
	}
}

func (h *PasswordHasher) hashArgon2id(plaintext string) (string, error) {
	salt := make([]byte, argon2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(plaintext),
		salt,
		h.argon2Time,
		argon2Memory,
		argon2Parallelism,
		argon2KeyLength,
	)

	// PHC string: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		h.argon2Time,
		argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyArgon2id(plaintext, encodedHash string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return errors.New("invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return errors.New("invalid hash format: not argon2id")
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return errors.New("invalid hash format: wrong version")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("invalid hash format: failed to parse parameters: %w", err)
	}
	if mem == 0 || iters == 0 || par == 0 {
		return errors.New("invalid hash format: zero parameter")
	}
	if mem > maxStoredArgon2Memory || iters > maxStoredArgon2Time {
		return errors.New("invalid hash format: parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode hash: %w", err)
	}
	if len(expected) == 0 || len(expected) > 1024 {
		return errors.New("invalid hash format: bad key length")
	}

	computed := argon2.IDKey(
		[]byte(plaintext),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - bounded above
	)

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return errors.New("password does not match")
}
