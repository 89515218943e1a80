package jwtx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Symmetric signing algorithms accepted for session tokens.
const (
	AlgorithmHS256 = "HS256"
	AlgorithmHS384 = "HS384"
	AlgorithmHS512 = "HS512"
)

var (
	ErrUnsupportedAlg = errors.New("jwtx: unsupported signing algorithm")
	ErrEmptySecret    = errors.New("jwtx: empty signing secret")
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HMACSigner signs tokens with a shared secret.
type HMACSigner struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

// NewHMACSigner returns a signer for one of HS256, HS384 or HS512.
func NewHMACSigner(alg string, secret []byte) (*HMACSigner, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	return &HMACSigner{method: method, secret: secret}, nil
}

func (s *HMACSigner) Alg() string { return s.method.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// Verifier returns a verifier sharing this signer's algorithm and secret.
func (s *HMACSigner) Verifier() *HMACVerifier {
	return &HMACVerifier{method: s.method, secret: s.secret}
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch strings.ToUpper(alg) {
	case AlgorithmHS256:
		return jwt.SigningMethodHS256, nil
	case AlgorithmHS384:
		return jwt.SigningMethodHS384, nil
	case AlgorithmHS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}
