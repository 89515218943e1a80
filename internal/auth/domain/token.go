package domain

import "time"

// SessionToken is what sign-in hands back: a signed, stateless bearer token
// and the instant it stops being accepted.
type SessionToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"` // always "Bearer"
	ExpiresAt   time.Time `json:"expires_at"`
}

// OTPKey returns the expiring-store key under which the email challenge for
// address lives.
func OTPKey(address string) string {
	return "otp:email:" + address
}
