package authsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	// Error is a short machine-readable code (e.g., "not_found", "invalid_token")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// User Types
// ============================================================================

// CredentialsRequest is the body of POST /user/sign-up and POST /user/sign-in.
type CredentialsRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// UserResponse is the public view of a user. It never carries the
// password hash.
type UserResponse struct {
	ID        string    `json:"id" example:"01JAZ2V3QG8N6Y9M0W1T5RXK4C"`
	Username  string    `json:"username" example:"alice"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by a successful sign-in.
type TokenResponse struct {
	// AccessToken is the signed session token
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type" example:"Bearer"`

	// ExpiresAt is when AccessToken stops being accepted
	ExpiresAt time.Time `json:"expires_at"`
}

// ============================================================================
// Email OTP Types
// ============================================================================

// OTPRequest is the body of POST /user/email/otp.
type OTPRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

// OTPResponse carries the issued code. Delivering it to the address is the
// caller's job.
type OTPResponse struct {
	OTP int `json:"otp" example:"4821"`
}

// VerifyOTPRequest is the body of POST /user/email/otp/verify.
type VerifyOTPRequest struct {
	Email string `json:"email" example:"alice@example.com"`
	OTP   int    `json:"otp" example:"4821"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by /, /livez and /readyz (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the user store connection status
	Database string `json:"database"`

	// ChallengeStore indicates the OTP key-value store status
	ChallengeStore string `json:"challenge_store"`
}
