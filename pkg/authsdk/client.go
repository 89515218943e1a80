package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the signet authentication service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SignUp registers a new user.
func (c *SDKClient) SignUp(ctx context.Context, username, password string) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/user/sign-up", "", CredentialsRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignIn exchanges credentials for a session token.
func (c *SDKClient) SignIn(ctx context.Context, username, password string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/user/sign-in", "", CredentialsRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var token TokenResponse
	if err := decodeJSON(resp, &token, http.StatusOK); err != nil {
		return nil, err
	}
	return &token, nil
}

// RequestEmailOTP asks the service to issue a code for email. accessToken
// is the session token from SignIn.
func (c *SDKClient) RequestEmailOTP(ctx context.Context, accessToken, email string) (int, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/user/email/otp", accessToken, OTPRequest{Email: email})
	if err != nil {
		return 0, err
	}

	var otp OTPResponse
	if err := decodeJSON(resp, &otp, http.StatusOK); err != nil {
		return 0, err
	}
	return otp.OTP, nil
}

// VerifyEmailOTP submits a code for email and returns the user the session
// token belongs to.
func (c *SDKClient) VerifyEmailOTP(ctx context.Context, accessToken, email string, otp int) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/user/email/otp/verify", accessToken, VerifyOTPRequest{
		Email: email,
		OTP:   otp,
	})
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetHealth calls the root health check.
func (c *SDKClient) GetHealth(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/")
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/livez")
}

// GetReadiness checks if the service is ready. A 503 is returned as an
// *APIError.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/readyz")
}

func (c *SDKClient) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}
