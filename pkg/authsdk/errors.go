package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/signet/pkg/httpx"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrorCodeBadRequest         = "bad_request"
	ErrorCodeDuplicateIdentity  = "duplicate_identity"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeNotAuthorized      = "not_authorized"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeRateLimitExceeded  = "rate_limit_exceeded"
	ErrorCodeServiceUnavailable = "service_unavailable"
	ErrorCodeServerError        = "server_error"
)

// APIError is a non-2xx response from the service. It is used both by the
// server (to write responses) and by the client (to report them).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is one of the ErrorCode constants
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Description)
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	ErrBadRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeBadRequest,
		Description: "Bad Request",
	}

	ErrDuplicateIdentity = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateIdentity,
		Description: "Username already taken",
	}

	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "User not found",
	}

	ErrNotAuthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeNotAuthorized,
		Description: "Not Authorized",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	ErrServiceUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeServiceUnavailable,
		Description: "service temporarily unavailable",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
