package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/signet/internal/auth/metrics"
	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/pkg/authsdk"
	"github.com/aussiebroadwan/signet/pkg/errutil"
	"github.com/aussiebroadwan/signet/pkg/httpx"
	"github.com/aussiebroadwan/signet/pkg/slogx"
)

// errorFor maps a service error onto the response written to the client.
// BadRequest is checked first: an OTP failure during verification matches
// both ErrBadRequest and its challenge cause.
func errorFor(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrBadRequest):
		return authsdk.ErrBadRequest
	case errors.Is(err, service.ErrDuplicateIdentity):
		return authsdk.ErrDuplicateIdentity
	case errors.Is(err, service.ErrNotFound):
		return authsdk.ErrUserNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return authsdk.ErrNotAuthorized
	case service.IsTokenError(err):
		return authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrStoreUnavailable):
		return authsdk.ErrServiceUnavailable
	default:
		return authsdk.ErrServerError
	}
}

// writeServiceError logs err with its oops context and writes the mapped
// response. Token failures also carry a bearer challenge.
func writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) *authsdk.APIError {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	apiErr := errorFor(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		errutil.LogError(ctx, log, msg, err)
	} else {
		errutil.LogWarn(ctx, log, msg, err)
	}

	if apiErr == authsdk.ErrInvalidToken {
		httpx.WriteBearerError(w, apiErr.Description)
		return apiErr
	}
	apiErr.WriteError(w)
	return apiErr
}

func outcomeOf(apiErr *authsdk.APIError) string {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		return metrics.OutcomeError
	}
	return metrics.OutcomeFailure
}
