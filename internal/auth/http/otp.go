package http

import (
	"net/http"

	"github.com/aussiebroadwan/signet/internal/auth/metrics"
	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/pkg/authsdk"
	"github.com/aussiebroadwan/signet/pkg/httpx"
)

// EmailOTPHandler serves the email one-time-password endpoints. Both sit
// behind httpx.RequireBearer; the service validates the token itself.
type EmailOTPHandler struct {
	AuthService *service.AuthService
	Metrics     *metrics.Metrics
}

// HandleRequest godoc
//
//	@Summary		Request Email OTP
//	@Description	Issue a one-time code for an email address. The code is returned to the caller, which is responsible for delivering it.
//	@Description	Issuing a new code for the same address replaces the previous one.
//	@Tags			Email OTP
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.OTPRequest		true	"email"
//	@Success		200		{object}	authsdk.OTPResponse		"otp"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/user/email/otp [post].
func (h *EmailOTPHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	const op = "otp_request"
	ctx := r.Context()

	var req authsdk.OTPRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Email == "" {
		h.Metrics.ObserveOperation(op, metrics.OutcomeFailure)
		authsdk.ErrBadRequest.WriteError(w)
		return
	}

	token := httpx.BearerTokenFromContext(ctx)
	code, err := h.AuthService.RequestEmailOTP(ctx, token, req.Email)
	if err != nil {
		apiErr := writeServiceError(w, r, "otp request failed", err)
		h.Metrics.ObserveOperation(op, outcomeOf(apiErr))
		return
	}

	h.Metrics.ObserveOperation(op, metrics.OutcomeSuccess)
	httpx.WriteJSON(w, http.StatusOK, authsdk.OTPResponse{OTP: code})
}

// HandleVerify godoc
//
//	@Summary		Verify Email OTP
//	@Description	Check a one-time code for an email address and return the user the session token belongs to.
//	@Tags			Email OTP
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.VerifyOTPRequest	true	"email, otp"
//	@Success		200		{object}	authsdk.UserResponse		"id, username, created_at"
//	@Failure		400		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		404		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		429		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Router			/user/email/otp/verify [post].
func (h *EmailOTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	const op = "otp_verify"
	ctx := r.Context()

	var req authsdk.VerifyOTPRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Email == "" {
		h.Metrics.ObserveOperation(op, metrics.OutcomeFailure)
		authsdk.ErrBadRequest.WriteError(w)
		return
	}

	token := httpx.BearerTokenFromContext(ctx)
	user, err := h.AuthService.VerifyEmailOTP(ctx, req.Email, req.OTP, token)
	if err != nil {
		apiErr := writeServiceError(w, r, "otp verification failed", err)
		h.Metrics.ObserveOperation(op, outcomeOf(apiErr))
		return
	}

	h.Metrics.ObserveOperation(op, metrics.OutcomeSuccess)
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}
