package http

import (
	"net/http"

	"github.com/aussiebroadwan/signet/internal/auth/metrics"
	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/pkg/authsdk"
	"github.com/aussiebroadwan/signet/pkg/httpx"
	"github.com/aussiebroadwan/signet/pkg/slogx"
)

// UserHandler serves sign-up and sign-in.
type UserHandler struct {
	AuthService *service.AuthService
	Metrics     *metrics.Metrics
}

// HandleSignUp godoc
//
//	@Summary		Sign Up
//	@Description	Register a new user. Usernames are case-sensitive and unique.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CredentialsRequest	true	"username, password"
//	@Success		201		{object}	authsdk.UserResponse		"id, username, created_at"
//	@Failure		400		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		503		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Router			/user/sign-up [post].
func (h *UserHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	const op = "sign_up"

	req, ok := decodeCredentials(w, r)
	if !ok {
		h.Metrics.ObserveOperation(op, metrics.OutcomeFailure)
		return
	}

	user, err := h.AuthService.SignUp(r.Context(), req.Username, req.Password)
	if err != nil {
		apiErr := writeServiceError(w, r, "sign up failed", err)
		h.Metrics.ObserveOperation(op, outcomeOf(apiErr))
		return
	}

	slogx.FromContext(r.Context()).Info("user registered", "user_id", user.ID, "username", user.Username)
	h.Metrics.ObserveOperation(op, metrics.OutcomeSuccess)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}

// HandleSignIn godoc
//
//	@Summary		Sign In
//	@Description	Exchange a username and password for a session token valid for 24 hours.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CredentialsRequest	true	"username, password"
//	@Success		200		{object}	authsdk.TokenResponse		"access_token, token_type, expires_at"
//	@Failure		400		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		404		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		429		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Header			200		{string}	Cache-Control				"no-store"
//	@Router			/user/sign-in [post].
func (h *UserHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	const op = "sign_in"

	req, ok := decodeCredentials(w, r)
	if !ok {
		h.Metrics.ObserveOperation(op, metrics.OutcomeFailure)
		return
	}

	token, err := h.AuthService.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		apiErr := writeServiceError(w, r, "sign in failed", err)
		h.Metrics.ObserveOperation(op, outcomeOf(apiErr))
		return
	}

	h.Metrics.ObserveOperation(op, metrics.OutcomeSuccess)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	})
}

// decodeCredentials reads a CredentialsRequest and writes a 400 when the
// body is unreadable or a field is empty.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (authsdk.CredentialsRequest, bool) {
	var req authsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		slogx.FromContext(r.Context()).Warn("invalid credentials body", "error", err)
		authsdk.ErrBadRequest.WriteError(w)
		return req, false
	}
	if req.Username == "" || req.Password == "" {
		authsdk.ErrBadRequest.WriteError(w)
		return req, false
	}
	return req, true
}
