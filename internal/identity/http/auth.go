package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/service"
	"github.com/skyfleethq/identity/pkg/httpx"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// resetAck is the acknowledgement for every forgot-password request, known
// email or not.
const resetAck = "If that email is registered, a reset link has been sent."

// AuthHandler handles registration, login, and token endpoints.
type AuthHandler struct {
	AuthService  *service.AuthService
	ResetService *service.PasswordResetService
}

// HandleRegister handles POST /v1/auth/register
//
//	@Summary		Register a new account
//	@Description	Creates a user with the default role and signs them in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest			true	"New account details"
//	@Success		201		{object}	LoginResponse			"Token pair for the new account"
//	@Failure		400		{object}	httpx.ErrorResponse		"Invalid request body"
//	@Failure		409		{object}	httpx.ErrorResponse		"Email or username already taken"
//	@Failure		500		{object}	httpx.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email, username, and password are required")
		return
	}

	u, pair, err := h.AuthService.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			httpx.WriteError(w, http.StatusConflict, "user_already_exists", "Email or username already taken")
			return
		}
		log.Error("registration failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, LoginResponse{UserID: u.ID, Tokens: pair})
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in with email and password
//	@Description	Issues a token pair, or an MFA continuation when the account has MFA enabled.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest		true	"Credentials"
//	@Success		200		{object}	LoginResponse		"Token pair, or mfa_required with user_id"
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid credentials"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	res, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.NoCache(w)
	if res.MFARequired {
		httpx.WriteJSON(w, http.StatusOK, LoginResponse{MFARequired: true, UserID: res.UserID})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, LoginResponse{UserID: res.UserID, Tokens: res.Tokens})
}

// HandleMFALogin handles POST /v1/auth/mfa
//
//	@Summary		Complete an MFA-pending login
//	@Description	Verifies a TOTP code for a login held pending on MFA and issues the token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MFALoginRequest		true	"User id and TOTP code"
//	@Success		200		{object}	domain.TokenPair	"Token pair"
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid code or unknown user"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/mfa [post].
func (h *AuthHandler) HandleMFALogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req MFALoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	pair, err := h.AuthService.VerifyMFALogin(ctx, req.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOTP),
			errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrMFANotEnabled):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_otp", "Invalid verification code")
		default:
			log.Error("mfa login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Refresh a token pair
//	@Description	Exchanges a valid refresh token for a fresh pair with roles re-read from the store.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest		true	"Refresh token"
//	@Success		200		{object}	domain.TokenPair	"Fresh token pair"
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid request body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired refresh token"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	pair, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "Invalid or expired refresh token")
			return
		}
		log.Error("refresh failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleForgotPassword handles POST /v1/auth/forgot-password
//
//	@Summary		Request a password reset
//	@Description	Issues a reset link by email. The response is identical whether or not the email is registered.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	MessageResponse			"Generic acknowledgement"
//	@Failure		400		{object}	httpx.ErrorResponse		"Invalid request body"
//	@Failure		500		{object}	httpx.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/forgot-password [post].
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.ResetService.RequestReset(ctx, req.Email); err != nil {
		log.Error("reset request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: resetAck})
}

// HandleResetPassword handles POST /v1/auth/reset-password
//
//	@Summary		Reset a password with a token
//	@Description	Consumes a reset token and sets the new password.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResetPasswordRequest	true	"Reset token and new password"
//	@Success		200		{object}	MessageResponse			"Password changed"
//	@Failure		400		{object}	httpx.ErrorResponse		"Invalid request or reset token"
//	@Failure		500		{object}	httpx.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/reset-password [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token and new_password are required")
		return
	}

	if err := h.ResetService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_reset_token", "Invalid or expired reset token")
			return
		}
		log.Error("password reset failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password has been reset."})
}

// OAuthHandler resolves provider callbacks into local sessions.
type OAuthHandler struct {
	AuthService *service.AuthService
}

// HandleCallback handles POST /v1/oauth/{provider}/callback
//
//	@Summary		Complete an OAuth login
//	@Description	Resolves a verified external profile to a local account, creating and linking as needed, and issues a token pair.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			provider	path		string					true	"Provider name (google, github)"
//	@Param			request		body		OAuthCallbackRequest	true	"Verified external profile"
//	@Success		200			{object}	domain.TokenPair		"Token pair"
//	@Failure		400			{object}	httpx.ErrorResponse		"Invalid request body or provider"
//	@Failure		500			{object}	httpx.ErrorResponse		"Internal server error"
//	@Router			/v1/oauth/{provider}/callback [post].
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	provider := r.PathValue("provider")
	if provider != domain.ProviderGoogle && provider != domain.ProviderGitHub {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_provider", "Unsupported provider")
		return
	}

	var req OAuthCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.ProviderID == "" || req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "provider_id and email are required")
		return
	}

	pair, err := h.AuthService.OAuthCallback(ctx, provider, domain.ExternalProfile{
		ID:       req.ProviderID,
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		log.Error("oauth callback failed", "provider", provider, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, pair)
}
