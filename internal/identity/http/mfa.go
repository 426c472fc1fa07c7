package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skyfleethq/identity/internal/identity/service"
	"github.com/skyfleethq/identity/pkg/httpx"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// MFAHandler handles TOTP enrollment and step-up endpoints. All routes
// require an authenticated user.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleSetup handles POST /v1/mfa/setup
//
//	@Summary		Enroll in TOTP MFA
//	@Description	Generates and persists a TOTP secret for the authenticated user and enables MFA.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MFAEnrollResponse	"TOTP secret and otpauth URI"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/setup [post].
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	enrollment, err := h.MFAService.Setup(ctx, userID)
	if err != nil {
		log.Error("mfa setup failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, MFAEnrollResponse{
		Secret: enrollment.Secret,
		URI:    enrollment.URI,
	})
}

// HandleVerify handles POST /v1/mfa/verify
//
//	@Summary		Verify a TOTP code
//	@Description	Checks a code against the authenticated user's persistent TOTP secret.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MFACodeRequest		true	"TOTP code"
//	@Success		200		{object}	MessageResponse		"Code accepted"
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid code or MFA not enabled"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	var req MFACodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.MFAService.Verify(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOTP):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_otp", "Invalid verification code")
		case errors.Is(err, service.ErrMFANotEnabled):
			httpx.WriteError(w, http.StatusBadRequest, "mfa_not_enabled", "MFA is not enabled for this user")
		default:
			log.Error("mfa verify failed", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Code accepted."})
}

// HandleDisable handles DELETE /v1/mfa
//
//	@Summary		Disable MFA
//	@Description	Clears the authenticated user's TOTP secret and any pending step-up challenge.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"MFA disabled"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa [delete].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	if err := h.MFAService.Disable(ctx, userID); err != nil {
		log.Error("mfa disable failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "MFA disabled."})
}

// HandleStartChallenge handles POST /v1/mfa/challenge
//
//	@Summary		Start a step-up challenge
//	@Description	Issues a short-lived TOTP secret held server-side for five minutes.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MFAEnrollResponse	"Ephemeral secret and otpauth URI"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/challenge [post].
func (h *MFAHandler) HandleStartChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	enrollment, err := h.MFAService.StartChallenge(ctx, userID)
	if err != nil {
		log.Error("mfa challenge start failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, MFAEnrollResponse{
		Secret: enrollment.Secret,
		URI:    enrollment.URI,
	})
}

// HandleVerifyChallenge handles POST /v1/mfa/challenge/verify
//
//	@Summary		Verify a step-up challenge
//	@Description	Checks a code against the pending ephemeral secret and consumes the challenge.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MFACodeRequest		true	"TOTP code"
//	@Success		200		{object}	MessageResponse		"Challenge passed"
//	@Failure		400		{object}	httpx.ErrorResponse	"Invalid code"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		410		{object}	httpx.ErrorResponse	"Challenge expired or already consumed"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/challenge/verify [post].
func (h *MFAHandler) HandleVerifyChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	var req MFACodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.MFAService.VerifyChallenge(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeExpired):
			httpx.WriteError(w, http.StatusGone, "mfa_challenge_expired", "Challenge expired or already consumed")
		case errors.Is(err, service.ErrInvalidOTP):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_otp", "Invalid verification code")
		default:
			log.Error("mfa challenge verify failed", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Challenge passed."})
}
