package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skyfleethq/identity/internal/identity/service"
	"github.com/skyfleethq/identity/pkg/httpx"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// UserHandler handles the authenticated account endpoints.
type UserHandler struct {
	UserService *service.UserService
	RBACService *service.RBACService
}

// HandleUserInfo handles GET /v1/userinfo
//
//	@Summary		Get the authenticated user's profile
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	UserInfoResponse	"Profile with current roles"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/userinfo [get].
func (h *UserHandler) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	u, err := h.UserService.Get(ctx, userID)
	if err != nil {
		log.Error("failed to load user", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	roles, err := h.RBACService.ListUserRoles(ctx, userID)
	if err != nil {
		log.Error("failed to load roles", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, UserInfoResponse{
		UserID:     u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Roles:      names,
		MFAEnabled: u.MFAEnabled,
	})
}

// HandleChangePassword handles POST /v1/users/password
//
//	@Summary		Change the authenticated user's password
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	MessageResponse			"Password changed"
//	@Failure		400		{object}	httpx.ErrorResponse		"Invalid request body"
//	@Failure		401		{object}	httpx.ErrorResponse		"Wrong current password"
//	@Failure		500		{object}	httpx.ErrorResponse		"Internal server error"
//	@Router			/v1/users/password [post].
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "current_password and new_password are required")
		return
	}

	if err := h.UserService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Current password is wrong")
			return
		}
		log.Error("change password failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password changed."})
}

// HandleDeleteAccount handles DELETE /v1/users/me
//
//	@Summary		Delete the authenticated user's account
//	@Description	Removes the account along with its role assignments and provider links.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse		"Account deleted"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/users/me [delete].
func (h *UserHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	if err := h.UserService.Delete(ctx, userID); err != nil {
		log.Error("account deletion failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted."})
}

// HandleLinkedAccounts handles GET /v1/users/me/linked-accounts
//
//	@Summary		List the authenticated user's OAuth provider links
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		domain.OAuthAccount	"Provider links"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/users/me/linked-accounts [get].
func (h *UserHandler) HandleLinkedAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing authenticated user")
		return
	}

	accounts, err := h.UserService.ListLinkedAccounts(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list linked accounts", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, accounts)
}
