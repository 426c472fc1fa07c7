package http

import "github.com/skyfleethq/identity/internal/identity/domain"

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries either a token pair or an MFA continuation.
type LoginResponse struct {
	MFARequired bool              `json:"mfa_required,omitempty"`
	UserID      string            `json:"user_id,omitempty"`
	Tokens      *domain.TokenPair `json:"tokens,omitempty"`
}

type MFALoginRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type MFACodeRequest struct {
	Code string `json:"code"`
}

type MFAEnrollResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

type OAuthCallbackRequest struct {
	ProviderID string `json:"provider_id"`
	Email      string `json:"email"`
	Username   string `json:"username,omitempty"`
}

type CreateRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreatePermissionRequest struct {
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

type UserInfoResponse struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	Username   string   `json:"username"`
	Roles      []string `json:"roles"`
	MFAEnabled bool     `json:"mfa_enabled"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
