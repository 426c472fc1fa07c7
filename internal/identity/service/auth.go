package service

import (
	"context"
	"errors"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/cryptox"
	"github.com/skyfleethq/identity/pkg/idx"
	"github.com/skyfleethq/identity/pkg/slogx"

	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrUserExists         = errors.New("user_already_exists")
)

// AuthService orchestrates the credential, token, MFA, and linking flows.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	Linker *LinkerService
}

// Register creates a new account with the default role and signs the user
// in. Duplicate email or username is ErrUserExists.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (domain.User, *domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, nil, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUserExists
			}
			return err
		}

		role, err := tx.Roles().GetRoleByName(ctx, domain.DefaultRoleName)
		if err != nil {
			return err
		}
		return tx.Users().AssignRole(ctx, u.ID, role.ID)
	})
	if err != nil {
		return domain.User{}, nil, err
	}

	l.Info("user registered", "user_id", u.ID)

	pair, err := s.issueFor(ctx, u)
	if err != nil {
		return domain.User{}, nil, err
	}
	return u, pair, nil
}

// Login verifies email/password credentials. When the account has MFA
// enabled the result carries only the user id; no tokens are issued until
// the code is verified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if u.Status != domain.UserStatusActive {
		l.Info("login attempt on inactive account", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if u.MFAEnabled {
		l.Info("login pending mfa", "user_id", u.ID)
		return &domain.LoginResult{MFARequired: true, UserID: u.ID}, nil
	}

	pair, err := s.issueFor(ctx, u)
	if err != nil {
		return nil, err
	}

	l.Info("user logged in", "user_id", u.ID)
	return &domain.LoginResult{UserID: u.ID, Tokens: pair}, nil
}

// VerifyMFALogin completes a login held pending on MFA. The code is checked
// against the user's persistent TOTP secret.
func (s *AuthService) VerifyMFALogin(ctx context.Context, userID, code string) (*domain.TokenPair, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if u.Status != domain.UserStatusActive {
		slogx.FromContext(ctx).Info("mfa login attempt on inactive account", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	if !u.MFAEnabled || u.MFASecret == nil || *u.MFASecret == "" {
		return nil, ErrMFANotEnabled
	}

	if !totp.Validate(code, *u.MFASecret) {
		return nil, ErrInvalidOTP
	}

	slogx.FromContext(ctx).Info("mfa login verified", "user_id", u.ID)
	return s.issueFor(ctx, u)
}

// Refresh exchanges a valid refresh token for a fresh pair. Roles are
// re-read from the store, so role changes land on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.Tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if u.Status != domain.UserStatusActive {
		return nil, ErrInvalidRefresh
	}

	return s.issueFor(ctx, u)
}

// OAuthCallback resolves an external profile and signs the user in. The
// provider already authenticated the user, so the MFA gate does not apply.
func (s *AuthService) OAuthCallback(ctx context.Context, provider string, profile domain.ExternalProfile) (*domain.TokenPair, error) {
	u, err := s.Linker.Resolve(ctx, provider, profile)
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("oauth login", "user_id", u.ID, "provider", provider)
	return s.issueFor(ctx, u)
}

// Identity builds the claim value for a user with roles read from the store.
func (s *AuthService) Identity(ctx context.Context, u domain.User) (domain.Identity, error) {
	roles, err := s.Store.Users().ListUserRoles(ctx, u.ID)
	if err != nil {
		return domain.Identity{}, err
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}

	return domain.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  names,
	}, nil
}

func (s *AuthService) issueFor(ctx context.Context, u domain.User) (*domain.TokenPair, error) {
	id, err := s.Identity(ctx, u)
	if err != nil {
		return nil, err
	}
	return s.Tokens.IssuePair(id)
}
