package service

import (
	"context"
	"testing"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := &AuthService{Store: s, Tokens: newTestTokens(t), Linker: &LinkerService{Store: s}}

	u, pair, err := auth.Register(ctx, "operator@skyfleet.test", "operator", "correct horse battery")
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	t.Run("claims carry identity", func(t *testing.T) {
		claims, err := auth.Tokens.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)
		require.Equal(t, "operator@skyfleet.test", claims.Email)
		require.Equal(t, []string{domain.DefaultRoleName}, claims.Roles)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := auth.Register(ctx, "operator@skyfleet.test", "operator2", "pw")
		require.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("login round trip", func(t *testing.T) {
		res, err := auth.Login(ctx, "operator@skyfleet.test", "correct horse battery")
		require.NoError(t, err)
		require.False(t, res.MFARequired)
		require.NotNil(t, res.Tokens)
		require.Equal(t, u.ID, res.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(ctx, "operator@skyfleet.test", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Login(ctx, "ghost@skyfleet.test", "whatever")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginDisabledAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := &AuthService{Store: s, Tokens: newTestTokens(t)}

	u := seedUserWithPassword(t, s, "disabled@skyfleet.test", "disabled", "pw123456")

	disabled := u
	disabled.Status = domain.UserStatusDisabled
	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))
	require.NoError(t, s.Users().CreateUser(ctx, disabled))

	_, err := auth.Login(ctx, "disabled@skyfleet.test", "pw123456")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithMFAEnabled(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := &AuthService{Store: s, Tokens: newTestTokens(t)}

	u := seedUserWithPassword(t, s, "pilot@skyfleet.test", "pilot", "pw123456")

	mfa := &MFAService{Store: s, Issuer: "SkyFleet"}
	enrollment, err := mfa.Setup(ctx, u.ID)
	require.NoError(t, err)

	res, err := auth.Login(ctx, "pilot@skyfleet.test", "pw123456")
	require.NoError(t, err)
	require.True(t, res.MFARequired)
	require.Equal(t, u.ID, res.UserID)
	require.Nil(t, res.Tokens)

	t.Run("bad code", func(t *testing.T) {
		_, err := auth.VerifyMFALogin(ctx, u.ID, "000000")
		require.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("valid code issues tokens", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)

		pair, err := auth.VerifyMFALogin(ctx, u.ID, code)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
	})

	t.Run("mfa not enabled", func(t *testing.T) {
		other := seedUserWithPassword(t, s, "nomfa@skyfleet.test", "nomfa", "pw123456")
		_, err := auth.VerifyMFALogin(ctx, other.ID, "123456")
		require.ErrorIs(t, err, ErrMFANotEnabled)
	})
}

func TestVerifyMFALoginDisabledAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := &AuthService{Store: s, Tokens: newTestTokens(t)}

	u := seedUserWithPassword(t, s, "benched@skyfleet.test", "benched", "pw123456")

	mfa := &MFAService{Store: s, Issuer: "SkyFleet"}
	enrollment, err := mfa.Setup(ctx, u.ID)
	require.NoError(t, err)

	disabled, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	disabled.Status = domain.UserStatusDisabled
	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))
	require.NoError(t, s.Users().CreateUser(ctx, disabled))

	// A valid code must not complete login for an inactive account.
	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	_, err = auth.VerifyMFALogin(ctx, u.ID, code)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := &AuthService{Store: s, Tokens: newTestTokens(t)}

	seedUserWithPassword(t, s, "refresh@skyfleet.test", "refresher", "pw123456")

	res, err := auth.Login(ctx, "refresh@skyfleet.test", "pw123456")
	require.NoError(t, err)

	t.Run("valid refresh", func(t *testing.T) {
		pair, err := auth.Refresh(ctx, res.Tokens.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
	})

	t.Run("access token is also a valid refresh input only if unexpired and well formed", func(t *testing.T) {
		// Stateless refresh: any valid signed token for an existing user
		// refreshes. Garbage does not.
		_, err := auth.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		victim := seedUserWithPassword(t, s, "gone@skyfleet.test", "gone", "pw123456")
		login, err := auth.Login(ctx, "gone@skyfleet.test", "pw123456")
		require.NoError(t, err)

		require.NoError(t, s.Users().DeleteUser(ctx, victim.ID))

		_, err = auth.Refresh(ctx, login.Tokens.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestOAuthCallbackBypassesMFA(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	auth := &AuthService{Store: s, Tokens: newTestTokens(t), Linker: &LinkerService{Store: s}}

	u := seedUserWithPassword(t, s, "federated@skyfleet.test", "federated", "pw123456")

	mfa := &MFAService{Store: s, Issuer: "SkyFleet"}
	_, err := mfa.Setup(ctx, u.ID)
	require.NoError(t, err)

	pair, err := auth.OAuthCallback(ctx, domain.ProviderGoogle, domain.ExternalProfile{
		ID:    "google-sub-9",
		Email: "federated@skyfleet.test",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	claims, err := auth.Tokens.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
}
