package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMFASetupAndVerify(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	eph, _ := newTestEphemeral(t)
	mfa := &MFAService{Store: s, Ephemeral: eph, Issuer: "SkyFleet"}

	u := seedUserWithPassword(t, s, "totp@skyfleet.test", "totpuser", "pw123456")

	enrollment, err := mfa.Setup(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.URI, "otpauth://totp/")
	require.Contains(t, enrollment.URI, "SkyFleet")

	t.Run("enrollment persists immediately", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.MFAEnabled)
		require.NotNil(t, got.MFASecret)
		require.Equal(t, enrollment.Secret, *got.MFASecret)
	})

	t.Run("valid code", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, mfa.Verify(ctx, u.ID, code))
	})

	t.Run("stale code outside skew window", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now().Add(-5*time.Minute))
		require.NoError(t, err)
		require.ErrorIs(t, mfa.Verify(ctx, u.ID, code), ErrInvalidOTP)
	})

	t.Run("garbage code", func(t *testing.T) {
		require.ErrorIs(t, mfa.Verify(ctx, u.ID, "000000"), ErrInvalidOTP)
	})

	t.Run("disable clears secret", func(t *testing.T) {
		require.NoError(t, mfa.Disable(ctx, u.ID))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.MFAEnabled)
		require.Nil(t, got.MFASecret)

		require.ErrorIs(t, mfa.Verify(ctx, u.ID, "123456"), ErrMFANotEnabled)
	})
}

func TestMFAStepUpChallenge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	eph, mr := newTestEphemeral(t)
	mfa := &MFAService{Store: s, Ephemeral: eph, Issuer: "SkyFleet"}

	u := seedUserWithPassword(t, s, "stepup@skyfleet.test", "stepup", "pw123456")

	enrollment, err := mfa.StartChallenge(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)

	t.Run("challenge does not touch the user row", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.MFAEnabled)
		require.Nil(t, got.MFASecret)
	})

	t.Run("wrong code leaves challenge pending", func(t *testing.T) {
		require.ErrorIs(t, mfa.VerifyChallenge(ctx, u.ID, "000000"), ErrInvalidOTP)
	})

	t.Run("valid code consumes the challenge", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)

		require.NoError(t, mfa.VerifyChallenge(ctx, u.ID, code))

		// Consumed: a second attempt with a fresh code fails.
		code, err = totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)
		require.ErrorIs(t, mfa.VerifyChallenge(ctx, u.ID, code), ErrChallengeExpired)
	})

	t.Run("expired challenge", func(t *testing.T) {
		enrollment, err := mfa.StartChallenge(ctx, u.ID)
		require.NoError(t, err)

		mr.FastForward(DefaultChallengeTTL + time.Second)

		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)
		require.ErrorIs(t, mfa.VerifyChallenge(ctx, u.ID, code), ErrChallengeExpired)
	})

	t.Run("re-issue overwrites pending challenge", func(t *testing.T) {
		first, err := mfa.StartChallenge(ctx, u.ID)
		require.NoError(t, err)
		second, err := mfa.StartChallenge(ctx, u.ID)
		require.NoError(t, err)
		require.NotEqual(t, first.Secret, second.Secret)

		code, err := totp.GenerateCode(first.Secret, time.Now())
		require.NoError(t, err)
		require.ErrorIs(t, mfa.VerifyChallenge(ctx, u.ID, code), ErrInvalidOTP)

		code, err = totp.GenerateCode(second.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, mfa.VerifyChallenge(ctx, u.ID, code))
	})
}
