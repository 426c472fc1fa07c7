package service

import (
	"context"
	"errors"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/slogx"

	"github.com/pquerna/otp/totp"
)

const (
	// DefaultChallengeTTL bounds how long an ephemeral step-up secret stays
	// valid. Redis enforces the expiry server-side.
	DefaultChallengeTTL = 5 * time.Minute

	mfaChallengeKeyPrefix = "mfa:"
)

var (
	ErrInvalidOTP       = errors.New("invalid_otp")
	ErrMFANotEnabled    = errors.New("mfa_not_enabled")
	ErrChallengeExpired = errors.New("mfa_challenge_expired")
)

// MFAService manages TOTP enrollment and verification. Enrollment persists
// the secret on the user record and enables MFA in the same write. The
// step-up variant parks a short-lived secret in the ephemeral store instead
// of touching the user row.
type MFAService struct {
	Store        store.Store
	Ephemeral    store.Ephemeral
	Issuer       string
	ChallengeTTL time.Duration
}

func (s *MFAService) challengeTTL() time.Duration {
	if s.ChallengeTTL > 0 {
		return s.ChallengeTTL
	}
	return DefaultChallengeTTL
}

// Setup generates a TOTP secret for the user, persists it, and enables MFA.
// The returned enrollment carries the otpauth:// URI for authenticator apps.
func (s *MFAService) Setup(ctx context.Context, userID string) (*domain.MFAEnrollment, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Store.Users().EnableMFA(ctx, u.ID, key.Secret()); err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("mfa enabled", "user_id", u.ID)

	return &domain.MFAEnrollment{
		Secret: key.Secret(),
		URI:    key.URL(),
	}, nil
}

// Verify checks a code against the user's persistent TOTP secret. The
// validator accepts one period of clock skew either side.
func (s *MFAService) Verify(ctx context.Context, userID, code string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !u.MFAEnabled || u.MFASecret == nil || *u.MFASecret == "" {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *u.MFASecret) {
		return ErrInvalidOTP
	}
	return nil
}

// Disable clears the user's TOTP secret and flag, and drops any pending
// step-up challenge.
func (s *MFAService) Disable(ctx context.Context, userID string) error {
	if err := s.Store.Users().DisableMFA(ctx, userID); err != nil {
		return err
	}

	if err := s.Ephemeral.Delete(ctx, mfaChallengeKeyPrefix+userID); err != nil {
		slogx.FromContext(ctx).Warn("failed to drop pending mfa challenge", "user_id", userID, "error", err)
	}

	slogx.FromContext(ctx).Info("mfa disabled", "user_id", userID)
	return nil
}

// StartChallenge issues a short-lived TOTP secret for a one-off step-up
// verification. The secret lives only in the ephemeral store; re-issuing
// overwrites the previous challenge.
func (s *MFAService) StartChallenge(ctx context.Context, userID string) (*domain.MFAEnrollment, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Ephemeral.Set(ctx, mfaChallengeKeyPrefix+u.ID, key.Secret(), s.challengeTTL()); err != nil {
		return nil, err
	}

	return &domain.MFAEnrollment{
		Secret: key.Secret(),
		URI:    key.URL(),
	}, nil
}

// VerifyChallenge checks a code against a pending step-up secret and
// consumes the challenge on success. A missing or expired challenge is
// ErrChallengeExpired, regardless of which it was.
func (s *MFAService) VerifyChallenge(ctx context.Context, userID, code string) error {
	secret, err := s.Ephemeral.Get(ctx, mfaChallengeKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeExpired
		}
		return err
	}

	if !totp.Validate(code, secret) {
		return ErrInvalidOTP
	}

	return s.Ephemeral.Delete(ctx, mfaChallengeKeyPrefix+userID)
}
