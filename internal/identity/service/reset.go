package service

import (
	"context"
	"errors"
	"time"

	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/cryptox"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// DefaultResetTokenTTL is the absolute lifetime of a password-reset token.
const DefaultResetTokenTTL = time.Hour

var ErrInvalidResetToken = errors.New("invalid_reset_token")

// EmailSender delivers outbound mail. Delivery failures on reset requests
// are logged but never surfaced to the caller.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

// PasswordResetService runs the forgot/reset flow. Requests are
// enumeration-safe: an unknown email produces the same outcome as a known
// one. Tokens are single-use with an absolute expiry, and re-requesting
// overwrites any outstanding token.
type PasswordResetService struct {
	Store    store.Store
	Email    EmailSender
	AppURL   string
	TokenTTL time.Duration
}

func (s *PasswordResetService) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultResetTokenTTL
}

// RequestReset issues a reset token for the account holding this email and
// mails a reset link. Unknown emails succeed silently so callers cannot
// probe for registered accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}
	expiry := time.Now().UTC().Add(s.tokenTTL())

	if err := s.Store.Users().UpdateResetToken(ctx, u.ID, &token, &expiry); err != nil {
		return err
	}

	link := s.AppURL + "/reset-password?token=" + token
	if err := s.Email.SendPasswordReset(ctx, u.Email, link); err != nil {
		// The token is already persisted; the user can re-request.
		l.Warn("failed to send password reset email", "user_id", u.ID, "error", err)
	}

	// Log the fingerprint, never the token itself.
	l.Info("password reset token issued",
		"user_id", u.ID,
		"token_fp", cryptox.FingerprintToken(token))
	return nil
}

// ResetPassword consumes a reset token: the new hash is written and the
// token cleared in one transaction, so a token can never survive the
// password change. Expired, consumed, and unknown tokens are all
// ErrInvalidResetToken.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	now := time.Now().UTC()

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByResetToken(ctx, token, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}

		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			return err
		}
		return tx.Users().UpdateResetToken(ctx, u.ID, nil, nil)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset completed",
		"token_fp", cryptox.FingerprintToken(token))
	return nil
}
