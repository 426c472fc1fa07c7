package service

import (
	"context"
	"errors"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/cryptox"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// UserService covers account-level operations outside the login flows.
type UserService struct {
	Store store.Store
}

func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, email)
}

// ChangePassword replaces the user's password after verifying the current
// one. A wrong current password is ErrInvalidCredentials.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", "user_id", userID)
	return nil
}

// Delete removes the account. Role assignments and provider links go with it.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user deleted", "user_id", userID)
	return nil
}

// ListLinkedAccounts returns the user's OAuth provider links.
func (s *UserService) ListLinkedAccounts(ctx context.Context, userID string) ([]domain.OAuthAccount, error) {
	return s.Store.OAuthAccounts().ListByUser(ctx, userID)
}
