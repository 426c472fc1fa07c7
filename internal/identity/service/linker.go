package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/cryptox"
	"github.com/skyfleethq/identity/pkg/idx"
	"github.com/skyfleethq/identity/pkg/slogx"
)

// LinkerService resolves an external OAuth profile to a local user. The
// provider link is an explicit row keyed (provider, provider_id); accounts
// are matched to existing users by email, and new users are created with an
// unusable random password and the default role.
type LinkerService struct {
	Store store.Store
}

// Resolve finds or creates the local user for an external profile. The whole
// resolution runs in one transaction. Concurrent callbacks for the same
// external identity race on the unique link index; the loser re-reads the
// winner's row.
func (s *LinkerService) Resolve(ctx context.Context, provider string, profile domain.ExternalProfile) (domain.User, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	// Fast path: the link row already exists.
	if acc, err := s.Store.OAuthAccounts().GetByProvider(ctx, provider, profile.ID); err == nil {
		return s.Store.Users().GetUserByID(ctx, acc.UserID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	var resolved domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			// Existing account. A user holds at most one link per provider;
			// if one exists already it belongs to a different subject and the
			// sign-in resolves to the user without writing anything.
			_, linkErr := tx.OAuthAccounts().GetByUserAndProvider(ctx, u.ID, provider)
			if linkErr == nil {
				resolved = u
				return nil
			}
			if !errors.Is(linkErr, store.ErrNotFound) {
				return linkErr
			}
		case errors.Is(err, store.ErrNotFound):
			u, err = s.createFederatedUser(ctx, tx, profile, now)
			if err != nil {
				return err
			}
			l.Info("created user from oauth profile", "user_id", u.ID, "provider", provider)
		default:
			return err
		}

		err = tx.OAuthAccounts().Create(ctx, domain.OAuthAccount{
			ID:         idx.New().String(),
			Provider:   provider,
			ProviderID: profile.ID,
			UserID:     u.ID,
			CreatedAt:  now,
		})
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return err
		}

		resolved = u
		return nil
	})
	if err != nil {
		// A concurrent callback may have created the link first; the unique
		// index makes the re-read safe.
		if errors.Is(err, store.ErrAlreadyExists) {
			if acc, lookupErr := s.Store.OAuthAccounts().GetByProvider(ctx, provider, profile.ID); lookupErr == nil {
				return s.Store.Users().GetUserByID(ctx, acc.UserID)
			}
		}
		return domain.User{}, err
	}

	return resolved, nil
}

func (s *LinkerService) createFederatedUser(ctx context.Context, tx store.Tx, profile domain.ExternalProfile, now time.Time) (domain.User, error) {
	// Federated users never log in with a password; hash random bytes so the
	// column holds a valid but unguessable value.
	random, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.User{}, err
	}
	hash, err := cryptox.HashPassword(random)
	if err != nil {
		return domain.User{}, err
	}

	username := profile.Username
	if username == "" {
		username = usernameFromEmail(profile.Email)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        profile.Email,
		Username:     username,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}

	role, err := tx.Roles().GetRoleByName(ctx, domain.DefaultRoleName)
	if err != nil {
		return domain.User{}, err
	}
	if err := tx.Users().AssignRole(ctx, u.ID, role.ID); err != nil {
		return domain.User{}, err
	}

	return u, nil
}

func usernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
