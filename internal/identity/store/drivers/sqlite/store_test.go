package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email, username string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedRole(t *testing.T, s *Store, name string) domain.Role {
	t.Helper()

	now := time.Now().UTC()
	r := domain.Role{
		ID:        idx.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Roles().CreateRole(context.Background(), r))
	return r
}

func seedPermission(t *testing.T, s *Store, name, resource, action string) domain.Permission {
	t.Helper()

	now := time.Now().UTC()
	p := domain.Permission{
		ID:        idx.New().String(),
		Name:      name,
		Resource:  resource,
		Action:    action,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Permissions().CreatePermission(context.Background(), p))
	return p
}

func TestUsersUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "pilot@skyfleet.test", "pilot")

	t.Run("duplicate email", func(t *testing.T) {
		now := time.Now().UTC()
		err := s.Users().CreateUser(ctx, domain.User{
			ID:           idx.New().String(),
			Email:        "pilot@skyfleet.test",
			Username:     "other",
			PasswordHash: "x",
			Status:       domain.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		now := time.Now().UTC()
		err := s.Users().CreateUser(ctx, domain.User{
			ID:           idx.New().String(),
			Email:        "other@skyfleet.test",
			Username:     "pilot",
			PasswordHash: "x",
			Status:       domain.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestResetTokenLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "reset@skyfleet.test", "resetter")

	token := "reset-token-value"
	expiry := time.Now().UTC().Add(time.Hour)
	require.NoError(t, s.Users().UpdateResetToken(ctx, u.ID, &token, &expiry))

	t.Run("valid token resolves", func(t *testing.T) {
		got, err := s.Users().GetUserByResetToken(ctx, token, time.Now().UTC())
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("expired token is not found", func(t *testing.T) {
		_, err := s.Users().GetUserByResetToken(ctx, token, expiry.Add(time.Second))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("cleared token is not found", func(t *testing.T) {
		require.NoError(t, s.Users().UpdateResetToken(ctx, u.ID, nil, nil))

		_, err := s.Users().GetUserByResetToken(ctx, token, time.Now().UTC())
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Nil(t, got.ResetToken)
		require.Nil(t, got.ResetTokenExpiry)
	})

	t.Run("unknown user", func(t *testing.T) {
		tok := "x"
		err := s.Users().UpdateResetToken(ctx, "missing", &tok, &expiry)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestMFAColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "mfa@skyfleet.test", "mfauser")

	require.NoError(t, s.Users().EnableMFA(ctx, u.ID, "JBSWY3DPEHPK3PXP"))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.MFAEnabled)
	require.NotNil(t, got.MFASecret)
	require.Equal(t, "JBSWY3DPEHPK3PXP", *got.MFASecret)

	require.NoError(t, s.Users().DisableMFA(ctx, u.ID))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.MFAEnabled)
	require.Nil(t, got.MFASecret)
}

func TestRoleAssignmentIdempotency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "roles@skyfleet.test", "roleuser")
	role := seedRole(t, s, "fleet_manager")

	require.NoError(t, s.Users().AssignRole(ctx, u.ID, role.ID))
	require.NoError(t, s.Users().AssignRole(ctx, u.ID, role.ID))

	roles, err := s.Users().ListUserRoles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	require.NoError(t, s.Users().RemoveRole(ctx, u.ID, role.ID))
	require.NoError(t, s.Users().RemoveRole(ctx, u.ID, role.ID))

	roles, err = s.Users().ListUserRoles(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestListUserPermissionsDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "perms@skyfleet.test", "permuser")
	roleA := seedRole(t, s, "role_a")
	roleB := seedRole(t, s, "role_b")

	shared := seedPermission(t, s, "missions.read", "missions", "read")
	only := seedPermission(t, s, "missions.write", "missions", "write")

	require.NoError(t, s.Roles().AttachPermission(ctx, roleA.ID, shared.ID))
	require.NoError(t, s.Roles().AttachPermission(ctx, roleB.ID, shared.ID))
	require.NoError(t, s.Roles().AttachPermission(ctx, roleB.ID, only.ID))

	require.NoError(t, s.Users().AssignRole(ctx, u.ID, roleA.ID))
	require.NoError(t, s.Users().AssignRole(ctx, u.ID, roleB.ID))

	perms, err := s.Users().ListUserPermissions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, perms, 2)
}

func TestPermissionDetachIdempotency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	role := seedRole(t, s, "detacher")
	perm := seedPermission(t, s, "drones.read", "drones", "read")

	require.NoError(t, s.Roles().AttachPermission(ctx, role.ID, perm.ID))
	require.NoError(t, s.Roles().AttachPermission(ctx, role.ID, perm.ID))

	perms, err := s.Roles().ListRolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)

	require.NoError(t, s.Roles().DetachPermission(ctx, role.ID, perm.ID))
	require.NoError(t, s.Roles().DetachPermission(ctx, role.ID, perm.ID))

	perms, err = s.Roles().ListRolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestOAuthAccountUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "oauth@skyfleet.test", "oauthuser")

	acc := domain.OAuthAccount{
		ID:         idx.New().String(),
		Provider:   domain.ProviderGoogle,
		ProviderID: "google-sub-1",
		UserID:     u.ID,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.OAuthAccounts().Create(ctx, acc))

	dup := acc
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.OAuthAccounts().Create(ctx, dup), store.ErrAlreadyExists)

	// One link per provider per user, even under a fresh subject.
	other := acc
	other.ID = idx.New().String()
	other.ProviderID = "google-sub-2"
	require.ErrorIs(t, s.OAuthAccounts().Create(ctx, other), store.ErrAlreadyExists)

	got, err := s.OAuthAccounts().GetByProvider(ctx, domain.ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)

	byUser, err := s.OAuthAccounts().GetByUserAndProvider(ctx, u.ID, domain.ProviderGoogle)
	require.NoError(t, err)
	require.Equal(t, "google-sub-1", byUser.ProviderID)

	_, err = s.OAuthAccounts().GetByUserAndProvider(ctx, u.ID, domain.ProviderGitHub)
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.OAuthAccounts().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteUserCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "cascade@skyfleet.test", "cascadeuser")
	role := seedRole(t, s, "cascade_role")
	require.NoError(t, s.Users().AssignRole(ctx, u.ID, role.ID))
	require.NoError(t, s.OAuthAccounts().Create(ctx, domain.OAuthAccount{
		ID:         idx.New().String(),
		Provider:   domain.ProviderGitHub,
		ProviderID: "gh-1",
		UserID:     u.ID,
		CreatedAt:  time.Now().UTC(),
	}))

	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))

	_, err := s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.OAuthAccounts().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = s.OAuthAccounts().GetByProvider(ctx, domain.ProviderGitHub, "gh-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "tx@skyfleet.test", "txuser")

	boom := store.ErrNotFound
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
}
