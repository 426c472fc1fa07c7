package service

import (
	"context"
	"testing"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/internal/identity/store"

	"github.com/stretchr/testify/require"
)

func TestRoleAndPermissionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rbac := &RBACService{Store: s}

	role, err := rbac.CreateRole(ctx, "dispatcher", "Schedules missions")
	require.NoError(t, err)
	require.NotEmpty(t, role.ID)

	t.Run("duplicate role name", func(t *testing.T) {
		_, err := rbac.CreateRole(ctx, "dispatcher", "dup")
		require.ErrorIs(t, err, ErrRoleExists)
	})

	perm, err := rbac.CreatePermission(ctx, "missions.approve", "missions", "approve", "Approve mission plans")
	require.NoError(t, err)

	t.Run("duplicate permission name", func(t *testing.T) {
		_, err := rbac.CreatePermission(ctx, "missions.approve", "missions", "approve", "dup")
		require.ErrorIs(t, err, ErrPermissionExists)
	})

	t.Run("attach is idempotent", func(t *testing.T) {
		require.NoError(t, rbac.AttachPermission(ctx, role.ID, perm.ID))
		require.NoError(t, rbac.AttachPermission(ctx, role.ID, perm.ID))

		perms, err := rbac.ListRolePermissions(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, perms, 1)
	})

	t.Run("attach to missing role", func(t *testing.T) {
		err := rbac.AttachPermission(ctx, "missing", perm.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("detach is idempotent", func(t *testing.T) {
		require.NoError(t, rbac.DetachPermission(ctx, role.ID, perm.ID))
		require.NoError(t, rbac.DetachPermission(ctx, role.ID, perm.ID))

		perms, err := rbac.ListRolePermissions(ctx, role.ID)
		require.NoError(t, err)
		require.Empty(t, perms)
	})
}

func TestResolvePermissionsAndCan(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rbac := &RBACService{Store: s}

	u := seedUserWithPassword(t, s, "can@skyfleet.test", "canuser", "pw123456")

	pilots, err := rbac.CreateRole(ctx, "pilots", "")
	require.NoError(t, err)
	leads, err := rbac.CreateRole(ctx, "leads", "")
	require.NoError(t, err)

	fly, err := rbac.CreatePermission(ctx, "drones.fly", "drones", "fly", "")
	require.NoError(t, err)
	approve, err := rbac.CreatePermission(ctx, "missions.approve", "missions", "approve", "")
	require.NoError(t, err)

	require.NoError(t, rbac.AttachPermission(ctx, pilots.ID, fly.ID))
	require.NoError(t, rbac.AttachPermission(ctx, leads.ID, fly.ID))
	require.NoError(t, rbac.AttachPermission(ctx, leads.ID, approve.ID))

	require.NoError(t, rbac.AssignRole(ctx, u.ID, pilots.ID))
	require.NoError(t, rbac.AssignRole(ctx, u.ID, leads.ID))

	t.Run("union is duplicate free", func(t *testing.T) {
		perms, err := rbac.ResolvePermissions(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, perms, 2)
	})

	t.Run("can", func(t *testing.T) {
		ok, err := rbac.Can(ctx, u.ID, "drones", "fly")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = rbac.Can(ctx, u.ID, "drones", "sell")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("revocation takes effect immediately", func(t *testing.T) {
		require.NoError(t, rbac.RemoveRole(ctx, u.ID, leads.ID))

		ok, err := rbac.Can(ctx, u.ID, "missions", "approve")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestEnsureDefaultRoles(t *testing.T) {
	ctx := context.Background()

	// newTestStore already ran EnsureDefaultRoles once; a second run must be
	// a no-op.
	s := newTestStore(t)
	rbac := &RBACService{Store: s}
	require.NoError(t, rbac.EnsureDefaultRoles(ctx))

	roles, err := rbac.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	_, err = s.Roles().GetRoleByName(ctx, domain.DefaultRoleName)
	require.NoError(t, err)
}
