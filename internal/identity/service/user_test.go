package service

import (
	"context"
	"testing"

	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/cryptox"

	"github.com/stretchr/testify/require"
)

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	users := &UserService{Store: s}

	u := seedUserWithPassword(t, s, "change@skyfleet.test", "changer", "old password")

	t.Run("wrong current password", func(t *testing.T) {
		err := users.ChangePassword(ctx, u.ID, "not it", "new password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("changes with correct current password", func(t *testing.T) {
		require.NoError(t, users.ChangePassword(ctx, u.ID, "old password", "new password"))

		got, err := users.Get(ctx, u.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("new password", got.PasswordHash))
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	users := &UserService{Store: s}

	u := seedUserWithPassword(t, s, "bye@skyfleet.test", "leaver", "pw123456")

	require.NoError(t, users.Delete(ctx, u.ID))

	_, err := users.Get(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, users.Delete(ctx, u.ID), store.ErrNotFound)
}
