package redis

import (
	"context"
	"testing"
	"time"

	"github.com/skyfleethq/identity/internal/identity/store"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestEphemeral(t *testing.T) (*Ephemeral, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	e := NewEphemeralFromClient(client)
	t.Cleanup(func() { _ = e.Close() })
	return e, mr
}

func TestEphemeralSetGet(t *testing.T) {
	e, _ := newTestEphemeral(t)
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "mfa:user-1", "JBSWY3DPEHPK3PXP", 5*time.Minute))

	val, err := e.Get(ctx, "mfa:user-1")
	require.NoError(t, err)
	require.Equal(t, "JBSWY3DPEHPK3PXP", val)
}

func TestEphemeralMissingKey(t *testing.T) {
	e, _ := newTestEphemeral(t)

	_, err := e.Get(context.Background(), "mfa:absent")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEphemeralExpiry(t *testing.T) {
	e, mr := newTestEphemeral(t)
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "mfa:user-2", "secret", 5*time.Minute))

	mr.FastForward(5*time.Minute + time.Second)

	_, err := e.Get(ctx, "mfa:user-2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEphemeralDelete(t *testing.T) {
	e, _ := newTestEphemeral(t)
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "mfa:user-3", "secret", time.Minute))
	require.NoError(t, e.Delete(ctx, "mfa:user-3"))

	_, err := e.Get(ctx, "mfa:user-3")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, e.Delete(ctx, "mfa:user-3"))
}
