package service

import (
	"context"
	"testing"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
	redisdriver "github.com/skyfleethq/identity/internal/identity/store/drivers/redis"
	"github.com/skyfleethq/identity/internal/identity/store/drivers/sqlite"
	"github.com/skyfleethq/identity/pkg/cryptox"
	"github.com/skyfleethq/identity/pkg/idx"
	"github.com/skyfleethq/identity/pkg/jwtx"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret-at-least-32-bytes!"

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())

	rbac := &RBACService{Store: s}
	require.NoError(t, rbac.EnsureDefaultRoles(context.Background()))
	return s
}

func newTestEphemeral(t *testing.T) (*redisdriver.Ephemeral, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	e := redisdriver.NewEphemeralFromClient(client)
	t.Cleanup(func() { _ = e.Close() })
	return e, mr
}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte(testSecret), "https://identity.skyfleet.test")
	require.NoError(t, err)

	return &TokenService{
		Signer:     signer,
		Issuer:     "https://identity.skyfleet.test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func seedUserWithPassword(t *testing.T, s *sqlite.Store, email, username, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))

	role, err := s.Roles().GetRoleByName(context.Background(), domain.DefaultRoleName)
	require.NoError(t, err)
	require.NoError(t, s.Users().AssignRole(context.Background(), u.ID, role.ID))

	return u
}
