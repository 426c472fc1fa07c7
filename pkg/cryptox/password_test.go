package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Run("round trip verifies", func(t *testing.T) {
		hash, err := HashPassword("Secret123!")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

		require.NoError(t, VerifyPassword("Secret123!", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		hash, err := HashPassword("Secret123!")
		require.NoError(t, err)

		require.ErrorIs(t, VerifyPassword("secret123!", hash), ErrPasswordMismatch)
	})

	t.Run("equal plaintexts produce distinct hashes", func(t *testing.T) {
		h1, err := HashPassword("same-password")
		require.NoError(t, err)
		h2, err := HashPassword("same-password")
		require.NoError(t, err)

		require.NotEqual(t, h1, h2)
		require.NoError(t, VerifyPassword("same-password", h1))
		require.NoError(t, VerifyPassword("same-password", h2))
	})

	t.Run("empty password still hashes", func(t *testing.T) {
		hash, err := HashPassword("")
		require.NoError(t, err)
		require.NoError(t, VerifyPassword("", hash))
		require.Error(t, VerifyPassword("x", hash))
	})
}

func TestVerifyPasswordMalformedHashes(t *testing.T) {
	cases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA"},
		{"missing sections", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyPassword("whatever", tc.hash)
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrPasswordMismatch)
		})
	}
}

func TestPepperChangesHashOutcome(t *testing.T) {
	// Not parallel: mutates process-wide pepper.
	t.Cleanup(func() { SetPepper("") })

	SetPepper("pepper-a")
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, VerifyPassword("hunter2", hash))

	SetPepper("pepper-b")
	require.ErrorIs(t, VerifyPassword("hunter2", hash), ErrPasswordMismatch)
}
