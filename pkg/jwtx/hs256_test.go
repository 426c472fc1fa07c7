package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testIssuer = "identity-test"

func testSigner(t *testing.T) *HS256 {
	t.Helper()
	s, err := NewHS256([]byte("0123456789abcdef0123456789abcdef"), testIssuer)
	require.NoError(t, err)
	return s
}

func TestNewHS256RejectsShortSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewHS256([]byte("too-short"), testIssuer)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	now := time.Now()

	claims := NewClaims("user-1", "a@x.com", []string{"admin", "drone_operator"}, time.Minute, testIssuer, now)
	token, err := s.Sign(claims)
	require.NoError(t, err)

	got, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "a@x.com", got.Email)
	require.Equal(t, []string{"admin", "drone_operator"}, got.Roles)
	require.Equal(t, testIssuer, got.Issuer)
	require.NotEmpty(t, got.ID)
}

func TestVerifyExpiredToken(t *testing.T) {
	t.Parallel()

	s := testSigner(t)

	// Issued in the past with a TTL already elapsed, beyond the leeway.
	issued := time.Now().Add(-time.Hour)
	claims := NewClaims("user-1", "a@x.com", nil, time.Minute, testIssuer, issued)
	token, err := s.Sign(claims)
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	claims := NewClaims("user-1", "a@x.com", nil, time.Minute, testIssuer, time.Now())
	token, err := s.Sign(claims)
	require.NoError(t, err)

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = s.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	other, err := NewHS256([]byte("ffffffffffffffffffffffffffffffff"), testIssuer)
	require.NoError(t, err)

	token, err := s.Sign(NewClaims("user-1", "a@x.com", nil, time.Minute, testIssuer, time.Now()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	for _, in := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := s.Verify(in)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrExpired)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	s := testSigner(t)
	foreign, err := NewHS256([]byte("0123456789abcdef0123456789abcdef"), "other-issuer")
	require.NoError(t, err)

	token, err := foreign.Sign(NewClaims("user-1", "a@x.com", nil, time.Minute, "other-issuer", time.Now()))
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}
