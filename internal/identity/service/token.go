package service

import (
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
	"github.com/skyfleethq/identity/pkg/jwtx"
)

// TokenService issues and verifies HS256 signed access/refresh pairs. Both
// tokens carry the same identity claims and differ only in lifetime; refresh
// is stateless, so nothing is persisted per pair.
type TokenService struct {
	Signer     *jwtx.HS256
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssuePair signs a fresh access and refresh token for the given identity.
func (s *TokenService) IssuePair(id domain.Identity) (*domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Signer.Sign(jwtx.NewClaims(id.UserID, id.Email, id.Roles, s.accessTTL(), s.Issuer, now))
	if err != nil {
		return nil, err
	}

	refresh, err := s.Signer.Sign(jwtx.NewClaims(id.UserID, id.Email, id.Roles, s.refreshTTL(), s.Issuer, now))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// Verify parses and validates a token, returning its claims.
func (s *TokenService) Verify(token string) (jwtx.Claims, error) {
	return s.Signer.Verify(token)
}
