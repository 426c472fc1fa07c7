package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrInvalidKey  = errors.New("jwtx: invalid signing key")
)

// DefaultLeeway tolerates small clock drift between services when validating
// exp/nbf.
const DefaultLeeway = 30 * time.Second

// HS256 signs and verifies tokens with a single symmetric secret shared
// process-wide. There is no kid/rotation machinery: every token issued by
// this service verifies against the same key.
type HS256 struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewHS256 builds a signer/verifier from the configured secret. The secret
// must be at least 32 bytes; shorter HMAC keys undercut the hash strength.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("%w: secret must be at least 32 bytes, got %d", ErrInvalidKey, len(secret))
	}
	return &HS256{
		secret: secret,
		issuer: issuer,
		leeway: DefaultLeeway,
	}, nil
}

// Sign produces a compact HS256 JWT from the claims.
func (s *HS256) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Verify parses and validates a token, returning its claims.
//
// Errors are normalized so callers can distinguish "expired" from every
// other failure mode: an expired-but-authentic token maps to ErrExpired,
// anything unverifiable maps to ErrMalformed/ErrInvalidSig/ErrIssuer.
func (s *HS256) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return Claims{}, ErrIssuer
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	return claims, nil
}
