package domain

import "time"

// TokenPair is what a successful authentication returns: two independently
// signed JWTs sharing the same claim payload, differing only in TTL. Neither
// is persisted.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}
