package domain

import "time"

// Known federated providers.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// OAuthAccount links a federated identity to a local user. The pair
// (Provider, ProviderID) is globally unique, and a user holds at most one
// account per provider.
type OAuthAccount struct {
	ID         string
	Provider   string
	ProviderID string
	UserID     string
	CreatedAt  time.Time
}

// ExternalProfile is the provider-asserted identity handed to the linker by
// the OAuth callback boundary.
type ExternalProfile struct {
	ID       string // provider-assigned id
	Email    string
	Username string
}
