package domain

import "time"

// User statuses. Only active users may authenticate.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

type User struct {
	ID           string
	Email        string // unique
	Username     string // unique
	PasswordHash string // argon2id PHC string; random unusable hash for federated-only accounts
	Status       string

	MFAEnabled bool
	MFASecret  *string // base32 TOTP secret, present only while MFA is enabled

	// Reset token pair: both set or both nil. Cleared on consumption.
	ResetToken       *string
	ResetTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultRoleName is the role granted when registration or federated login
// does not specify one.
const DefaultRoleName = "drone_operator"
