package store

import (
	"context"
	"time"
)

// Ephemeral is a keyed store whose entries expire on their own. The backend
// enforces the TTL; callers never poll for expiry. Used for short-lived MFA
// challenge secrets.
type Ephemeral interface {
	// Set stores value under key for ttl. A second Set overwrites both the
	// value and the remaining lifetime.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value, or ErrNotFound once the entry expired or never
	// existed.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes the entry; deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	Close() error
}
