package store

import (
	"context"
	"errors"
	"time"

	"github.com/skyfleethq/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable. Single
// operations are atomic on their own; anything that must change multiple
// entities together goes through WithTx.
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	OAuthAccounts() OAuthAccounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle multi-step mutations (reset-token
	// consumption, federated identity resolution).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is the login and reset-request lookup.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByResetToken returns the user holding this reset token with an
	// expiry strictly after now. An expired match is ErrNotFound, same as no
	// match at all.
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Duplicate email or username is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2id) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateResetToken sets, or with (nil, nil) clears, the reset token and
	// its expiry as one write. The pair never changes half-way.
	UpdateResetToken(ctx context.Context, userID string, token *string, expiry *time.Time) error

	// EnableMFA stores the TOTP secret and flips the MFA flag.
	EnableMFA(ctx context.Context, userID string, secret string) error

	// DisableMFA clears the flag and the secret.
	DisableMFA(ctx context.Context, userID string) error

	// DeleteUser cascades to role assignments and oauth accounts (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// AssignRole links a role to a user; already-assigned is a no-op.
	AssignRole(ctx context.Context, userID, roleID string) error

	// RemoveRole unlinks a role; not-assigned is a no-op.
	RemoveRole(ctx context.Context, userID, roleID string) error

	// ListUserRoles returns the user's roles in no particular order.
	ListUserRoles(ctx context.Context, userID string) ([]domain.Role, error)

	// ListUserPermissions returns the distinct union of permissions across
	// all of the user's roles.
	ListUserPermissions(ctx context.Context, userID string) ([]domain.Permission, error)
}

type Roles interface {
	// CreateRole inserts a new role. Duplicate name is ErrAlreadyExists.
	CreateRole(ctx context.Context, r domain.Role) error

	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by its unique name (default-role lookups).
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	ListAll(ctx context.Context) ([]domain.Role, error)

	// AttachPermission links a permission to a role. Re-attaching an
	// already-attached permission is a no-op.
	AttachPermission(ctx context.Context, roleID, permissionID string) error

	// DetachPermission unlinks a permission. Detaching a permission that was
	// never attached is a no-op.
	DetachPermission(ctx context.Context, roleID, permissionID string) error

	ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error)

	DeleteRole(ctx context.Context, roleID string) error
}

type Permissions interface {
	// CreatePermission inserts a new permission. Duplicate name is ErrAlreadyExists.
	CreatePermission(ctx context.Context, p domain.Permission) error

	GetPermissionByID(ctx context.Context, id string) (domain.Permission, error)

	GetPermissionByName(ctx context.Context, name string) (domain.Permission, error)

	ListAll(ctx context.Context) ([]domain.Permission, error)

	DeletePermission(ctx context.Context, permissionID string) error
}

type OAuthAccounts interface {
	// GetByProvider fetches the link row for a (provider, providerID) pair.
	GetByProvider(ctx context.Context, provider, providerID string) (domain.OAuthAccount, error)

	// GetByUserAndProvider fetches a user's link row for one provider. A user
	// holds at most one link per provider.
	GetByUserAndProvider(ctx context.Context, userID, provider string) (domain.OAuthAccount, error)

	// ListByUser returns every provider link a user holds.
	ListByUser(ctx context.Context, userID string) ([]domain.OAuthAccount, error)

	// Create inserts a link row. A duplicate (provider, providerID) or
	// (userID, provider) pair is ErrAlreadyExists; the unique indexes are
	// what make concurrent callbacks for the same external identity safe.
	Create(ctx context.Context, a domain.OAuthAccount) error
}
