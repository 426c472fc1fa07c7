package sqlite

import (
	"context"
	"database/sql"

	"github.com/skyfleethq/identity/internal/identity/store"
)

// txStore is a transaction-scoped Store. All repos share the same *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) Roles() store.Roles                 { return &rolesRepo{db: t.tx} }
func (t *txStore) Permissions() store.Permissions     { return &permissionsRepo{db: t.tx} }
func (t *txStore) OAuthAccounts() store.OAuthAccounts { return &oauthAccountsRepo{db: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Nested transactions are not supported by sqlite's driver.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

// ApplyMigrations is only meaningful on the root store.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Close() error { return t.tx.Rollback() }

func (t *txStore) Ping(ctx context.Context) error { return nil }
