package sqlite

import (
	"context"

	"github.com/skyfleethq/identity/internal/identity/domain"
)

type oauthAccountsRepo struct {
	db dbtx
}

func (r *oauthAccountsRepo) GetByProvider(ctx context.Context, provider, providerID string) (domain.OAuthAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, user_id, created_at
		 FROM oauth_accounts WHERE provider = ? AND provider_id = ?`,
		provider, providerID)

	var a domain.OAuthAccount
	err := row.Scan(&a.ID, &a.Provider, &a.ProviderID, &a.UserID, &a.CreatedAt)
	if err != nil {
		return domain.OAuthAccount{}, mapNotFound(err)
	}
	return a, nil
}

func (r *oauthAccountsRepo) GetByUserAndProvider(ctx context.Context, userID, provider string) (domain.OAuthAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, user_id, created_at
		 FROM oauth_accounts WHERE user_id = ? AND provider = ?`,
		userID, provider)

	var a domain.OAuthAccount
	err := row.Scan(&a.ID, &a.Provider, &a.ProviderID, &a.UserID, &a.CreatedAt)
	if err != nil {
		return domain.OAuthAccount{}, mapNotFound(err)
	}
	return a, nil
}

func (r *oauthAccountsRepo) ListByUser(ctx context.Context, userID string) ([]domain.OAuthAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, provider, provider_id, user_id, created_at
		 FROM oauth_accounts WHERE user_id = ? ORDER BY provider`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.OAuthAccount
	for rows.Next() {
		var a domain.OAuthAccount
		if err := rows.Scan(&a.ID, &a.Provider, &a.ProviderID, &a.UserID, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *oauthAccountsRepo) Create(ctx context.Context, a domain.OAuthAccount) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oauth_accounts (id, provider, provider_id, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Provider, a.ProviderID, a.UserID, a.CreatedAt.UTC())
	return mapConflict(err)
}
