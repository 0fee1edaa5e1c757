package postgres

import (
	"context"
	"database/sql"

	"vaultapi/internal/repository"
)

// UserPostgres implements repository.UserDirectory over the users table.
// Account management itself lives outside this service; only the lookup is
// needed here.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres directory.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserDirectory = (*UserPostgres)(nil)

// ResolveUsername returns the account ID for a username, matched
// case-insensitively.
func (r *UserPostgres) ResolveUsername(ctx context.Context, username string) (string, error) {
	const q = `SELECT id FROM users WHERE LOWER(username) = LOWER($1)`
	var id string
	if err := r.db.QueryRowContext(ctx, q, username).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
