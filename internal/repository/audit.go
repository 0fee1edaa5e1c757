package repository

import (
	"context"

	"vaultapi/internal/model"
)

// ActivityQuery filters and orders the audit log listing.
type ActivityQuery struct {
	// Username filters entries to one account, matched case-insensitively.
	Username string
	// SortByUsername orders by acting username instead of timestamp.
	SortByUsername bool
	Desc           bool
	Page           PageQuery
}

// AuditRepository persists and lists activity log entries.
type AuditRepository interface {
	// Record inserts one entry. Callers treat failures as non-fatal.
	Record(ctx context.Context, entry *model.ActivityLogEntry) error

	// List returns entries matching the query plus a total count, joining the
	// acting username where the account still exists.
	List(ctx context.Context, q ActivityQuery) (*PageResult[model.ActivityLogEntry], error)
}

// UserDirectory resolves usernames to account IDs. Account management itself
// is external; the listing surface only needs the lookup.
type UserDirectory interface {
	// ResolveUsername returns the account ID for a username (case-insensitive
	// match). Returns sql.ErrNoRows-compatible errors when unknown.
	ResolveUsername(ctx context.Context, username string) (string, error)
}
