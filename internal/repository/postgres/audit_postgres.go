package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of
// repository.AuditRepository. Entries keep a nullable user reference so the
// log survives account deletion.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// Record inserts one activity log entry.
func (r *AuditPostgres) Record(ctx context.Context, entry *model.ActivityLogEntry) error {
	const q = `
		INSERT INTO activity_log (user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, q, entry.UserID, string(entry.Action), entry.Details, entry.Timestamp)
	return err
}

// List returns entries matching the query plus a total count. The username
// join is LEFT so entries from deleted accounts still show up.
func (r *AuditPostgres) List(ctx context.Context, q repository.ActivityQuery) (*repository.PageResult[model.ActivityLogEntry], error) {
	where := ""
	args := []any{}
	if q.Username != "" {
		where = "WHERE LOWER(u.username) = LOWER($1)"
		args = append(args, q.Username)
	}

	qCount := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM activity_log a
		LEFT JOIN users u ON u.id = a.user_id
		%s
	`, where)
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	col := "a.created_at"
	if q.SortByUsername {
		col = "u.username"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	qList := fmt.Sprintf(`
		SELECT a.id, a.user_id, COALESCE(u.username, ''), a.action, a.details, a.created_at
		FROM activity_log a
		LEFT JOIN users u ON u.id = a.user_id
		%s
		ORDER BY %s %s, a.id DESC
		LIMIT $%d OFFSET $%d
	`, where, col, dir, len(args)+1, len(args)+2)
	args = append(args, q.Page.Limit, q.Page.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ActivityLogEntry, 0)
	for rows.Next() {
		var entry model.ActivityLogEntry
		var userID sql.NullString
		var action string
		if err := rows.Scan(&entry.ID, &userID, &entry.Username, &action, &entry.Details, &entry.Timestamp); err != nil {
			return nil, err
		}
		if userID.Valid {
			id := userID.String
			entry.UserID = &id
		}
		entry.Action = model.ActionKind(action)
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.ActivityLogEntry]{Items: items, Total: total}, nil
}
