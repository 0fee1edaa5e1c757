package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business
// logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `f.id, f.owner_id, u.username, f.storage_key, f.display_name, f.size_bytes, f.is_archive, f.uploaded_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	const q = `
		INSERT INTO files (id, owner_id, storage_key, display_name, size_bytes, is_archive, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, owner_id, storage_key, display_name, size_bytes, is_archive, uploaded_at
	`
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.OwnerID,
		rec.StorageKey,
		rec.DisplayName,
		rec.SizeBytes,
		rec.IsArchive,
		rec.UploadedAt,
	)
	var out model.FileRecord
	if err := row.Scan(
		&out.ID,
		&out.OwnerID,
		&out.StorageKey,
		&out.DisplayName,
		&out.SizeBytes,
		&out.IsArchive,
		&out.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single file by its ID, owner username included.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.FileRecord, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM files f
		JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1
	`, fileColumns)
	row := r.db.QueryRowContext(ctx, q, id)
	var rec model.FileRecord
	if err := scanFile(row, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns files matching the query using LIMIT/OFFSET pagination plus a
// total count. The ORDER BY column comes from a fixed whitelist, never from
// caller input.
func (r *FilePostgres) List(ctx context.Context, q repository.FileQuery) (*repository.PageResult[model.FileRecord], error) {
	where := ""
	args := []any{}
	if !q.Scope.All {
		where = "WHERE f.owner_id = $1"
		args = append(args, q.Scope.OwnerID)
	}

	qCount := fmt.Sprintf(`SELECT COUNT(*) FROM files f %s`, where)
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`
		SELECT %s
		FROM files f
		JOIN users u ON u.id = f.owner_id
		%s
		ORDER BY %s, f.id DESC
		LIMIT $%d OFFSET $%d
	`, fileColumns, where, orderClause(q.Ordering), len(args)+1, len(args)+2)
	args = append(args, q.Page.Limit, q.Page.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FileRecord, 0)
	for rows.Next() {
		var rec model.FileRecord
		if err := scanFile(rows, &rec); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.FileRecord]{Items: items, Total: total}, nil
}

// UpdateNameAndKey switches display name and storage key in one statement.
func (r *FilePostgres) UpdateNameAndKey(ctx context.Context, id, displayName, storageKey string) error {
	const q = `UPDATE files SET display_name = $2, storage_key = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, displayName, storageKey)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateCurrent points a record at new current content.
func (r *FilePostgres) UpdateCurrent(ctx context.Context, id, storageKey string, sizeBytes int64) error {
	const q = `UPDATE files SET storage_key = $2, size_bytes = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, storageKey, sizeBytes)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a file row; file_versions rows cascade at the schema level.
// It does not return an error if the row does not exist.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner, rec *model.FileRecord) error {
	return row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.OwnerUsername,
		&rec.StorageKey,
		&rec.DisplayName,
		&rec.SizeBytes,
		&rec.IsArchive,
		&rec.UploadedAt,
	)
}

// orderClause maps the whitelisted sort keys onto concrete columns.
func orderClause(o repository.Ordering) string {
	col := "f.uploaded_at"
	switch o.Key {
	case repository.SortOwnerUsername:
		col = "u.username"
	case repository.SortDisplayName:
		col = "f.display_name"
	case repository.SortSizeBytes:
		col = "f.size_bytes"
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return col + " " + dir
}
