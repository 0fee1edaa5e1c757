package postgres

import (
	"context"
	"database/sql"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
)

// VersionPostgres is a PostgreSQL implementation of
// repository.VersionRepository. The file_versions table carries a unique
// (file_id, version_number) constraint; this code only ever inserts.
type VersionPostgres struct {
	db *sql.DB
}

// NewVersionPostgres creates a new VersionPostgres repository.
func NewVersionPostgres(db *sql.DB) *VersionPostgres {
	return &VersionPostgres{db: db}
}

var _ repository.VersionRepository = (*VersionPostgres)(nil)

const versionColumns = `id, file_id, version_number, storage_key, display_name, size_bytes, restored_from_version, created_at`

// CreateSnapshot inserts one snapshot row and returns the stored record.
func (r *VersionPostgres) CreateSnapshot(ctx context.Context, snap *model.VersionSnapshot) (*model.VersionSnapshot, error) {
	const q = `
		INSERT INTO file_versions (file_id, version_number, storage_key, display_name, size_bytes, restored_from_version)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + versionColumns
	row := r.db.QueryRowContext(ctx, q,
		snap.FileID,
		snap.VersionNumber,
		snap.StorageKey,
		snap.DisplayName,
		snap.SizeBytes,
		snap.RestoredFromVersion,
	)
	var out model.VersionSnapshot
	if err := scanVersion(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NextVersionNumber returns max(version_number)+1, or 1 when the ledger is
// empty. Numbers are never reused, even if individual rows were removed out
// of band.
func (r *VersionPostgres) NextVersionNumber(ctx context.Context, fileID string) (int, error) {
	const q = `SELECT COALESCE(MAX(version_number), 0) + 1 FROM file_versions WHERE file_id = $1`
	var next int
	if err := r.db.QueryRowContext(ctx, q, fileID).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

// LatestVersion returns the highest version number, or 1 when no snapshot
// exists — records predating versioning are logically at version 1.
func (r *VersionPostgres) LatestVersion(ctx context.Context, fileID string) (int, error) {
	const q = `SELECT COALESCE(MAX(version_number), 1) FROM file_versions WHERE file_id = $1`
	var latest int
	if err := r.db.QueryRowContext(ctx, q, fileID).Scan(&latest); err != nil {
		return 0, err
	}
	return latest, nil
}

// ListByFile returns all snapshots for a file, newest first.
func (r *VersionPostgres) ListByFile(ctx context.Context, fileID string) ([]model.VersionSnapshot, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM file_versions
		WHERE file_id = $1
		ORDER BY version_number DESC
	`
	rows, err := r.db.QueryContext(ctx, q, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.VersionSnapshot, 0)
	for rows.Next() {
		var snap model.VersionSnapshot
		if err := scanVersion(rows, &snap); err != nil {
			return nil, err
		}
		items = append(items, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByNumber returns one snapshot by its version number.
func (r *VersionPostgres) FindByNumber(ctx context.Context, fileID string, number int) (*model.VersionSnapshot, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM file_versions
		WHERE file_id = $1 AND version_number = $2
	`
	row := r.db.QueryRowContext(ctx, q, fileID, number)
	var snap model.VersionSnapshot
	if err := scanVersion(row, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func scanVersion(row rowScanner, snap *model.VersionSnapshot) error {
	var restored sql.NullInt64
	if err := row.Scan(
		&snap.ID,
		&snap.FileID,
		&snap.VersionNumber,
		&snap.StorageKey,
		&snap.DisplayName,
		&snap.SizeBytes,
		&restored,
		&snap.CreatedAt,
	); err != nil {
		return err
	}
	if restored.Valid {
		n := int(restored.Int64)
		snap.RestoredFromVersion = &n
	}
	return nil
}
