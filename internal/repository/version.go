package repository

import (
	"context"

	"vaultapi/internal/model"
)

// VersionRepository is the append-only version ledger. Snapshots are only
// ever inserted; no deletion API is exposed.
type VersionRepository interface {
	// CreateSnapshot persists a snapshot with an explicit version number and
	// returns the stored row. A unique (file_id, version_number) constraint
	// backs the never-reuse invariant.
	CreateSnapshot(ctx context.Context, snap *model.VersionSnapshot) (*model.VersionSnapshot, error)

	// NextVersionNumber returns max(version_number)+1 for the file, or 1 when
	// no snapshot exists yet.
	NextVersionNumber(ctx context.Context, fileID string) (int, error)

	// LatestVersion returns the highest version number, or 1 when the ledger
	// is empty — a file record always logically is at least version 1, for
	// records that predate versioning.
	LatestVersion(ctx context.Context, fileID string) (int, error)

	// ListByFile returns all snapshots for a file, newest first.
	ListByFile(ctx context.Context, fileID string) ([]model.VersionSnapshot, error)

	// FindByNumber returns one snapshot by its version number.
	FindByNumber(ctx context.Context, fileID string, number int) (*model.VersionSnapshot, error)
}
