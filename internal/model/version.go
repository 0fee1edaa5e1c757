package model

import "time"

// VersionSnapshot is an immutable historical record of a file's content at a
// point in time. Snapshots are append-only: version numbers per file form a
// dense sequence starting at 1 and are never reused.
//
// RestoredFromVersion is set only when the snapshot was produced by restoring
// an older version; restoring never rewrites history, it appends a new
// snapshot whose content matches the source version.
type VersionSnapshot struct {
	ID                  int64     `json:"-"`
	FileID              string    `json:"file_id"`
	VersionNumber       int       `json:"version_number"`
	StorageKey          string    `json:"-"`
	DisplayName         string    `json:"original_filename"`
	SizeBytes           int64     `json:"file_size"`
	RestoredFromVersion *int      `json:"restored_from_version,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}
