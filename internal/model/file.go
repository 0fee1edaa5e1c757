package model

import "time"

// FileRecord is the current-state metadata row for one logical file.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey always points at the blob holding the file's current content;
// historical content lives in VersionSnapshot rows.
type FileRecord struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	StorageKey    string    `json:"-"`
	DisplayName   string    `json:"original_filename"`
	SizeBytes     int64     `json:"file_size"`
	IsArchive     bool      `json:"is_archive"`
	UploadedAt    time.Time `json:"uploaded_at"`
}
