package repository

import (
	"context"

	"vaultapi/internal/model"
)

// SortKey enumerates the whitelisted listing sort columns. The listing
// surface only ever passes one of these; arbitrary column names never reach
// the SQL layer.
type SortKey string

const (
	SortUploadedAt    SortKey = "uploaded_at"
	SortOwnerUsername SortKey = "owner_username"
	SortDisplayName   SortKey = "original_filename"
	SortSizeBytes     SortKey = "file_size"
)

// Ordering is a validated sort instruction.
type Ordering struct {
	Key  SortKey
	Desc bool
}

// Scope restricts a listing to a single owner unless All is set. The access
// policy is the only producer of Scope values.
type Scope struct {
	OwnerID string
	All     bool
}

// FileQuery combines scope, ordering and pagination for listings.
type FileQuery struct {
	Scope    Scope
	Ordering Ordering
	Page     PageQuery
}

// FileRepository defines data access for file records using SQL queries only.
// No business logic here — strictly persistence operations.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error)

	// FindByID returns a file record by its ID, with owner username joined in.
	FindByID(ctx context.Context, id string) (*model.FileRecord, error)

	// List returns file records matching the query plus a total count.
	List(ctx context.Context, q FileQuery) (*PageResult[model.FileRecord], error)

	// UpdateNameAndKey switches a record's display name and storage key in one
	// statement (rename protocol step 2).
	UpdateNameAndKey(ctx context.Context, id, displayName, storageKey string) error

	// UpdateCurrent points a record at new current content (new-version upload
	// and restore).
	UpdateCurrent(ctx context.Context, id, storageKey string, sizeBytes int64) error

	// Delete removes a file record; version snapshots cascade at the schema
	// level. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error
}
