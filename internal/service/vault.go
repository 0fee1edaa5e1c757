package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
	"vaultapi/internal/storage"
)

// SignedLink is a time-limited URL granting direct access to a blob. No
// bytes pass through this process for view/download; the URL points at the
// blob backend itself.
type SignedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VersionListResult is the service-level DTO for a file's version history.
type VersionListResult struct {
	Items         []model.VersionSnapshot `json:"data"`
	LatestVersion int                     `json:"latest_version"`
}

// VaultOptions tune operational limits.
type VaultOptions struct {
	// URLTTL is the lifetime of signed view/download URLs.
	URLTTL time.Duration
	// MaxArchiveEntries caps how many members a single ZIP may carry.
	MaxArchiveEntries int
	// MaxArchiveBytes caps the total uncompressed size extracted per ZIP.
	MaxArchiveBytes int64
}

// VaultService defines the file vault use cases. Every operation takes the
// authenticated principal and enforces the access policy before touching
// state; HTTP concerns stay out of this layer.
type VaultService interface {
	// Upload stores a non-archive file: blob first, then metadata and a
	// version-1 snapshot. A failed metadata write deletes the orphaned blob
	// before the error is returned.
	Upload(ctx context.Context, principal model.Principal, filename string, r io.Reader, size int64) (*model.FileRecord, error)

	// IngestArchive extracts a ZIP and stores each member as an independent
	// file. Entry failures are logged and skipped; they never abort the rest
	// of the archive.
	IngestArchive(ctx context.Context, principal model.Principal, archiveName string, r io.Reader, size int64) (*ArchiveResult, error)

	// UploadVersion stores new content for an existing file and appends a
	// snapshot to its ledger.
	UploadVersion(ctx context.Context, principal model.Principal, fileID string, r io.Reader, size int64) (*model.FileRecord, error)

	// Get returns a single file record, authorized.
	Get(ctx context.Context, principal model.Principal, fileID string) (*model.FileRecord, error)

	// List returns the file records visible to the principal.
	List(ctx context.Context, principal model.Principal, f ListFilters) (*FileListResult, error)

	// Rename changes a file's display name and moves its blob to the
	// matching key: copy, switch metadata, then delete the old blob.
	Rename(ctx context.Context, principal model.Principal, fileID, newName string) (*model.FileRecord, error)

	// Delete removes the blob first and the metadata second; a failed blob
	// delete leaves the record in place and surfaces the error.
	Delete(ctx context.Context, principal model.Principal, fileID string) error

	// DownloadURL mints a signed URL forcing attachment disposition.
	DownloadURL(ctx context.Context, principal model.Principal, fileID string) (*SignedLink, error)

	// ViewURL mints a signed URL with inline disposition.
	ViewURL(ctx context.Context, principal model.Principal, fileID string) (*SignedLink, error)

	// ListVersions returns a file's snapshot history, newest first.
	ListVersions(ctx context.Context, principal model.Principal, fileID string) (*VersionListResult, error)

	// RestoreVersion appends a new latest snapshot whose content matches the
	// given older version and points the record at it.
	RestoreVersion(ctx context.Context, principal model.Principal, fileID string, number int) (*model.VersionSnapshot, error)

	// ListActivity returns audit log entries; staff only.
	ListActivity(ctx context.Context, principal model.Principal, f ActivityFilters) (*ActivityListResult, error)
}

// vaultService is the concrete implementation of VaultService.
type vaultService struct {
	store    storage.BlobStore
	files    repository.FileRepository
	versions repository.VersionRepository
	audits   repository.AuditRepository
	policy   *AccessPolicy
	audit    *AuditRecorder
	opts     VaultOptions
}

// NewVaultService constructs a VaultService.
func NewVaultService(
	store storage.BlobStore,
	files repository.FileRepository,
	versions repository.VersionRepository,
	audits repository.AuditRepository,
	policy *AccessPolicy,
	opts VaultOptions,
) VaultService {
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	if opts.MaxArchiveEntries <= 0 {
		opts.MaxArchiveEntries = 1000
	}
	if opts.MaxArchiveBytes <= 0 {
		opts.MaxArchiveBytes = 1 << 30 // 1GiB uncompressed
	}
	return &vaultService{
		store:    store,
		files:    files,
		versions: versions,
		audits:   audits,
		policy:   policy,
		audit:    NewAuditRecorder(audits),
		opts:     opts,
	}
}

func (s *vaultService) Upload(ctx context.Context, principal model.Principal, filename string, r io.Reader, size int64) (*model.FileRecord, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: missing file content", ErrValidation)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrValidation)
	}

	key := BuildStorageKey(principal.ID, filename)
	info, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size: size,
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		if errors.Is(err, storage.ErrKeyExists) {
			return nil, fmt.Errorf("%w: a file named %q already exists", ErrConflict, filename)
		}
		return nil, fmt.Errorf("%w: upload: %v", ErrStore, err)
	}

	rec := &model.FileRecord{
		ID:          uuid.New().String(),
		OwnerID:     principal.ID,
		StorageKey:  key,
		DisplayName: filename,
		SizeBytes:   info.Size,
		IsArchive:   IsArchiveName(filename),
		UploadedAt:  time.Now().UTC(),
	}
	stored, err := s.files.Create(ctx, rec)
	if err != nil {
		// Cleanup on failure: the blob write succeeded, so remove the orphan
		// before reporting the error.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("vault: failed to delete orphaned blob after metadata error: %v", delErr)
		}
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	// The ledger owns its own blobs: version 1 gets an independent copy so
	// renames and later versions never touch snapshot content.
	snapKey := BuildVersionStorageKey(principal.ID, filename, 1)
	if err := s.store.Copy(ctx, key, snapKey); err != nil {
		if delErr := s.files.Delete(ctx, stored.ID); delErr != nil {
			log.Printf("vault: failed to delete record after snapshot copy error: %v", delErr)
		}
		s.cleanupBlob(ctx, key)
		return nil, fmt.Errorf("%w: copy snapshot blob: %v", ErrStore, err)
	}

	snap := &model.VersionSnapshot{
		FileID:        stored.ID,
		VersionNumber: 1,
		StorageKey:    snapKey,
		DisplayName:   filename,
		SizeBytes:     info.Size,
	}
	if _, err := s.versions.CreateSnapshot(ctx, snap); err != nil {
		if delErr := s.files.Delete(ctx, stored.ID); delErr != nil {
			log.Printf("vault: failed to delete record after snapshot error: %v", delErr)
		}
		s.cleanupBlob(ctx, snapKey)
		s.cleanupBlob(ctx, key)
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	s.audit.Record(ctx, principal, model.ActionUpload, fmt.Sprintf("Uploaded file: %s", filename))
	stored.OwnerUsername = principal.Username
	return stored, nil
}

func (s *vaultService) UploadVersion(ctx context.Context, principal model.Principal, fileID string, r io.Reader, size int64) (*model.FileRecord, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: missing file content", ErrValidation)
	}
	rec, err := s.authorized(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}

	next, err := s.versions.NextVersionNumber(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	snapKey := BuildVersionStorageKey(rec.OwnerID, rec.DisplayName, next)
	info, err := s.store.Put(ctx, snapKey, r, storage.PutObjectOptions{Size: size})
	if err != nil {
		if errors.Is(err, storage.ErrKeyExists) {
			return nil, fmt.Errorf("%w: version %d already stored", ErrConflict, next)
		}
		return nil, fmt.Errorf("%w: upload version: %v", ErrStore, err)
	}

	snap := &model.VersionSnapshot{
		FileID:        rec.ID,
		VersionNumber: next,
		StorageKey:    snapKey,
		DisplayName:   rec.DisplayName,
		SizeBytes:     info.Size,
	}
	if _, err := s.versions.CreateSnapshot(ctx, snap); err != nil {
		if delErr := s.store.Delete(ctx, snapKey); delErr != nil {
			log.Printf("vault: failed to delete blob after snapshot error: %v", delErr)
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	// Refresh the current blob in place. Copy may overwrite an occupied key;
	// Put may not, which is why the current key never moves here. A failure
	// leaves the ledger ahead of the current blob; restoring the new snapshot
	// brings them back in line.
	if err := s.store.Copy(ctx, snapKey, rec.StorageKey); err != nil {
		return nil, fmt.Errorf("%w: update current blob: %v", ErrStore, err)
	}
	if err := s.files.UpdateCurrent(ctx, rec.ID, rec.StorageKey, info.Size); err != nil {
		return nil, fmt.Errorf("update current content: %w", err)
	}

	s.audit.Record(ctx, principal, model.ActionUpload,
		fmt.Sprintf("Uploaded new version %d of file: %s", next, rec.DisplayName))

	rec.SizeBytes = info.Size
	return rec, nil
}

func (s *vaultService) Get(ctx context.Context, principal model.Principal, fileID string) (*model.FileRecord, error) {
	return s.authorized(ctx, principal, fileID)
}

func (s *vaultService) Rename(ctx context.Context, principal model.Principal, fileID, newName string) (*model.FileRecord, error) {
	if newName == "" {
		return nil, fmt.Errorf("%w: new name is required", ErrValidation)
	}
	rec, err := s.authorized(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}
	if newName == rec.DisplayName {
		return nil, fmt.Errorf("%w: new name equals current name", ErrValidation)
	}

	oldName := rec.DisplayName
	oldKey := rec.StorageKey
	newKey := BuildStorageKey(rec.OwnerID, newName)

	// Colliding sanitized names: the blob stays where it is, only the
	// display name changes.
	if newKey == oldKey {
		if err := s.files.UpdateNameAndKey(ctx, rec.ID, newName, oldKey); err != nil {
			return nil, fmt.Errorf("update metadata: %w", err)
		}
		s.audit.Record(ctx, principal, model.ActionRename,
			fmt.Sprintf("Renamed file: %s -> %s", oldName, newName))
		rec.DisplayName = newName
		return rec, nil
	}

	occupied, err := s.store.Exists(ctx, newKey)
	if err != nil {
		return nil, fmt.Errorf("%w: check target key: %v", ErrStore, err)
	}
	if occupied {
		return nil, fmt.Errorf("%w: a file named %q already exists", ErrConflict, newName)
	}

	// Step 1: copy content to the new key. Metadata still points at the old
	// key, so a crash here leaves the old key live.
	if err := s.store.Copy(ctx, oldKey, newKey); err != nil {
		s.cleanupBlob(ctx, newKey)
		return nil, fmt.Errorf("%w: copy to new key: %v", ErrStore, err)
	}

	// Step 2: switch metadata. A crash after this leaves both keys present
	// with the new one authoritative — recoverable, never dangling.
	if err := s.files.UpdateNameAndKey(ctx, rec.ID, newName, newKey); err != nil {
		s.cleanupBlob(ctx, newKey)
		return nil, fmt.Errorf("update metadata: %w", err)
	}

	// Step 3: drop the old blob. Snapshot blobs live under their own v<N>
	// keys, so this never touches history. Failure here is not fatal;
	// both-keys-present is a declared recoverable state.
	if err := s.store.Delete(ctx, oldKey); err != nil {
		log.Printf("vault: failed to delete old blob after rename: %v", err)
	}

	s.audit.Record(ctx, principal, model.ActionRename,
		fmt.Sprintf("Renamed file: %s -> %s", oldName, newName))

	rec.DisplayName = newName
	rec.StorageKey = newKey
	return rec, nil
}

func (s *vaultService) Delete(ctx context.Context, principal model.Principal, fileID string) error {
	rec, err := s.authorized(ctx, principal, fileID)
	if err != nil {
		return err
	}
	name := rec.DisplayName

	// Blob first, metadata second: an orphaned-but-undeletable blob plus a
	// surviving metadata row beats a metadata row pointing at nothing.
	if err := s.store.Delete(ctx, rec.StorageKey); err != nil {
		s.audit.Record(ctx, principal, model.ActionError,
			fmt.Sprintf("Failed to delete file: %s", name))
		return fmt.Errorf("%w: delete blob: %v", ErrStore, err)
	}

	// Snapshot blobs go best-effort; their metadata rows cascade with the
	// record.
	snaps, err := s.versions.ListByFile(ctx, rec.ID)
	if err != nil {
		log.Printf("vault: failed to list snapshots before delete: %v", err)
	}
	for _, snap := range snaps {
		if snap.StorageKey == rec.StorageKey {
			continue
		}
		if err := s.store.Delete(ctx, snap.StorageKey); err != nil {
			log.Printf("vault: failed to delete snapshot blob v%d: %v", snap.VersionNumber, err)
		}
	}

	if err := s.files.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}

	s.audit.Record(ctx, principal, model.ActionDelete, fmt.Sprintf("Deleted file: %s", name))
	return nil
}

func (s *vaultService) DownloadURL(ctx context.Context, principal model.Principal, fileID string) (*SignedLink, error) {
	rec, err := s.authorized(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}
	disposition := fmt.Sprintf("attachment; filename=%q", rec.DisplayName)
	link, err := s.presign(ctx, rec.StorageKey, disposition)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, principal, model.ActionDownload,
		fmt.Sprintf("Downloaded file: %s", rec.DisplayName))
	return link, nil
}

func (s *vaultService) ViewURL(ctx context.Context, principal model.Principal, fileID string) (*SignedLink, error) {
	rec, err := s.authorized(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}
	link, err := s.presign(ctx, rec.StorageKey, "inline")
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, principal, model.ActionView,
		fmt.Sprintf("Viewed file: %s", rec.DisplayName))
	return link, nil
}

func (s *vaultService) ListVersions(ctx context.Context, principal model.Principal, fileID string) (*VersionListResult, error) {
	rec, err := s.authorized(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}
	items, err := s.versions.ListByFile(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	latest, err := s.versions.LatestVersion(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}
	return &VersionListResult{Items: items, LatestVersion: latest}, nil
}

func (s *vaultService) RestoreVersion(ctx context.Context, principal model.Principal, fileID string, number int) (*model.VersionSnapshot, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: version number must be positive", ErrValidation)
	}
	rec, err := s.authorized(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}

	src, err := s.versions.FindByNumber(ctx, rec.ID, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: version %d", ErrNotFound, number)
		}
		return nil, fmt.Errorf("find version: %w", err)
	}

	next, err := s.versions.NextVersionNumber(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	// Restore appends history, it never rewrites it: the source snapshot's
	// blob is copied to a new snapshot key, which then refreshes the current
	// blob in place.
	newKey := BuildVersionStorageKey(rec.OwnerID, rec.DisplayName, next)
	if err := s.store.Copy(ctx, src.StorageKey, newKey); err != nil {
		return nil, fmt.Errorf("%w: copy snapshot content: %v", ErrStore, err)
	}

	snap := &model.VersionSnapshot{
		FileID:              rec.ID,
		VersionNumber:       next,
		StorageKey:          newKey,
		DisplayName:         rec.DisplayName,
		SizeBytes:           src.SizeBytes,
		RestoredFromVersion: &src.VersionNumber,
	}
	stored, err := s.versions.CreateSnapshot(ctx, snap)
	if err != nil {
		s.cleanupBlob(ctx, newKey)
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	if err := s.store.Copy(ctx, newKey, rec.StorageKey); err != nil {
		return nil, fmt.Errorf("%w: update current blob: %v", ErrStore, err)
	}
	if err := s.files.UpdateCurrent(ctx, rec.ID, rec.StorageKey, src.SizeBytes); err != nil {
		return nil, fmt.Errorf("update current content: %w", err)
	}

	s.audit.Record(ctx, principal, model.ActionRestore,
		fmt.Sprintf("Restored file %s to version %d (as version %d)", rec.DisplayName, number, next))
	return stored, nil
}

// authorized loads a record and applies the access policy.
func (s *vaultService) authorized(ctx context.Context, principal model.Principal, fileID string) (*model.FileRecord, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: file id is required", ErrValidation)
	}
	rec, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID)
		}
		return nil, err
	}
	if err := s.policy.AuthorizeOrFail(principal, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *vaultService) presign(ctx context.Context, key, disposition string) (*SignedLink, error) {
	u, err := s.store.PresignGet(ctx, key, s.opts.URLTTL, disposition)
	if err != nil {
		return nil, fmt.Errorf("%w: sign url: %v", ErrStore, err)
	}
	return &SignedLink{URL: u, ExpiresAt: time.Now().UTC().Add(s.opts.URLTTL)}, nil
}

// cleanupBlob is the best-effort compensating delete used when a protocol
// fails after writing a blob; the primary error always wins.
func (s *vaultService) cleanupBlob(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		log.Printf("vault: cleanup of blob failed: %v", err)
	}
}
