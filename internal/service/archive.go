package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"vaultapi/internal/model"
	"vaultapi/internal/storage"
)

// ExtractedFile summarizes one successfully ingested archive member.
type ExtractedFile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"original_filename"`
	SizeBytes   int64     `json:"file_size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ArchiveResult is the overall outcome of a ZIP ingestion. Individual entry
// failures reduce ExtractedCount but do not fail the batch.
type ArchiveResult struct {
	ArchiveName    string          `json:"archive_name"`
	ExtractedCount int             `json:"extracted_count"`
	SkippedCount   int             `json:"skipped_count"`
	Files          []ExtractedFile `json:"files"`
}

// IngestArchive reads the archive fully into memory, then stores every
// regular member as an independent file owned by the requesting principal.
// Directory entries are excluded. A member that fails to extract or store is
// logged and skipped; remaining members still go through.
func (s *vaultService) IngestArchive(ctx context.Context, principal model.Principal, archiveName string, r io.Reader, size int64) (*ArchiveResult, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: missing archive content", ErrValidation)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxArchiveBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read archive: %v", ErrStore, err)
	}
	if int64(len(data)) > s.opts.MaxArchiveBytes {
		return nil, fmt.Errorf("%w: archive exceeds %d bytes", ErrValidation, s.opts.MaxArchiveBytes)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.audit.Record(ctx, principal, model.ActionError,
			fmt.Sprintf("Archive upload failed: %s: %v", archiveName, err))
		return nil, fmt.Errorf("%w: invalid archive: %v", ErrValidation, err)
	}

	members := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			continue
		}
		members = append(members, f)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: archive contains no files", ErrValidation)
	}
	if len(members) > s.opts.MaxArchiveEntries {
		return nil, fmt.Errorf("%w: archive exceeds %d entries", ErrValidation, s.opts.MaxArchiveEntries)
	}

	result := &ArchiveResult{ArchiveName: archiveName, Files: make([]ExtractedFile, 0, len(members))}
	var extractedBytes int64

	for _, member := range members {
		rec, err := s.ingestMember(ctx, principal, archiveName, member, &extractedBytes)
		if err != nil {
			// Per-entry isolation: one bad member never aborts the rest.
			log.Printf("vault: skipping archive member %q: %v", member.Name, err)
			result.SkippedCount++
			continue
		}
		result.ExtractedCount++
		result.Files = append(result.Files, ExtractedFile{
			ID:          rec.ID,
			DisplayName: rec.DisplayName,
			SizeBytes:   rec.SizeBytes,
			UploadedAt:  rec.UploadedAt,
		})
	}

	return result, nil
}

// ingestMember extracts and stores one archive member with the same
// blob-then-metadata-then-snapshot sequence as a plain upload.
func (s *vaultService) ingestMember(ctx context.Context, principal model.Principal, archiveName string, member *zip.File, extractedBytes *int64) (*model.FileRecord, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}

	*extractedBytes += int64(len(content))
	if *extractedBytes > s.opts.MaxArchiveBytes {
		return nil, fmt.Errorf("total extracted size exceeds %d bytes", s.opts.MaxArchiveBytes)
	}

	// Path prefixes inside the archive are discarded; members land as bare
	// filenames under the owner's prefix.
	bare := path.Base(strings.ReplaceAll(member.Name, `\`, "/"))
	key := BuildStorageKey(principal.ID, bare)

	info, err := s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size: int64(len(content)),
		Metadata: map[string]string{
			"original-filename": bare,
			"source-archive":    archiveName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}

	rec := &model.FileRecord{
		ID:          uuid.New().String(),
		OwnerID:     principal.ID,
		StorageKey:  key,
		DisplayName: bare,
		SizeBytes:   info.Size,
		IsArchive:   false,
		UploadedAt:  time.Now().UTC(),
	}
	stored, err := s.files.Create(ctx, rec)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("vault: failed to delete orphaned blob for archive member: %v", delErr)
		}
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	// Version 1 gets its own blob, same as a plain upload.
	snapKey := BuildVersionStorageKey(principal.ID, bare, 1)
	if err := s.store.Copy(ctx, key, snapKey); err != nil {
		if delErr := s.files.Delete(ctx, stored.ID); delErr != nil {
			log.Printf("vault: failed to delete record after snapshot copy error: %v", delErr)
		}
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("vault: failed to delete blob after snapshot copy error: %v", delErr)
		}
		return nil, fmt.Errorf("copy snapshot blob: %w", err)
	}

	snap := &model.VersionSnapshot{
		FileID:        stored.ID,
		VersionNumber: 1,
		StorageKey:    snapKey,
		DisplayName:   bare,
		SizeBytes:     info.Size,
	}
	if _, err := s.versions.CreateSnapshot(ctx, snap); err != nil {
		if delErr := s.files.Delete(ctx, stored.ID); delErr != nil {
			log.Printf("vault: failed to delete record after snapshot error: %v", delErr)
		}
		if delErr := s.store.Delete(ctx, snapKey); delErr != nil {
			log.Printf("vault: failed to delete snapshot blob after snapshot error: %v", delErr)
		}
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("vault: failed to delete blob after snapshot error: %v", delErr)
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	s.audit.Record(ctx, principal, model.ActionUpload,
		fmt.Sprintf("Uploaded file: %s (extracted from %s)", bare, archiveName))
	stored.OwnerUsername = principal.Username
	return stored, nil
}
