package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains blob storage abstractions for object stores
// (S3-compatible). Implementations must avoid using local disk and rely on
// streaming I/O only.

var (
	// ErrKeyExists is returned by Put when the key is already occupied and
	// the store is configured to reject overwrites.
	ErrKeyExists = errors.New("storage key already exists")
	// ErrNotFound is returned by Get when no blob lives at the key.
	ErrNotFound = errors.New("object not found")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// BlobStore is the capability interface the vault needs from an
// S3-compatible object store. Keys are opaque to the store; the vault owns
// the key layout.
type BlobStore interface {
	// Put uploads an object under the given key. Overwriting an occupied key
	// is rejected with ErrKeyExists; callers needing no-clobber semantics
	// rely on this.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its
	// info. Missing keys yield ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Exists reports whether a blob lives at the key.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes an object by key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
	// Copy duplicates the blob at src to dst server-side, leaving src intact.
	Copy(ctx context.Context, src, dst string) error
	// PresignGet returns a time-limited URL that can be used to download the
	// object without credentials. A non-empty disposition overrides the
	// Content-Disposition header the backend serves with the blob.
	PresignGet(ctx context.Context, key string, expiry time.Duration, disposition string) (string, error)
}
