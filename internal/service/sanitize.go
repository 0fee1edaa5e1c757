package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// maxStemLen bounds the sanitized stem; the extension is kept on top of it.
const maxStemLen = 100

// SanitizeFilename turns an arbitrary client-supplied filename into a safe
// storage key segment: non-ASCII characters drop (no transliteration),
// spaces and hyphens become underscores, anything outside [a-zA-Z0-9_] is
// removed, and the result is lowercased. An empty stem falls back to
// file_<UTC timestamp, second precision>. Never fails, for any input.
func SanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
		// Everything else, ASCII or not, drops.
	}

	out := b.String()
	if out == "" {
		out = fmt.Sprintf("file_%s", time.Now().UTC().Format("20060102150405"))
	}
	if len(out) > maxStemLen {
		out = out[:maxStemLen]
	}
	return out + sanitizeExt(ext)
}

// sanitizeExt keeps the leading dot and drops anything outside [a-z0-9].
func sanitizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.TrimPrefix(ext, ".") {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}

// BuildStorageKey returns the blob key for an owner's current upload of the
// given filename. Two uploads by the same owner with colliding sanitized
// names map to the same key; callers needing no-clobber semantics must
// detect collisions explicitly.
func BuildStorageKey(ownerID, filename string) string {
	return fmt.Sprintf("user_uploads/%s/%s", ownerID, SanitizeFilename(filename))
}

// BuildVersionStorageKey returns the blob key for a historical snapshot.
// Versioned keys live under a v<N> segment so history never collides with
// the current key and restore targets are deterministic.
func BuildVersionStorageKey(ownerID, filename string, version int) string {
	return fmt.Sprintf("user_uploads/%s/v%d/%s", ownerID, version, SanitizeFilename(filename))
}

// IsArchiveName reports whether the filename selects ZIP ingestion.
func IsArchiveName(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".zip")
}
