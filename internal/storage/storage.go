// Package storage provides object storage for exported analysis documents.
//
// Two implementations back the Storage interface: LocalStorage writes to
// the filesystem for development, R2Storage targets Cloudflare R2
// (S3-compatible) for production. Exports are JSON documents keyed per
// user and analysis.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is the object store behind analysis exports. All methods are
// context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists when the
	// key is taken and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close
	// the reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object. Private backends return
	// a presigned URL valid for the given duration.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type. Detected from the key extension when
	// empty.
	ContentType string

	// MaxSize caps the object size in bytes. 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files.
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's public URL if served from a custom domain.
	// When empty, presigned URLs are used for all access.
	PublicURL string

	// Region is required by the AWS SDK; R2 accepts "auto".
	Region string
}

// Provider identifiers, matching the STORAGE_PROVIDER config value.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// ExportKey generates the storage key for an exported analysis document.
// Format: exports/{userID}/{analysisID}.json
func ExportKey(userID, analysisID uuid.UUID) string {
	return fmt.Sprintf("exports/%s/%s.json", userID, analysisID)
}

// detectContentType resolves a MIME type from an explicit value or the key
// extension, falling back to a generic binary type.
func detectContentType(providedType, key string) string {
	if providedType != "" {
		return providedType
	}
	ext := strings.ToLower(filepath.Ext(key))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
