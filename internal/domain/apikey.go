package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKeyPrefix is prepended to every raw API key so keys are recognizable
// in logs and configuration ("tm_" + 64 hex chars).
const APIKeyPrefix = "tm_"

// APIKey is an opaque credential for programmatic access. Only the SHA-256
// hash of the raw key is stored.
type APIKey struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	KeyHash   string
	IsActive  bool
	LastUsed  *time.Time
	CreatedAt time.Time
}

// APIKeyCreateResult carries the raw key back to the caller exactly once.
type APIKeyCreateResult struct {
	Key    *APIKey
	RawKey string
}
