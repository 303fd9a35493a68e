package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// APIKey is the row shape of the api_keys table. The key column stores a
// SHA-256 hex digest of the raw key.
type APIKey struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Key       string
	IsActive  bool
	LastUsed  sql.NullTime
	CreatedAt time.Time
}

const createAPIKey = `
INSERT INTO api_keys (user_id, name, key)
VALUES ($1, $2, $3)
RETURNING id, user_id, name, key, is_active, last_used, created_at`

// CreateAPIKeyParams holds the inputs for CreateAPIKey.
type CreateAPIKeyParams struct {
	UserID uuid.UUID
	Name   string
	Key    string
}

func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (APIKey, error) {
	row := q.db.QueryRowContext(ctx, createAPIKey, arg.UserID, arg.Name, arg.Key)
	var k APIKey
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.Key, &k.IsActive, &k.LastUsed, &k.CreatedAt)
	return k, err
}

const getAPIKeyByHash = `
SELECT id, user_id, name, key, is_active, last_used, created_at
FROM api_keys WHERE key = $1`

func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (APIKey, error) {
	row := q.db.QueryRowContext(ctx, getAPIKeyByHash, keyHash)
	var k APIKey
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.Key, &k.IsActive, &k.LastUsed, &k.CreatedAt)
	return k, err
}

const listAPIKeysByUser = `
SELECT id, user_id, name, key, is_active, last_used, created_at
FROM api_keys WHERE user_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListAPIKeysByUser(ctx context.Context, userID uuid.UUID) ([]APIKey, error) {
	rows, err := q.db.QueryContext(ctx, listAPIKeysByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.Key, &k.IsActive, &k.LastUsed, &k.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, k)
	}
	return items, rows.Err()
}

const deactivateAPIKey = `
UPDATE api_keys SET is_active = false WHERE id = $1 AND user_id = $2`

func (q *Queries) DeactivateAPIKey(ctx context.Context, id, userID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deactivateAPIKey, id, userID)
	return err
}

const touchAPIKey = `
UPDATE api_keys SET last_used = $2 WHERE id = $1`

func (q *Queries) TouchAPIKey(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, touchAPIKey, id, usedAt)
	return err
}
