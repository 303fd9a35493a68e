package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// UsageLog is the row shape of the usage_logs table.
type UsageLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Action    string
	Metadata  pqtype.NullRawMessage
	CreatedAt time.Time
}

const createUsageLog = `
INSERT INTO usage_logs (user_id, action, metadata)
VALUES ($1, $2, $3)
RETURNING id, user_id, action, metadata, created_at`

// CreateUsageLogParams holds the inputs for CreateUsageLog.
type CreateUsageLogParams struct {
	UserID   uuid.UUID
	Action   string
	Metadata pqtype.NullRawMessage
}

func (q *Queries) CreateUsageLog(ctx context.Context, arg CreateUsageLogParams) (UsageLog, error) {
	row := q.db.QueryRowContext(ctx, createUsageLog, arg.UserID, arg.Action, arg.Metadata)
	var l UsageLog
	err := row.Scan(&l.ID, &l.UserID, &l.Action, &l.Metadata, &l.CreatedAt)
	return l, err
}

const countUsageLogsByUserAndAction = `
SELECT count(*) FROM usage_logs WHERE user_id = $1 AND action = $2 AND created_at >= $3`

func (q *Queries) CountUsageLogsByUserAndAction(ctx context.Context, userID uuid.UUID, action string, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsageLogsByUserAndAction, userID, action, since).Scan(&count)
	return count, err
}
