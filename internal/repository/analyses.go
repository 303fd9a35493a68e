package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Analysis is the row shape of the analyses table. The three classifier
// results are stored as jsonb blobs; the two string lists as text arrays.
type Analysis struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Text               string
	ContentType        string
	Sentiment          json.RawMessage
	Tone               json.RawMessage
	Intent             json.RawMessage
	Suggestions        []string
	Misinterpretations []string
	IsDemo             bool
	CreatedAt          time.Time
}

const analysisColumns = `id, user_id, text, content_type, sentiment, tone, intent,
suggestions, misinterpretations, is_demo, created_at`

const createAnalysis = `
INSERT INTO analyses (user_id, text, content_type, sentiment, tone, intent,
	suggestions, misinterpretations, is_demo)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + analysisColumns

// CreateAnalysisParams holds the inputs for CreateAnalysis.
type CreateAnalysisParams struct {
	UserID             uuid.UUID
	Text               string
	ContentType        string
	Sentiment          json.RawMessage
	Tone               json.RawMessage
	Intent             json.RawMessage
	Suggestions        []string
	Misinterpretations []string
	IsDemo             bool
}

func (q *Queries) CreateAnalysis(ctx context.Context, arg CreateAnalysisParams) (Analysis, error) {
	row := q.db.QueryRowContext(ctx, createAnalysis,
		arg.UserID, arg.Text, arg.ContentType,
		arg.Sentiment, arg.Tone, arg.Intent,
		pq.Array(arg.Suggestions), pq.Array(arg.Misinterpretations), arg.IsDemo)
	var a Analysis
	err := row.Scan(&a.ID, &a.UserID, &a.Text, &a.ContentType,
		&a.Sentiment, &a.Tone, &a.Intent,
		pq.Array(&a.Suggestions), pq.Array(&a.Misinterpretations), &a.IsDemo, &a.CreatedAt)
	return a, err
}

const getAnalysisByID = `
SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`

func (q *Queries) GetAnalysisByID(ctx context.Context, id uuid.UUID) (Analysis, error) {
	row := q.db.QueryRowContext(ctx, getAnalysisByID, id)
	var a Analysis
	err := row.Scan(&a.ID, &a.UserID, &a.Text, &a.ContentType,
		&a.Sentiment, &a.Tone, &a.Intent,
		pq.Array(&a.Suggestions), pq.Array(&a.Misinterpretations), &a.IsDemo, &a.CreatedAt)
	return a, err
}

const countAnalysesByUserSince = `
SELECT count(*) FROM analyses WHERE user_id = $1 AND created_at >= $2`

// CountAnalysesByUserSince counts analyses owned by a user with a creation
// timestamp at or after the given instant. The plan gate passes the first
// instant of the current calendar month, which makes the count reset at the
// month boundary with no rollover job.
func (q *Queries) CountAnalysesByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAnalysesByUserSince, userID, since).Scan(&count)
	return count, err
}

const listAnalysesByUser = `
SELECT ` + analysisColumns + `
FROM analyses WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

func (q *Queries) ListAnalysesByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]Analysis, error) {
	rows, err := q.db.QueryContext(ctx, listAnalysesByUser, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.Text, &a.ContentType,
			&a.Sentiment, &a.Tone, &a.Intent,
			pq.Array(&a.Suggestions), pq.Array(&a.Misinterpretations), &a.IsDemo, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
