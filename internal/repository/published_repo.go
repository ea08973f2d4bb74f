package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/federicoviola/AppTwitter/internal/database"
	"github.com/federicoviola/AppTwitter/internal/models"
)

// publishedRepo is the concrete implementation of PublishedRepository.
// Rows are written by QueueRepository.MarkPosted inside its transaction;
// this repository only reads them.
type publishedRepo struct {
	db *database.DB
}

// NewPublishedRepo creates a new published-record repository
func NewPublishedRepo(db *database.DB) PublishedRepository {
	return &publishedRepo{db: db}
}

// GetByCandidate retrieves the published record for a candidate
func (r *publishedRepo) GetByCandidate(ctx context.Context, candidateID string) (*models.PublishedRecord, error) {
	query := `
		SELECT id, candidate_id, post_id, posted_at, raw_response
		FROM published WHERE candidate_id = ?
	`

	var record models.PublishedRecord
	var postID, rawResponse sql.NullString

	err := r.db.QueryRowContext(ctx, query, candidateID).Scan(
		&record.ID, &record.CandidateID, &postID, &record.PostedAt, &rawResponse,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record.PostID = postID.String
	record.RawResponse = rawResponse.String

	return &record, nil
}

// CountOnDay counts records posted on the given calendar day, in the
// day's own time zone. Same range shape as the queue count: SQLite's
// DATE() buckets by UTC day, which undercounts evening posts.
func (r *publishedRepo) CountOnDay(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM published
		WHERE posted_at >= ? AND posted_at < ?
	`, start.UTC(), end.UTC()).Scan(&count)
	return count, err
}

// ListRecent retrieves the most recently posted records
func (r *publishedRepo) ListRecent(ctx context.Context, limit int) ([]*models.PublishedRecord, error) {
	query := `
		SELECT id, candidate_id, post_id, posted_at, raw_response
		FROM published ORDER BY posted_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.PublishedRecord
	for rows.Next() {
		var record models.PublishedRecord
		var postID, rawResponse sql.NullString

		err := rows.Scan(&record.ID, &record.CandidateID, &postID, &record.PostedAt, &rawResponse)
		if err != nil {
			return nil, err
		}

		record.PostID = postID.String
		record.RawResponse = rawResponse.String
		records = append(records, &record)
	}

	return records, rows.Err()
}
