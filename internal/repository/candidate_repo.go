package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/federicoviola/AppTwitter/internal/database"
	"github.com/federicoviola/AppTwitter/internal/models"
)

// candidateRepo is the concrete implementation of CandidateRepository
type candidateRepo struct {
	db *database.DB
}

// NewCandidateRepo creates a new candidate repository
func NewCandidateRepo(db *database.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

// Create inserts a new candidate. The unique index on content_hash is
// the second line of defense against exact duplicates; a violation is
// surfaced as ErrDuplicateContent.
func (r *candidateRepo) Create(ctx context.Context, candidate *models.Candidate) error {
	metaJSON, _ := json.Marshal(candidate.Metadata)
	if candidate.Metadata == nil {
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO candidates (id, content, content_hash, type, platform, article_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		candidate.ID, candidate.Content, candidate.ContentHash, candidate.Type,
		candidate.Platform, nullString(candidate.ArticleID), string(metaJSON),
		candidate.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateContent
	}
	return err
}

// GetByID retrieves a candidate by ID
func (r *candidateRepo) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := `
		SELECT id, content, content_hash, type, platform, article_id, metadata, created_at
		FROM candidates WHERE id = ?
	`

	var candidate models.Candidate
	var articleID sql.NullString
	var metaJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&candidate.ID, &candidate.Content, &candidate.ContentHash, &candidate.Type,
		&candidate.Platform, &articleID, &metaJSON, &candidate.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	candidate.ArticleID = articleID.String
	json.Unmarshal(metaJSON, &candidate.Metadata)

	return &candidate, nil
}

// HashExists checks if a candidate with the given content hash exists
func (r *candidateRepo) HashExists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM candidates WHERE content_hash = ?)", hash).Scan(&exists)
	return exists, err
}

// RecentContents returns the content of the most recently created
// candidates, newest first
func (r *candidateRepo) RecentContents(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT content FROM candidates ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

// ListByPlatform retrieves candidates for one platform, newest first
func (r *candidateRepo) ListByPlatform(ctx context.Context, platform models.Platform, limit int) ([]*models.Candidate, error) {
	query := `
		SELECT id, content, content_hash, type, platform, article_id, metadata, created_at
		FROM candidates WHERE platform = ?
		ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, platform, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		var candidate models.Candidate
		var articleID sql.NullString
		var metaJSON []byte

		err := rows.Scan(
			&candidate.ID, &candidate.Content, &candidate.ContentHash, &candidate.Type,
			&candidate.Platform, &articleID, &metaJSON, &candidate.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		candidate.ArticleID = articleID.String
		json.Unmarshal(metaJSON, &candidate.Metadata)
		candidates = append(candidates, &candidate)
	}

	return candidates, rows.Err()
}

// Count returns the total number of candidates
func (r *candidateRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM candidates").Scan(&count)
	return count, err
}
