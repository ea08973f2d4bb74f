package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/federicoviola/AppTwitter/internal/database"
	"github.com/federicoviola/AppTwitter/internal/models"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	tagsJSON, _ := json.Marshal(article.Tags)
	if article.Tags == nil {
		tagsJSON = []byte("[]")
	}

	query := `
		INSERT INTO articles (id, title, url, platform, published_at, tags, summary, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.URL, article.Platform,
		article.PublishedAt, string(tagsJSON), article.Summary, article.Language,
		article.CreatedAt,
	)
	return err
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	return r.getOne(ctx, "SELECT id, title, url, platform, published_at, tags, summary, language, created_at FROM articles WHERE id = ?", id)
}

// GetByURL retrieves an article by its canonical URL
func (r *articleRepo) GetByURL(ctx context.Context, url string) (*models.Article, error) {
	return r.getOne(ctx, "SELECT id, title, url, platform, published_at, tags, summary, language, created_at FROM articles WHERE url = ?", url)
}

func (r *articleRepo) getOne(ctx context.Context, query string, arg any) (*models.Article, error) {
	var article models.Article
	var tagsJSON []byte
	var summary, language sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&article.ID, &article.Title, &article.URL, &article.Platform,
		&article.PublishedAt, &tagsJSON, &summary, &language, &article.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	json.Unmarshal(tagsJSON, &article.Tags)
	article.Summary = summary.String
	article.Language = language.String

	return &article, nil
}

// URLExists checks if an article with the given URL exists
func (r *articleRepo) URLExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE url = ?)", url).Scan(&exists)
	return exists, err
}

// List retrieves articles ordered by publication date, newest first
func (r *articleRepo) List(ctx context.Context, limit int) ([]*models.Article, error) {
	query := `
		SELECT id, title, url, platform, published_at, tags, summary, language, created_at
		FROM articles ORDER BY published_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		var article models.Article
		var tagsJSON []byte
		var summary, language sql.NullString

		err := rows.Scan(
			&article.ID, &article.Title, &article.URL, &article.Platform,
			&article.PublishedAt, &tagsJSON, &summary, &language, &article.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		json.Unmarshal(tagsJSON, &article.Tags)
		article.Summary = summary.String
		article.Language = language.String
		articles = append(articles, &article)
	}

	return articles, rows.Err()
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// helper to convert nil time to NULL
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
