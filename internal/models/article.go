package models

import (
	"time"
)

// Article represents a source piece of content the posts promote
type Article struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	URL         string    `json:"url" db:"url"` // unique
	Platform    string    `json:"platform" db:"platform"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	Tags        []string  `json:"tags" db:"-"` // Stored as JSON string in DB
	Summary     string    `json:"summary" db:"summary"`
	Language    string    `json:"language" db:"language"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ArticleRecord represents an article row from CSV or JSON import
type ArticleRecord struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Platform    string   `json:"platform"`
	PublishedAt string   `json:"published_at"`
	Tags        []string `json:"tags"`
	Summary     string   `json:"summary"`
	Language    string   `json:"language"`
}
