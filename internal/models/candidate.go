package models

import (
	"time"
)

// Platform identifies the publication target of a candidate
type Platform string

const (
	PlatformX        Platform = "x"
	PlatformLinkedIn Platform = "linkedin"
)

// ValidPlatforms defines allowed candidate platforms
var ValidPlatforms = map[Platform]bool{
	PlatformX:        true,
	PlatformLinkedIn: true,
}

// Candidate types group generated posts by category
const (
	TypePromo    = "promo"
	TypeThought  = "thought"
	TypeQuestion = "question"
	TypeThread   = "thread"
	TypeInsight  = "insight"
)

// ValidTypes defines allowed candidate type tags
var ValidTypes = map[string]bool{
	TypePromo:    true,
	TypeThought:  true,
	TypeQuestion: true,
	TypeThread:   true,
	TypeInsight:  true,
}

// Candidate represents a generated post text awaiting review. The
// content hash is unique at the storage layer, which rejects exact
// duplicates even if the filter is bypassed.
type Candidate struct {
	ID          string            `json:"id" db:"id"`
	Content     string            `json:"content" db:"content"`
	ContentHash string            `json:"content_hash" db:"content_hash"`
	Type        string            `json:"type" db:"type"`
	Platform    Platform          `json:"platform" db:"platform"`
	ArticleID   string            `json:"article_id,omitempty" db:"article_id"`
	Metadata    map[string]string `json:"metadata,omitempty" db:"-"` // Stored as JSON string in DB
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}
