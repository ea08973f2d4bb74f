package models

import (
	"time"
)

// QueueStatus represents the lifecycle state of a queue entry
type QueueStatus string

const (
	StatusDrafted   QueueStatus = "drafted"
	StatusApproved  QueueStatus = "approved"
	StatusScheduled QueueStatus = "scheduled"
	StatusPosted    QueueStatus = "posted"
	StatusFailed    QueueStatus = "failed"
	StatusSkipped   QueueStatus = "skipped"
)

// AllStatuses lists every queue status, in lifecycle order
var AllStatuses = []QueueStatus{
	StatusDrafted,
	StatusApproved,
	StatusScheduled,
	StatusPosted,
	StatusFailed,
	StatusSkipped,
}

// QueueEntry tracks one Candidate's path from draft to posted, failed
// or skipped. ScheduledAt is set only once the entry reaches the
// scheduled state. At most one entry may hold a given ScheduledAt value
// while scheduled or posted; a partial unique index enforces this.
type QueueEntry struct {
	ID          string      `json:"id" db:"id"`
	CandidateID string      `json:"candidate_id" db:"candidate_id"`
	Status      QueueStatus `json:"status" db:"status"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// PendingPost is a due queue entry joined with its candidate content
// and optional article link metadata. This is the dispatcher's polling
// contract.
type PendingPost struct {
	QueueID      string    `json:"queue_id"`
	CandidateID  string    `json:"candidate_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Content      string    `json:"content"`
	Type         string    `json:"type"`
	Platform     Platform  `json:"platform"`
	ArticleURL   string    `json:"article_url,omitempty"`
	ArticleTitle string    `json:"article_title,omitempty"`
}

// QueueItem is a queue entry joined with candidate content for listing
type QueueItem struct {
	ID          string      `json:"id"`
	Status      QueueStatus `json:"status"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	Content     string      `json:"content"`
	Type        string      `json:"type"`
	Platform    Platform    `json:"platform"`
}

// QueueStats aggregates queue state for the stats command
type QueueStats struct {
	ByStatus      map[QueueStatus]int `json:"by_status"`
	PostedToday   int                 `json:"posted_today"`
	NextScheduled *time.Time          `json:"next_scheduled,omitempty"`
}
