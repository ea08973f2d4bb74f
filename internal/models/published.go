package models

import (
	"time"
)

// PublishedRecord is the immutable audit row written when a queue entry
// is marked posted. Append-only; exactly one per posted entry.
type PublishedRecord struct {
	ID          string    `json:"id" db:"id"`
	CandidateID string    `json:"candidate_id" db:"candidate_id"`
	PostID      string    `json:"post_id" db:"post_id"`
	PostedAt    time.Time `json:"posted_at" db:"posted_at"`
	RawResponse string    `json:"raw_response,omitempty" db:"raw_response"`
}
