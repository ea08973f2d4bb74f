package repository

import (
	"context"
	"errors"
	"time"

	"github.com/federicoviola/AppTwitter/internal/database"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/mattn/go-sqlite3"
)

// ErrSlotTaken reports that another entry already holds the requested
// publication slot. Callers should retry against the next slot.
var ErrSlotTaken = errors.New("publication slot already taken")

// ErrDuplicateContent reports that a candidate with the same content
// hash already exists.
var ErrDuplicateContent = errors.New("candidate content already exists")

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetByURL(ctx context.Context, url string) (*models.Article, error)
	URLExists(ctx context.Context, url string) (bool, error)
	List(ctx context.Context, limit int) ([]*models.Article, error)
	Count(ctx context.Context) (int, error)
}

// CandidateRepository defines the interface for candidate data operations
type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	HashExists(ctx context.Context, hash string) (bool, error)
	// RecentContents returns the content of the most recently created
	// candidates, newest first, bounded by limit.
	RecentContents(ctx context.Context, limit int) ([]string, error)
	ListByPlatform(ctx context.Context, platform models.Platform, limit int) ([]*models.Candidate, error)
	Count(ctx context.Context) (int, error)
}

// QueueRepository defines the interface for queue entry operations.
// ClaimSlot and MarkPosted carry the correctness-critical writes: the
// slot uniqueness index fires inside ClaimSlot, and MarkPosted wraps the
// status flip and the published record in one transaction.
type QueueRepository interface {
	Create(ctx context.Context, entry *models.QueueEntry) error
	GetByID(ctx context.Context, id string) (*models.QueueEntry, error)
	UpdateStatus(ctx context.Context, id string, from, to models.QueueStatus) (bool, error)
	ListApprovedUnscheduled(ctx context.Context) ([]*models.QueueEntry, error)
	SlotTaken(ctx context.Context, slot time.Time) (bool, error)
	CountOnDay(ctx context.Context, day time.Time) (int, error)
	ClaimSlot(ctx context.Context, id string, slot time.Time) (bool, error)
	Reschedule(ctx context.Context, id string, slot time.Time) (bool, error)
	ListPending(ctx context.Context, now time.Time) ([]*models.PendingPost, error)
	MarkPosted(ctx context.Context, id, postID, rawResponse string) (bool, error)
	List(ctx context.Context, status models.QueueStatus, limit int) ([]*models.QueueItem, error)
	StatusCounts(ctx context.Context) (map[models.QueueStatus]int, error)
	NextScheduled(ctx context.Context) (*time.Time, error)
}

// PublishedRepository defines read access to the published audit rows
type PublishedRepository interface {
	GetByCandidate(ctx context.Context, candidateID string) (*models.PublishedRecord, error)
	CountOnDay(ctx context.Context, day time.Time) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*models.PublishedRecord, error)
}

// SettingsRepository defines the key-value settings operations
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// AuditLogRepository defines the append-only log operations
type AuditLogRepository interface {
	Append(ctx context.Context, level, message, detail string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article   ArticleRepository
	Candidate CandidateRepository
	Queue     QueueRepository
	Published PublishedRepository
	Settings  SettingsRepository
	AuditLog  AuditLogRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article:   NewArticleRepo(db),
		Candidate: NewCandidateRepo(db),
		Queue:     NewQueueRepo(db),
		Published: NewPublishedRepo(db),
		Settings:  NewSettingsRepo(db),
		AuditLog:  NewAuditLogRepo(db),
	}
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
