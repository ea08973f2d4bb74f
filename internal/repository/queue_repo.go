package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/federicoviola/AppTwitter/internal/database"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/google/uuid"
)

// queueRepo is the concrete implementation of QueueRepository.
// Timestamp parameters are normalized to UTC before binding: SQLite
// compares TIMESTAMP columns as text, so equality, ordering and the
// slot uniqueness index only hold while every stored value carries the
// same offset.
type queueRepo struct {
	db *database.DB
}

// NewQueueRepo creates a new queue repository
func NewQueueRepo(db *database.DB) QueueRepository {
	return &queueRepo{db: db}
}

// Create inserts a new queue entry
func (r *queueRepo) Create(ctx context.Context, entry *models.QueueEntry) error {
	query := `
		INSERT INTO queue (id, candidate_id, status, scheduled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.CandidateID, entry.Status, nullTime(entry.ScheduledAt),
		entry.CreatedAt, entry.UpdatedAt,
	)
	return err
}

// GetByID retrieves a queue entry by ID
func (r *queueRepo) GetByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	query := `
		SELECT id, candidate_id, status, scheduled_at, created_at, updated_at
		FROM queue WHERE id = ?
	`

	var entry models.QueueEntry
	var scheduledAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.CandidateID, &entry.Status, &scheduledAt,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if scheduledAt.Valid {
		entry.ScheduledAt = &scheduledAt.Time
	}

	return &entry, nil
}

// UpdateStatus transitions an entry from one status to another. The
// from-status guard makes the transition atomic across processes; it
// reports false when the row is missing or no longer in that state.
func (r *queueRepo) UpdateStatus(ctx context.Context, id string, from, to models.QueueStatus) (bool, error) {
	query := `
		UPDATE queue SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListApprovedUnscheduled retrieves approved entries awaiting a slot,
// oldest first
func (r *queueRepo) ListApprovedUnscheduled(ctx context.Context) ([]*models.QueueEntry, error) {
	query := `
		SELECT id, candidate_id, status, scheduled_at, created_at, updated_at
		FROM queue
		WHERE status = 'approved' AND scheduled_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		var entry models.QueueEntry
		var scheduledAt sql.NullTime

		err := rows.Scan(
			&entry.ID, &entry.CandidateID, &entry.Status, &scheduledAt,
			&entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if scheduledAt.Valid {
			entry.ScheduledAt = &scheduledAt.Time
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// SlotTaken checks whether a scheduled or posted entry already holds the
// given timestamp. This is only the advisory pre-check; ClaimSlot's
// unique index is what closes the race window.
func (r *queueRepo) SlotTaken(ctx context.Context, slot time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM queue
			WHERE scheduled_at = ? AND status IN ('scheduled', 'posted')
		)`, slot.UTC()).Scan(&exists)
	return exists, err
}

// CountOnDay counts entries scheduled or posted on the given calendar
// day, in the day's own time zone. SQLite's DATE() would bucket by UTC
// day, which splits an evening slot away from its local day.
func (r *queueRepo) CountOnDay(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM queue
		WHERE scheduled_at >= ? AND scheduled_at < ?
		AND status IN ('scheduled', 'posted')
	`, start.UTC(), end.UTC()).Scan(&count)
	return count, err
}

// ClaimSlot assigns the slot to an approved entry and moves it to
// scheduled. The write goes through the partial unique index on
// scheduled_at, so a concurrent claim of the same slot fails with
// ErrSlotTaken instead of double-booking. Returns false when the entry
// is missing or not approved.
func (r *queueRepo) ClaimSlot(ctx context.Context, id string, slot time.Time) (bool, error) {
	query := `
		UPDATE queue SET scheduled_at = ?, status = 'scheduled', updated_at = ?
		WHERE id = ? AND status = 'approved'
	`
	result, err := r.db.ExecContext(ctx, query, slot.UTC(), time.Now(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrSlotTaken
		}
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Reschedule moves an already scheduled entry to a new slot, still
// guarded by the slot uniqueness index
func (r *queueRepo) Reschedule(ctx context.Context, id string, slot time.Time) (bool, error) {
	query := `
		UPDATE queue SET scheduled_at = ?, updated_at = ?
		WHERE id = ? AND status = 'scheduled'
	`
	result, err := r.db.ExecContext(ctx, query, slot.UTC(), time.Now(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrSlotTaken
		}
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListPending retrieves scheduled entries due at or before now, joined
// with candidate content and article link metadata, earliest first
func (r *queueRepo) ListPending(ctx context.Context, now time.Time) ([]*models.PendingPost, error) {
	query := `
		SELECT q.id, q.candidate_id, q.scheduled_at,
		       c.content, c.type, c.platform,
		       a.url, a.title
		FROM queue q
		JOIN candidates c ON q.candidate_id = c.id
		LEFT JOIN articles a ON c.article_id = a.id
		WHERE q.status = 'scheduled' AND q.scheduled_at <= ?
		ORDER BY q.scheduled_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*models.PendingPost
	for rows.Next() {
		var post models.PendingPost
		var articleURL, articleTitle sql.NullString

		err := rows.Scan(
			&post.QueueID, &post.CandidateID, &post.ScheduledAt,
			&post.Content, &post.Type, &post.Platform,
			&articleURL, &articleTitle,
		)
		if err != nil {
			return nil, err
		}

		post.ArticleURL = articleURL.String
		post.ArticleTitle = articleTitle.String
		pending = append(pending, &post)
	}

	return pending, rows.Err()
}

// MarkPosted flips a scheduled entry to posted and appends the published
// record in the same transaction, so a crash cannot leave one write
// without the other. Returns false when the entry is missing or not
// scheduled.
func (r *queueRepo) MarkPosted(ctx context.Context, id, postID, rawResponse string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var candidateID string
	err = tx.QueryRowContext(ctx,
		"SELECT candidate_id FROM queue WHERE id = ? AND status = 'scheduled'", id,
	).Scan(&candidateID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE queue SET status = 'posted', updated_at = ?
		WHERE id = ? AND status = 'scheduled'
	`, time.Now(), id)
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO published (id, candidate_id, post_id, posted_at, raw_response)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), candidateID, nullString(postID), time.Now().UTC(), nullString(rawResponse))
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

// List retrieves queue entries joined with candidate content, newest
// first, optionally filtered by status
func (r *queueRepo) List(ctx context.Context, status models.QueueStatus, limit int) ([]*models.QueueItem, error) {
	query := `
		SELECT q.id, q.status, q.scheduled_at, q.created_at,
		       c.content, c.type, c.platform
		FROM queue q
		JOIN candidates c ON q.candidate_id = c.id
	`
	args := []any{}
	if status != "" {
		query += " WHERE q.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY q.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.QueueItem
	for rows.Next() {
		var item models.QueueItem
		var scheduledAt sql.NullTime

		err := rows.Scan(
			&item.ID, &item.Status, &scheduledAt, &item.CreatedAt,
			&item.Content, &item.Type, &item.Platform,
		)
		if err != nil {
			return nil, err
		}

		if scheduledAt.Valid {
			item.ScheduledAt = &scheduledAt.Time
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// StatusCounts aggregates the number of entries per status
func (r *queueRepo) StatusCounts(ctx context.Context) (map[models.QueueStatus]int, error) {
	counts := make(map[models.QueueStatus]int, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		counts[status] = 0
	}

	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM queue GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status models.QueueStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// NextScheduled returns the earliest scheduled timestamp, or nil when
// nothing is scheduled
func (r *queueRepo) NextScheduled(ctx context.Context) (*time.Time, error) {
	var next time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT scheduled_at FROM queue
		WHERE status = 'scheduled'
		ORDER BY scheduled_at ASC LIMIT 1
	`).Scan(&next)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &next, nil
}
