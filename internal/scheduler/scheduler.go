package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// slot is a fixed daily clock time eligible for publication
type slot struct {
	hour   int
	minute int
}

// Scheduler owns the queue entry state machine and time-slot
// assignment. It holds no mutable queue state of its own: every
// operation re-reads from the store, which is the synchronization point
// between concurrent invocations.
type Scheduler struct {
	queue     repository.QueueRepository
	published repository.PublishedRepository
	audit     repository.AuditLogRepository

	slots       []slot
	maxPerDay   int
	horizonDays int

	now func() time.Time
	log zerolog.Logger
}

// New creates a scheduler from an explicit configuration
func New(queue repository.QueueRepository, published repository.PublishedRepository, audit repository.AuditLogRepository, cfg config.ScheduleConfig, log zerolog.Logger) (*Scheduler, error) {
	if len(cfg.Slots) == 0 {
		return nil, fmt.Errorf("at least one publication slot is required")
	}

	slots := make([]slot, 0, len(cfg.Slots))
	for _, raw := range cfg.Slots {
		hour, minute, err := config.ParseSlot(raw)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot{hour: hour, minute: minute})
	}

	// Ascending clock order within a day
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].hour != slots[j].hour {
			return slots[i].hour < slots[j].hour
		}
		return slots[i].minute < slots[j].minute
	})

	horizon := cfg.HorizonDays
	if horizon <= 0 {
		horizon = 30
	}

	return &Scheduler{
		queue:       queue,
		published:   published,
		audit:       audit,
		slots:       slots,
		maxPerDay:   cfg.MaxPerDay,
		horizonDays: horizon,
		now:         time.Now,
		log:         log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Enqueue creates a queue entry in the drafted state and returns its ID
func (s *Scheduler) Enqueue(ctx context.Context, candidateID string) (string, error) {
	now := s.now()
	entry := &models.QueueEntry{
		ID:          uuid.New().String(),
		CandidateID: candidateID,
		Status:      models.StatusDrafted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.queue.Create(ctx, entry); err != nil {
		return "", fmt.Errorf("enqueue candidate %s: %w", candidateID, err)
	}

	s.log.Info().Str("queue_id", entry.ID).Str("candidate_id", candidateID).Msg("Candidate enqueued")
	return entry.ID, nil
}

// Approve moves a drafted entry to approved. Returns false when the
// entry is missing or not drafted.
func (s *Scheduler) Approve(ctx context.Context, queueID string) (bool, error) {
	ok, err := s.queue.UpdateStatus(ctx, queueID, models.StatusDrafted, models.StatusApproved)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Str("queue_id", queueID).Msg("Entry approved")
	}
	return ok, nil
}

// Skip moves a drafted or approved entry to skipped. The row is kept
// for audit; it just leaves every pending-work query.
func (s *Scheduler) Skip(ctx context.Context, queueID string) (bool, error) {
	ok, err := s.queue.UpdateStatus(ctx, queueID, models.StatusDrafted, models.StatusSkipped)
	if err != nil {
		return false, err
	}
	if !ok {
		ok, err = s.queue.UpdateStatus(ctx, queueID, models.StatusApproved, models.StatusSkipped)
		if err != nil {
			return false, err
		}
	}
	if ok {
		s.log.Info().Str("queue_id", queueID).Msg("Entry skipped")
	}
	return ok, nil
}

// ScheduleApproved assigns every approved, unscheduled entry to the
// next available slot, oldest entry first, and returns how many were
// newly scheduled. A slot claim lost to a concurrent scheduler surfaces
// as ErrSlotTaken from the store and is retried against the next slot;
// the scan stops quietly once the horizon is exhausted.
func (s *Scheduler) ScheduleApproved(ctx context.Context) (int, error) {
	entries, err := s.queue.ListApprovedUnscheduled(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		s.log.Info().Msg("No approved entries to schedule")
		return 0, nil
	}

	scheduled := 0
	cursor := s.now()

	for _, entry := range entries {
		for {
			slotTime, found, err := s.nextAvailableSlot(ctx, cursor)
			if err != nil {
				return scheduled, err
			}
			if !found {
				s.log.Warn().
					Int("horizon_days", s.horizonDays).
					Msg("No free slot within horizon, stopping")
				return scheduled, nil
			}

			claimed, err := s.queue.ClaimSlot(ctx, entry.ID, slotTime)
			if errors.Is(err, repository.ErrSlotTaken) {
				// Lost the race for this slot; move past it and retry.
				cursor = slotTime
				continue
			}
			if err != nil {
				return scheduled, err
			}
			if !claimed {
				// Entry left the approved state under us; next entry.
				break
			}

			s.log.Info().
				Str("queue_id", entry.ID).
				Time("slot", slotTime).
				Msg("Entry scheduled")
			scheduled++
			cursor = slotTime
			break
		}
	}

	return scheduled, nil
}

// nextAvailableSlot scans forward day by day, slot by slot, for the
// first slot strictly after the cursor that is unoccupied and on a day
// below the daily cap. The scan is bounded by the configured horizon.
func (s *Scheduler) nextAvailableSlot(ctx context.Context, after time.Time) (time.Time, bool, error) {
	for d := 0; d < s.horizonDays; d++ {
		day := after.AddDate(0, 0, d)

		count, err := s.queue.CountOnDay(ctx, day)
		if err != nil {
			return time.Time{}, false, err
		}
		if count >= s.maxPerDay {
			continue
		}

		for _, sl := range s.slots {
			slotTime := time.Date(day.Year(), day.Month(), day.Day(), sl.hour, sl.minute, 0, 0, after.Location())
			if !slotTime.After(after) {
				continue
			}

			taken, err := s.queue.SlotTaken(ctx, slotTime)
			if err != nil {
				return time.Time{}, false, err
			}
			if taken {
				continue
			}

			return slotTime, true, nil
		}
	}

	return time.Time{}, false, nil
}

// Pending returns all scheduled entries due at or before now, joined
// with candidate content, earliest first. This is the dispatcher's
// polling contract.
func (s *Scheduler) Pending(ctx context.Context) ([]*models.PendingPost, error) {
	return s.queue.ListPending(ctx, s.now())
}

// MarkPosted transitions a scheduled entry to posted and records the
// platform response. The status flip and the published record land in
// one storage transaction. Returns false when the entry is missing or
// not scheduled.
func (s *Scheduler) MarkPosted(ctx context.Context, queueID, postID, rawResponse string) (bool, error) {
	ok, err := s.queue.MarkPosted(ctx, queueID, postID, rawResponse)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Str("queue_id", queueID).Str("post_id", postID).Msg("Entry posted")
	}
	return ok, nil
}

// MarkFailed transitions a scheduled entry to failed and appends an
// audit log row. Failed entries are never retried by the scheduler; a
// fresh approval is an operator decision.
func (s *Scheduler) MarkFailed(ctx context.Context, queueID, errorMessage string) (bool, error) {
	ok, err := s.queue.UpdateStatus(ctx, queueID, models.StatusScheduled, models.StatusFailed)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := s.audit.Append(ctx, "ERROR", fmt.Sprintf("failed to publish queue entry %s", queueID), errorMessage); err != nil {
		return true, err
	}

	s.log.Error().Str("queue_id", queueID).Str("error", errorMessage).Msg("Entry failed")
	return true, nil
}

// Reschedule moves a scheduled entry to an explicit new slot, still
// guarded by the slot uniqueness constraint
func (s *Scheduler) Reschedule(ctx context.Context, queueID string, newTime time.Time) (bool, error) {
	ok, err := s.queue.Reschedule(ctx, queueID, newTime)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Str("queue_id", queueID).Time("slot", newTime).Msg("Entry rescheduled")
	}
	return ok, nil
}

// List returns queue entries joined with candidate content, newest
// first, optionally filtered by status
func (s *Scheduler) List(ctx context.Context, status models.QueueStatus, limit int) ([]*models.QueueItem, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queue.List(ctx, status, limit)
}

// Stats aggregates per-status counts, today's posted total and the next
// scheduled time. Read-only.
func (s *Scheduler) Stats(ctx context.Context) (*models.QueueStats, error) {
	counts, err := s.queue.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	postedToday, err := s.published.CountOnDay(ctx, s.now())
	if err != nil {
		return nil, err
	}

	next, err := s.queue.NextScheduled(ctx)
	if err != nil {
		return nil, err
	}

	return &models.QueueStats{
		ByStatus:      counts,
		PostedToday:   postedToday,
		NextScheduled: next,
	}, nil
}
