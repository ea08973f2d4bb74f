package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/federicoviola/AppTwitter/internal/database"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()

	cfg := &config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return New(db)
}

// seedApprovedEntry creates a candidate with an approved queue entry and
// returns the queue entry ID
func seedApprovedEntry(t *testing.T, repos *Repositories, tag string) string {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	candidateID := uuid.New().String()
	err := repos.Candidate.Create(ctx, &models.Candidate{
		ID:          candidateID,
		Content:     fmt.Sprintf("contenido de prueba %s", tag),
		ContentHash: "hash-" + tag,
		Type:        models.TypeThought,
		Platform:    models.PlatformX,
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	entryID := uuid.New().String()
	err = repos.Queue.Create(ctx, &models.QueueEntry{
		ID:          entryID,
		CandidateID: candidateID,
		Status:      models.StatusApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("create queue entry: %v", err)
	}
	return entryID
}

func TestQueueCountOnDayUsesLocalCalendarDay(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	zone := time.FixedZone("ART", -3*60*60)

	// 21:00-03:00 is 00:00 UTC of the next day. The count must still
	// attribute it to the local Monday.
	id := seedApprovedEntry(t, repos, "monday-evening")
	slot := time.Date(2026, 3, 2, 21, 0, 0, 0, zone)
	ok, err := repos.Queue.ClaimSlot(ctx, id, slot)
	if err != nil || !ok {
		t.Fatalf("ClaimSlot = %v, %v", ok, err)
	}

	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, zone)
	count, err := repos.Queue.CountOnDay(ctx, monday)
	if err != nil {
		t.Fatalf("CountOnDay: %v", err)
	}
	if count != 1 {
		t.Errorf("count on local Monday = %d, want 1", count)
	}

	tuesday := monday.AddDate(0, 0, 1)
	count, err = repos.Queue.CountOnDay(ctx, tuesday)
	if err != nil {
		t.Fatalf("CountOnDay: %v", err)
	}
	if count != 0 {
		t.Errorf("count on local Tuesday = %d, want 0", count)
	}
}

func TestClaimSlotUniquenessAcrossZoneRepresentations(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	zone := time.FixedZone("ART", -3*60*60)

	first := seedApprovedEntry(t, repos, "first")
	second := seedApprovedEntry(t, repos, "second")

	slot := time.Date(2026, 3, 2, 21, 0, 0, 0, zone)
	if ok, err := repos.Queue.ClaimSlot(ctx, first, slot); err != nil || !ok {
		t.Fatalf("ClaimSlot = %v, %v", ok, err)
	}

	// The same instant expressed in UTC must hit the uniqueness index,
	// not slip past it as a differently-formatted timestamp.
	if _, err := repos.Queue.ClaimSlot(ctx, second, slot.UTC()); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("ClaimSlot on occupied instant: err = %v, want ErrSlotTaken", err)
	}

	taken, err := repos.Queue.SlotTaken(ctx, slot.In(time.UTC))
	if err != nil {
		t.Fatalf("SlotTaken: %v", err)
	}
	if !taken {
		t.Error("SlotTaken did not see the slot through its UTC representation")
	}
}

func TestPublishedCountOnDayUsesLocalCalendarDay(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	zone := time.FixedZone("ART", -3*60*60)

	id := seedApprovedEntry(t, repos, "posted")
	slot := time.Date(2026, 3, 2, 21, 0, 0, 0, zone)
	if ok, err := repos.Queue.ClaimSlot(ctx, id, slot); err != nil || !ok {
		t.Fatalf("ClaimSlot = %v, %v", ok, err)
	}
	if ok, err := repos.Queue.MarkPosted(ctx, id, "post-1", "{}"); err != nil || !ok {
		t.Fatalf("MarkPosted = %v, %v", ok, err)
	}

	records, err := repos.Published.ListRecent(ctx, 1)
	if err != nil || len(records) != 1 {
		t.Fatalf("ListRecent = %d records, %v", len(records), err)
	}

	day := records[0].PostedAt.In(zone)
	count, err := repos.Published.CountOnDay(ctx, day)
	if err != nil {
		t.Fatalf("CountOnDay: %v", err)
	}
	if count != 1 {
		t.Errorf("count on local posting day = %d, want 1", count)
	}

	count, err = repos.Published.CountOnDay(ctx, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CountOnDay: %v", err)
	}
	if count != 0 {
		t.Errorf("count on following local day = %d, want 0", count)
	}
}
