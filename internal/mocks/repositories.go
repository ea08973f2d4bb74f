package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/repository"
)

// MockCandidateRepository is a mock implementation of CandidateRepository
type MockCandidateRepository struct {
	Candidates  map[string]*models.Candidate
	HashToID    map[string]string
	order       []string
	CreateError error
}

func NewMockCandidateRepository() *MockCandidateRepository {
	return &MockCandidateRepository{
		Candidates: make(map[string]*models.Candidate),
		HashToID:   make(map[string]string),
	}
}

func (m *MockCandidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.HashToID[candidate.ContentHash]; exists {
		return repository.ErrDuplicateContent
	}
	m.Candidates[candidate.ID] = candidate
	m.HashToID[candidate.ContentHash] = candidate.ID
	m.order = append(m.order, candidate.ID)
	return nil
}

func (m *MockCandidateRepository) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	return m.Candidates[id], nil
}

func (m *MockCandidateRepository) HashExists(ctx context.Context, hash string) (bool, error) {
	_, exists := m.HashToID[hash]
	return exists, nil
}

func (m *MockCandidateRepository) RecentContents(ctx context.Context, limit int) ([]string, error) {
	var contents []string
	for i := len(m.order) - 1; i >= 0 && len(contents) < limit; i-- {
		contents = append(contents, m.Candidates[m.order[i]].Content)
	}
	return contents, nil
}

func (m *MockCandidateRepository) ListByPlatform(ctx context.Context, platform models.Platform, limit int) ([]*models.Candidate, error) {
	var candidates []*models.Candidate
	for i := len(m.order) - 1; i >= 0 && len(candidates) < limit; i-- {
		if c := m.Candidates[m.order[i]]; c.Platform == platform {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

func (m *MockCandidateRepository) Count(ctx context.Context) (int, error) {
	return len(m.Candidates), nil
}

// MockQueueRepository is a mock implementation of QueueRepository. It
// reproduces the storage-layer slot uniqueness: claiming an occupied
// slot returns ErrSlotTaken just like the partial unique index does.
type MockQueueRepository struct {
	Entries   map[string]*models.QueueEntry
	Published []*models.PublishedRecord
	Pending   []*models.PendingPost

	ClaimSlotCalls int
	UpdateError    error
}

func NewMockQueueRepository() *MockQueueRepository {
	return &MockQueueRepository{
		Entries: make(map[string]*models.QueueEntry),
	}
}

func (m *MockQueueRepository) Create(ctx context.Context, entry *models.QueueEntry) error {
	copied := *entry
	m.Entries[entry.ID] = &copied
	return nil
}

func (m *MockQueueRepository) GetByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	return m.Entries[id], nil
}

func (m *MockQueueRepository) UpdateStatus(ctx context.Context, id string, from, to models.QueueStatus) (bool, error) {
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	entry, exists := m.Entries[id]
	if !exists || entry.Status != from {
		return false, nil
	}
	entry.Status = to
	entry.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockQueueRepository) ListApprovedUnscheduled(ctx context.Context) ([]*models.QueueEntry, error) {
	var entries []*models.QueueEntry
	for _, entry := range m.Entries {
		if entry.Status == models.StatusApproved && entry.ScheduledAt == nil {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (m *MockQueueRepository) SlotTaken(ctx context.Context, slot time.Time) (bool, error) {
	return m.slotOccupied(slot), nil
}

func (m *MockQueueRepository) slotOccupied(slot time.Time) bool {
	for _, entry := range m.Entries {
		if entry.ScheduledAt != nil && entry.ScheduledAt.Equal(slot) &&
			(entry.Status == models.StatusScheduled || entry.Status == models.StatusPosted) {
			return true
		}
	}
	return false
}

func (m *MockQueueRepository) CountOnDay(ctx context.Context, day time.Time) (int, error) {
	count := 0
	y, mo, d := day.Date()
	for _, entry := range m.Entries {
		if entry.ScheduledAt == nil {
			continue
		}
		if entry.Status != models.StatusScheduled && entry.Status != models.StatusPosted {
			continue
		}
		// The day is interpreted in its own zone, like the SQL
		// implementation does; stored instants may carry another zone.
		ey, emo, ed := entry.ScheduledAt.In(day.Location()).Date()
		if ey == y && emo == mo && ed == d {
			count++
		}
	}
	return count, nil
}

func (m *MockQueueRepository) ClaimSlot(ctx context.Context, id string, slot time.Time) (bool, error) {
	m.ClaimSlotCalls++
	if m.slotOccupied(slot) {
		return false, repository.ErrSlotTaken
	}
	entry, exists := m.Entries[id]
	if !exists || entry.Status != models.StatusApproved {
		return false, nil
	}
	claimed := slot
	entry.ScheduledAt = &claimed
	entry.Status = models.StatusScheduled
	entry.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockQueueRepository) Reschedule(ctx context.Context, id string, slot time.Time) (bool, error) {
	if m.slotOccupied(slot) {
		return false, repository.ErrSlotTaken
	}
	entry, exists := m.Entries[id]
	if !exists || entry.Status != models.StatusScheduled {
		return false, nil
	}
	moved := slot
	entry.ScheduledAt = &moved
	entry.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockQueueRepository) ListPending(ctx context.Context, now time.Time) ([]*models.PendingPost, error) {
	if m.Pending != nil {
		return m.Pending, nil
	}
	var pending []*models.PendingPost
	for _, entry := range m.Entries {
		if entry.Status == models.StatusScheduled && entry.ScheduledAt != nil && !entry.ScheduledAt.After(now) {
			pending = append(pending, &models.PendingPost{
				QueueID:     entry.ID,
				CandidateID: entry.CandidateID,
				ScheduledAt: *entry.ScheduledAt,
			})
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ScheduledAt.Before(pending[j].ScheduledAt)
	})
	return pending, nil
}

func (m *MockQueueRepository) MarkPosted(ctx context.Context, id, postID, rawResponse string) (bool, error) {
	entry, exists := m.Entries[id]
	if !exists || entry.Status != models.StatusScheduled {
		return false, nil
	}
	entry.Status = models.StatusPosted
	entry.UpdatedAt = time.Now()
	m.Published = append(m.Published, &models.PublishedRecord{
		CandidateID: entry.CandidateID,
		PostID:      postID,
		PostedAt:    time.Now(),
		RawResponse: rawResponse,
	})
	return true, nil
}

func (m *MockQueueRepository) List(ctx context.Context, status models.QueueStatus, limit int) ([]*models.QueueItem, error) {
	var items []*models.QueueItem
	for _, entry := range m.Entries {
		if status != "" && entry.Status != status {
			continue
		}
		items = append(items, &models.QueueItem{
			ID:          entry.ID,
			Status:      entry.Status,
			ScheduledAt: entry.ScheduledAt,
			CreatedAt:   entry.CreatedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MockQueueRepository) StatusCounts(ctx context.Context) (map[models.QueueStatus]int, error) {
	counts := make(map[models.QueueStatus]int)
	for _, status := range models.AllStatuses {
		counts[status] = 0
	}
	for _, entry := range m.Entries {
		counts[entry.Status]++
	}
	return counts, nil
}

func (m *MockQueueRepository) NextScheduled(ctx context.Context) (*time.Time, error) {
	var next *time.Time
	for _, entry := range m.Entries {
		if entry.Status != models.StatusScheduled || entry.ScheduledAt == nil {
			continue
		}
		if next == nil || entry.ScheduledAt.Before(*next) {
			next = entry.ScheduledAt
		}
	}
	return next, nil
}

// MockPublishedRepository is a mock implementation of PublishedRepository
type MockPublishedRepository struct {
	Records []*models.PublishedRecord
}

func NewMockPublishedRepository() *MockPublishedRepository {
	return &MockPublishedRepository{}
}

func (m *MockPublishedRepository) GetByCandidate(ctx context.Context, candidateID string) (*models.PublishedRecord, error) {
	for _, record := range m.Records {
		if record.CandidateID == candidateID {
			return record, nil
		}
	}
	return nil, nil
}

func (m *MockPublishedRepository) CountOnDay(ctx context.Context, day time.Time) (int, error) {
	count := 0
	y, mo, d := day.Date()
	for _, record := range m.Records {
		ry, rmo, rd := record.PostedAt.In(day.Location()).Date()
		if ry == y && rmo == mo && rd == d {
			count++
		}
	}
	return count, nil
}

func (m *MockPublishedRepository) ListRecent(ctx context.Context, limit int) ([]*models.PublishedRecord, error) {
	records := append([]*models.PublishedRecord(nil), m.Records...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].PostedAt.After(records[j].PostedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// MockAuditLogRepository is a mock implementation of AuditLogRepository
type MockAuditLogRepository struct {
	Rows []AuditRow
}

// AuditRow is one recorded log append
type AuditRow struct {
	Level   string
	Message string
	Detail  string
}

func NewMockAuditLogRepository() *MockAuditLogRepository {
	return &MockAuditLogRepository{}
}

func (m *MockAuditLogRepository) Append(ctx context.Context, level, message, detail string) error {
	m.Rows = append(m.Rows, AuditRow{Level: level, Message: message, Detail: detail})
	return nil
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	Articles map[string]*models.Article
	URLToID  map[string]string
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[string]*models.Article),
		URLToID:  make(map[string]string),
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.Articles[article.ID] = article
	m.URLToID[article.URL] = article.ID
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	return m.Articles[id], nil
}

func (m *MockArticleRepository) GetByURL(ctx context.Context, url string) (*models.Article, error) {
	if id, exists := m.URLToID[url]; exists {
		return m.Articles[id], nil
	}
	return nil, nil
}

func (m *MockArticleRepository) URLExists(ctx context.Context, url string) (bool, error) {
	_, exists := m.URLToID[url]
	return exists, nil
}

func (m *MockArticleRepository) List(ctx context.Context, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	for _, article := range m.Articles {
		articles = append(articles, article)
	}
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	return len(m.Articles), nil
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	Values map[string]string
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{Values: make(map[string]string)}
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	return m.Values[key], nil
}

func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	m.Values[key] = value
	return nil
}
