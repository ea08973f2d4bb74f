package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Summary reports the outcome of one import run
type Summary struct {
	Imported int
	Skipped  int
	Errors   int
}

// Importer loads articles from CSV or JSON files, deduplicating on the
// canonical URL
type Importer struct {
	articles repository.ArticleRepository
	log      zerolog.Logger
}

// New creates an importer
func New(articles repository.ArticleRepository, log zerolog.Logger) *Importer {
	return &Importer{
		articles: articles,
		log:      log.With().Str("component", "ingest").Logger(),
	}
}

// ImportFile imports articles from a file, dispatching on the
// extension (.csv or .json)
func (i *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return i.ImportCSV(ctx, path)
	case ".json":
		return i.ImportJSON(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported file type %q: want .csv or .json", filepath.Ext(path))
	}
}

// ImportCSV imports articles from a CSV file with a header row:
// title,url,platform,published_at,tags,summary,language
func (i *Importer) ImportCSV(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for col, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = col
	}

	field := func(row []string, name string) string {
		col, exists := index[name]
		if !exists || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	summary := &Summary{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			i.log.Error().Err(err).Msg("Error reading CSV row")
			summary.Errors++
			continue
		}

		record := &models.ArticleRecord{
			Title:       field(row, "title"),
			URL:         field(row, "url"),
			Platform:    field(row, "platform"),
			PublishedAt: field(row, "published_at"),
			Summary:     field(row, "summary"),
			Language:    field(row, "language"),
		}
		if tags := field(row, "tags"); tags != "" {
			record.Tags = splitTags(tags)
		}

		i.importRecord(ctx, record, summary)
	}

	i.log.Info().
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Msg("CSV import completed")

	return summary, nil
}

// ImportJSON imports articles from a JSON file holding one article
// object or an array of them
func (i *Importer) ImportJSON(ctx context.Context, path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []*models.ArticleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		var single models.ArticleRecord
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parse JSON articles: %w", err)
		}
		records = []*models.ArticleRecord{&single}
	}

	summary := &Summary{}
	for _, record := range records {
		i.importRecord(ctx, record, summary)
	}

	i.log.Info().
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Msg("JSON import completed")

	return summary, nil
}

// importRecord validates and persists one record, counting the outcome
func (i *Importer) importRecord(ctx context.Context, record *models.ArticleRecord, summary *Summary) {
	article, err := parseRecord(record)
	if err != nil {
		i.log.Error().Err(err).Str("url", record.URL).Msg("Invalid article record")
		summary.Errors++
		return
	}

	exists, err := i.articles.URLExists(ctx, article.URL)
	if err != nil {
		i.log.Error().Err(err).Msg("URL lookup failed")
		summary.Errors++
		return
	}
	if exists {
		i.log.Info().Str("title", article.Title).Msg("Article already exists")
		summary.Skipped++
		return
	}

	if err := i.articles.Create(ctx, article); err != nil {
		i.log.Error().Err(err).Str("url", article.URL).Msg("Error importing article")
		summary.Errors++
		return
	}

	i.log.Info().Str("title", article.Title).Msg("Article imported")
	summary.Imported++
}

// parseRecord turns a raw import record into an Article
func parseRecord(record *models.ArticleRecord) (*models.Article, error) {
	if record.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if record.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	publishedAt, err := parseDate(record.PublishedAt)
	if err != nil {
		return nil, err
	}

	language := record.Language
	if language == "" {
		language = "es"
	}
	platform := record.Platform
	if platform == "" {
		platform = "otro"
	}

	return &models.Article{
		ID:          uuid.New().String(),
		Title:       record.Title,
		URL:         record.URL,
		Platform:    platform,
		PublishedAt: publishedAt,
		Tags:        record.Tags,
		Summary:     record.Summary,
		Language:    language,
		CreatedAt:   time.Now(),
	}, nil
}

// parseDate accepts the handful of date formats seen in practice
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02/01/2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
