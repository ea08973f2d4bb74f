package generate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/federicoviola/AppTwitter/internal/filter"
	"github.com/federicoviola/AppTwitter/internal/mocks"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/voice"
	"github.com/rs/zerolog"
)

// stubBackend returns a fixed completion, or fails
type stubBackend struct {
	text string
	err  error
}

func (s *stubBackend) Generate(ctx context.Context, prompt string, maxTokens int, systemInstruction string) (string, error) {
	return s.text, s.err
}

func (s *stubBackend) Available() bool { return true }

type testEnv struct {
	generator  *Generator
	articles   *mocks.MockArticleRepository
	candidates *mocks.MockCandidateRepository
}

func newTestEnv(backend *stubBackend, forbiddenWords []string) *testEnv {
	articles := mocks.NewMockArticleRepository()
	candidates := mocks.NewMockCandidateRepository()

	profile := voice.Default()
	profile.ForbiddenWords = forbiddenWords

	safety := filter.New(candidates, forbiddenWords, config.FilterConfig{
		FuzzyThreshold: 0.85,
		RecentWindow:   100,
	}, zerolog.Nop())

	var g *Generator
	if backend != nil {
		g = New(articles, candidates, safety, profile, backend, 300, zerolog.Nop())
	} else {
		g = New(articles, candidates, safety, profile, nil, 300, zerolog.Nop())
	}

	return &testEnv{generator: g, articles: articles, candidates: candidates}
}

func seedArticle(t *testing.T, env *testEnv) *models.Article {
	t.Helper()
	article := &models.Article{
		ID:          "art-1",
		Title:       "Ética de la inteligencia artificial",
		URL:         "https://example.com/etica-ia",
		Summary:     "Un recorrido por los dilemas éticos del aprendizaje automático.",
		Language:    "es",
		PublishedAt: time.Now(),
	}
	if err := env.articles.Create(context.Background(), article); err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return article
}

func TestGenerateFromBackend(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(&stubBackend{text: "Pensar la técnica es pensar lo que nos hace humanos."}, nil)

	candidate, err := env.generator.Generate(ctx, models.PlatformX, models.TypeThought, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if candidate.Content != "Pensar la técnica es pensar lo que nos hace humanos." {
		t.Errorf("content = %q", candidate.Content)
	}
	if candidate.Metadata["generator"] != "llm" {
		t.Errorf("generator tag = %q, want llm", candidate.Metadata["generator"])
	}
	if candidate.ContentHash != filter.HashContent(candidate.Content) {
		t.Error("content hash does not match content")
	}
	if _, exists := env.candidates.Candidates[candidate.ID]; !exists {
		t.Error("candidate was not persisted")
	}
}

func TestGenerateFallsBackToTemplateOnBackendError(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(&stubBackend{err: errors.New("backend down")}, nil)
	article := seedArticle(t, env)

	candidate, err := env.generator.Generate(ctx, models.PlatformX, models.TypePromo, article.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if candidate.Metadata["generator"] != "template" {
		t.Errorf("generator tag = %q, want template", candidate.Metadata["generator"])
	}
	if candidate.ArticleID != article.ID {
		t.Errorf("article id = %q, want %q", candidate.ArticleID, article.ID)
	}
	if candidate.Metadata["article_url"] != article.URL {
		t.Errorf("article_url = %q, want %q", candidate.Metadata["article_url"], article.URL)
	}
}

func TestGenerateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(&stubBackend{text: "La misma idea repetida palabra por palabra otra vez."}, nil)

	if _, err := env.generator.Generate(ctx, models.PlatformX, models.TypeThought, ""); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	_, err := env.generator.Generate(ctx, models.PlatformX, models.TypeThought, "")
	if !errors.Is(err, ErrRejected) {
		t.Errorf("second Generate error = %v, want ErrRejected", err)
	}
}

func TestGenerateRejectsForbiddenWord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(&stubBackend{text: "Invertí en crypto hoy mismo y no te arrepientas."}, []string{"crypto"})

	_, err := env.generator.Generate(ctx, models.PlatformX, models.TypeThought, "")
	if !errors.Is(err, ErrRejected) {
		t.Errorf("Generate error = %v, want ErrRejected", err)
	}
}

func TestGenerateTruncatesLongTextForX(t *testing.T) {
	ctx := context.Background()
	long := ""
	for i := 0; i < 40; i++ {
		long += fmt.Sprintf("fragmento número %d de un texto demasiado largo. ", i)
	}
	env := newTestEnv(&stubBackend{text: long}, nil)

	candidate, err := env.generator.Generate(ctx, models.PlatformX, models.TypeThought, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n := filter.EffectiveLength(candidate.Content); n > 280 {
		t.Errorf("effective length = %d, want <= 280", n)
	}
}

func TestGenerateValidatesInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil, nil)

	if _, err := env.generator.Generate(ctx, models.PlatformX, "press-release", ""); err == nil {
		t.Error("expected error for unknown post type")
	}
	if _, err := env.generator.Generate(ctx, "mastodon", models.TypeThought, ""); err == nil {
		t.Error("expected error for unknown platform")
	}
	if _, err := env.generator.Generate(ctx, models.PlatformX, models.TypePromo, "missing"); err == nil {
		t.Error("expected error for missing article")
	}
}

func TestBatchSkipsRejectedAndRotatesArticles(t *testing.T) {
	ctx := context.Background()
	// A fixed backend makes every post after the first a duplicate.
	env := newTestEnv(&stubBackend{text: "Una única reflexión que se repite en cada intento."}, nil)

	ids, err := env.generator.Batch(ctx, models.PlatformX, map[string]int{models.TypeThought: 3})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("persisted %d candidates, want 1 (duplicates skipped)", len(ids))
	}
}
