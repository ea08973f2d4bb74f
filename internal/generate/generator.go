package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/federicoviola/AppTwitter/internal/filter"
	"github.com/federicoviola/AppTwitter/internal/llm"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/repository"
	"github.com/federicoviola/AppTwitter/internal/voice"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrRejected reports that the generated text did not pass the safety
// filter. The wrapped message carries the reason.
var ErrRejected = errors.New("generated candidate rejected")

// Generator produces post candidates from templates or an LLM backend,
// runs them through the safety filter and persists the survivors
type Generator struct {
	articles   repository.ArticleRepository
	candidates repository.CandidateRepository
	safety     *filter.Filter
	profile    *voice.Profile
	backend    llm.TextGenerator
	maxTokens  int
	rng        *rand.Rand
	log        zerolog.Logger
}

// New creates a generator. backend may be nil; template generation is
// the fallback.
func New(articles repository.ArticleRepository, candidates repository.CandidateRepository, safety *filter.Filter, profile *voice.Profile, backend llm.TextGenerator, maxTokens int, log zerolog.Logger) *Generator {
	return &Generator{
		articles:   articles,
		candidates: candidates,
		safety:     safety,
		profile:    profile,
		backend:    backend,
		maxTokens:  maxTokens,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		log:        log.With().Str("component", "generator").Logger(),
	}
}

// Generate produces one candidate of the given type for the given
// platform, optionally promoting an article. The text is validated
// before persisting; rejection returns ErrRejected.
func (g *Generator) Generate(ctx context.Context, platform models.Platform, postType, articleID string) (*models.Candidate, error) {
	if !models.ValidTypes[postType] {
		return nil, fmt.Errorf("invalid post type %q", postType)
	}
	if !models.ValidPlatforms[platform] {
		return nil, fmt.Errorf("invalid platform %q", platform)
	}

	var article *models.Article
	if articleID != "" {
		var err error
		article, err = g.articles.GetByID(ctx, articleID)
		if err != nil {
			return nil, err
		}
		if article == nil {
			return nil, fmt.Errorf("article %s not found", articleID)
		}
	}

	content, generator, err := g.produce(ctx, platform, postType, article)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("cannot generate type %q without an article", postType)
	}

	// Keep short-form output inside the platform limit before
	// validation; the filter would otherwise reject a near-miss draft.
	if platform == models.PlatformX && filter.EffectiveLength(content) > 280 {
		content = truncate(content, 280)
	}

	result, err := g.safety.Validate(ctx, content, platform)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		g.log.Warn().
			Str("reason", string(result.Reason)).
			Str("detail", result.Detail).
			Msg("Generated text rejected")
		return nil, fmt.Errorf("%w: %s", ErrRejected, result.Reason)
	}

	candidate := &models.Candidate{
		ID:          uuid.New().String(),
		Content:     content,
		ContentHash: filter.HashContent(content),
		Type:        postType,
		Platform:    platform,
		Metadata:    map[string]string{"generator": generator},
		CreatedAt:   time.Now(),
	}
	if article != nil {
		candidate.ArticleID = article.ID
		// LinkedIn stores the link as an attachment, not inline; keep
		// it in metadata for the dispatcher.
		candidate.Metadata["article_url"] = article.URL
		candidate.Metadata["article_title"] = article.Title
	}

	if err := g.candidates.Create(ctx, candidate); err != nil {
		if errors.Is(err, repository.ErrDuplicateContent) {
			return nil, fmt.Errorf("%w: %s", ErrRejected, filter.ReasonDuplicate)
		}
		return nil, err
	}

	g.log.Info().
		Str("candidate_id", candidate.ID).
		Str("type", postType).
		Str("platform", string(platform)).
		Str("generator", generator).
		Msg("Candidate generated")

	return candidate, nil
}

// Batch generates candidates per the type mix, skipping rejected texts,
// and returns the IDs of the persisted candidates
func (g *Generator) Batch(ctx context.Context, platform models.Platform, mix map[string]int) ([]string, error) {
	// Promo posts need an article; rotate through the latest ones.
	articles, err := g.articles.List(ctx, 10)
	if err != nil {
		return nil, err
	}

	var ids []string
	articleIdx := 0
	for postType, count := range mix {
		for i := 0; i < count; i++ {
			articleID := ""
			if postType == models.TypePromo && len(articles) > 0 {
				articleID = articles[articleIdx%len(articles)].ID
				articleIdx++
			}

			candidate, err := g.Generate(ctx, platform, postType, articleID)
			if errors.Is(err, ErrRejected) {
				continue
			}
			if err != nil {
				return ids, err
			}
			ids = append(ids, candidate.ID)
		}
	}

	return ids, nil
}

// produce returns the post text and the generator tag ("llm" or
// "template")
func (g *Generator) produce(ctx context.Context, platform models.Platform, postType string, article *models.Article) (string, string, error) {
	if g.backend != nil && g.backend.Available() {
		content, err := g.backend.Generate(ctx, g.buildPrompt(platform, postType, article), g.maxTokens, g.profile.ToPrompt())
		if err != nil {
			g.log.Warn().Err(err).Msg("LLM generation failed, falling back to template")
		} else if content != "" {
			return content, "llm", nil
		}
	}

	return g.fromTemplate(platform, postType, article), "template", nil
}

func (g *Generator) fromTemplate(platform models.Platform, postType string, article *models.Article) string {
	switch postType {
	case models.TypePromo:
		if article == nil {
			return ""
		}
		templates := []string{
			fmt.Sprintf("Nuevo artículo: %s\n\n%s\n\n%s", article.Title, article.Summary, article.URL),
			fmt.Sprintf("%s\n\n%s\n\nLeer más: %s", article.Title, article.Summary, article.URL),
		}
		return templates[g.rng.Intn(len(templates))]

	case models.TypeThought:
		if len(g.profile.Examples) > 0 {
			return g.profile.Examples[g.rng.Intn(len(g.profile.Examples))]
		}
		if topic := g.pickTopic(); topic != "" {
			templates := []string{
				fmt.Sprintf("La %s no es solo teoría: es una forma de mirar el mundo.", topic),
				fmt.Sprintf("Pensar la %s hoy exige cuestionar las categorías heredadas.", topic),
			}
			return templates[g.rng.Intn(len(templates))]
		}
		return "Pensar es cuestionar lo dado, no repetir lo sabido."

	case models.TypeQuestion:
		if topic := g.pickTopic(); topic != "" {
			templates := []string{
				fmt.Sprintf("¿Qué significa realmente hablar de %s hoy?", topic),
				fmt.Sprintf("¿Cómo pensamos la %s sin caer en el moralismo?", topic),
			}
			return templates[g.rng.Intn(len(templates))]
		}
		return "¿Qué significa pensar en lugar de repetir?"

	case models.TypeThread:
		if article != nil {
			return fmt.Sprintf("🧵 Hilo sobre %s\n\n1/ %s", article.Title, truncate(article.Summary, 200))
		}
		topic := g.pickTopic()
		if topic == "" {
			topic = "este tema"
		}
		return fmt.Sprintf("🧵 Algunas reflexiones sobre %s\n\n1/ Empecemos por cuestionar las categorías que damos por sentadas...", topic)

	case models.TypeInsight:
		topic := g.pickTopic()
		if topic == "" {
			topic = "nuestro campo"
		}
		return fmt.Sprintf("Una idea que me sigue dando vueltas sobre %s:\n\nlas herramientas cambian más rápido que las preguntas que les hacemos.\n\n¿Qué pregunta deberíamos estar haciendo hoy?", topic)

	default:
		return ""
	}
}

func (g *Generator) pickTopic() string {
	if len(g.profile.Topics) == 0 {
		return ""
	}
	return g.profile.Topics[g.rng.Intn(len(g.profile.Topics))]
}

// buildPrompt assembles the LLM instructions for one post
func (g *Generator) buildPrompt(platform models.Platform, postType string, article *models.Article) string {
	parts := []string{
		"INSTRUCCIONES:",
		"1. Analiza cuidadosamente el perfil de voz proporcionado.",
		"2. Piensa en cómo el autor abordaría el tema (tono, vocabulario, estructura).",
		"3. Genera un texto que parezca escrito por este autor, no por una IA.",
		"",
	}

	if article != nil {
		parts = append(parts,
			fmt.Sprintf("Artículo a promocionar: %s", article.Title),
			fmt.Sprintf("Resumen: %s", article.Summary),
			fmt.Sprintf("Enlace: %s", article.URL),
			"",
		)
	}

	parts = append(parts, fmt.Sprintf("Tipo de publicación: %s", postType))

	if platform == models.PlatformLinkedIn {
		parts = append(parts,
			"Plataforma: LinkedIn.",
			"- Máximo 3000 caracteres.",
			"- El enlace se adjunta aparte, no lo incluyas en el texto.",
		)
	} else {
		parts = append(parts,
			"Plataforma: X.",
			"- Importante: cada enlace cuenta como 23 caracteres. El total NO debe exceder los 280 caracteres.",
		)
	}

	return strings.Join(parts, "\n")
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
