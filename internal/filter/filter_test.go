package filter

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/federicoviola/AppTwitter/internal/mocks"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/rs/zerolog"
)

func newTestFilter(candidates *mocks.MockCandidateRepository, forbiddenWords []string) *Filter {
	return New(candidates, forbiddenWords, config.FilterConfig{
		FuzzyThreshold: 0.85,
		RecentWindow:   100,
	}, zerolog.Nop())
}

func seedCandidate(t *testing.T, repo *mocks.MockCandidateRepository, content string) {
	t.Helper()
	err := repo.Create(context.Background(), &models.Candidate{
		ID:          fmt.Sprintf("seed-%d", len(repo.Candidates)+1),
		Content:     content,
		ContentHash: HashContent(content),
		Type:        models.TypeThought,
		Platform:    models.PlatformX,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and strips punctuation",
			input: "¡Hola, Mundo!",
			want:  "hola mundo",
		},
		{
			name:  "strips urls",
			input: "Lee esto https://example.com/post ahora",
			want:  "lee esto ahora",
		},
		{
			name:  "strips mentions and hashtags",
			input: "Gracias @federico por el aporte #filosofía",
			want:  "gracias por el aporte",
		},
		{
			name:  "collapses whitespace",
			input: "uno   dos\n\ttres",
			want:  "uno dos tres",
		},
		{
			name:  "keeps accented words",
			input: "La ética y la tecnología",
			want:  "la ética y la tecnología",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashContentIgnoresSurfaceDifferences(t *testing.T) {
	a := HashContent("La ética importa. #filosofía https://example.com/a")
	b := HashContent("la ÉTICA importa")
	if a != b {
		t.Errorf("hashes differ for texts that normalize identically: %s vs %s", a, b)
	}

	c := HashContent("La estética importa")
	if a == c {
		t.Error("hashes match for different texts")
	}
}

func TestEffectiveLength(t *testing.T) {
	longURL := "https://example.com/very/long/path/that/goes/on/and/on/for/a/while/2026"

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "plain text counts runes", input: "hola mundo", want: 10},
		{name: "url costs exactly 23", input: longURL, want: 23},
		{name: "text plus url", input: "Lee esto: " + longURL, want: 10 + 23},
		{name: "accented runes count once", input: "ética", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveLength(tt.input); got != tt.want {
				t.Errorf("EffectiveLength(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateDuplicates(t *testing.T) {
	ctx := context.Background()

	t.Run("exact duplicate rejected", func(t *testing.T) {
		repo := mocks.NewMockCandidateRepository()
		seedCandidate(t, repo, "La ética de la técnica es el problema de nuestra época")
		f := newTestFilter(repo, nil)

		// Same text with different case, punctuation and a hashtag.
		result, err := f.Validate(ctx, "la ÉTICA de la técnica es el problema de nuestra época!! #filosofía", models.PlatformX)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if result.OK || result.Reason != ReasonDuplicate {
			t.Errorf("got %+v, want duplicate rejection", result)
		}
	})

	t.Run("near duplicate rejected", func(t *testing.T) {
		repo := mocks.NewMockCandidateRepository()
		seedCandidate(t, repo, "La inteligencia artificial plantea preguntas éticas fundamentales para nuestra época")
		f := newTestFilter(repo, nil)

		result, err := f.Validate(ctx, "La inteligencia artificial plantea preguntas éticas fundamentales para nuestro tiempo", models.PlatformX)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if result.OK || result.Reason != ReasonDuplicate {
			t.Errorf("got %+v, want near-duplicate rejection", result)
		}
	})

	t.Run("dissimilar text passes", func(t *testing.T) {
		repo := mocks.NewMockCandidateRepository()
		seedCandidate(t, repo, "La inteligencia artificial plantea preguntas éticas fundamentales para nuestra época")
		f := newTestFilter(repo, nil)

		result, err := f.Validate(ctx, "¿Qué significa pensar la tecnología desde la filosofía práctica?", models.PlatformX)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !result.OK {
			t.Errorf("got rejection %+v, want pass", result)
		}
	})
}

func TestValidateContentRules(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		text       string
		platform   models.Platform
		forbidden  []string
		wantOK     bool
		wantReason Reason
	}{
		{
			name:     "clean text passes",
			text:     "Pensar es cuestionar lo dado, no repetir lo sabido.",
			platform: models.PlatformX,
			wantOK:   true,
		},
		{
			name:       "forbidden word rejected case-insensitively",
			text:       "Este post habla de CRYPTO y otras cosas.",
			platform:   models.PlatformX,
			forbidden:  []string{"crypto", "sorteo"},
			wantReason: ReasonForbiddenWord,
		},
		{
			name:       "aggressive language rejected",
			text:       "No seas estúpido, esto es evidente para cualquiera.",
			platform:   models.PlatformX,
			wantReason: ReasonAggressive,
		},
		{
			name:       "clickbait rejected",
			text:       "Haz click aquí para conocer el secreto definitivo.",
			platform:   models.PlatformX,
			wantReason: ReasonMisleading,
		},
		{
			name:       "too short rejected",
			text:       "Hola",
			platform:   models.PlatformX,
			wantReason: ReasonTooShort,
		},
		{
			name:     "exactly 280 passes on X",
			text:     strings.Repeat("a", 280),
			platform: models.PlatformX,
			wantOK:   true,
		},
		{
			name:       "281 rejected on X",
			text:       strings.Repeat("a", 281),
			platform:   models.PlatformX,
			wantReason: ReasonTooLong,
		},
		{
			name:     "long text passes on LinkedIn",
			text:     strings.Repeat("a", 2000),
			platform: models.PlatformLinkedIn,
			wantOK:   true,
		},
		{
			name:       "over 3000 rejected on LinkedIn",
			text:       strings.Repeat("a", 3001),
			platform:   models.PlatformLinkedIn,
			wantReason: ReasonTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFilter(mocks.NewMockCandidateRepository(), tt.forbidden)
			result, err := f.Validate(ctx, tt.text, tt.platform)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if result.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v (%+v)", result.OK, tt.wantOK, result)
			}
			if !tt.wantOK && result.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidateURLCostsFixedLengthOnX(t *testing.T) {
	ctx := context.Background()
	longURL := "https://example.com/" + strings.Repeat("x", 150)

	t.Run("long url fits when effective length does", func(t *testing.T) {
		f := newTestFilter(mocks.NewMockCandidateRepository(), nil)
		text := strings.Repeat("a", 250) + " " + longURL // effective 250+1+23
		result, err := f.Validate(ctx, text, models.PlatformX)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !result.OK {
			t.Errorf("got rejection %+v, want pass", result)
		}
	})

	t.Run("rejected once effective length exceeds 280", func(t *testing.T) {
		f := newTestFilter(mocks.NewMockCandidateRepository(), nil)
		text := strings.Repeat("a", 260) + " " + longURL // effective 260+1+23
		result, err := f.Validate(ctx, text, models.PlatformX)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if result.OK || result.Reason != ReasonTooLong {
			t.Errorf("got %+v, want too-long rejection", result)
		}
	})
}

func TestValidateReportsFirstViolationOnly(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockCandidateRepository()
	text := "Este post menciona crypto y nada más que eso."
	seedCandidate(t, repo, text)
	f := newTestFilter(repo, []string{"crypto"})

	// Both a duplicate and a forbidden word; the duplicate check runs
	// first.
	result, err := f.Validate(ctx, text, models.PlatformX)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Reason != ReasonDuplicate {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonDuplicate)
	}
}
