package filter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/repository"
	"github.com/rs/zerolog"
)

// Reason identifies which rule rejected a candidate text
type Reason string

const (
	ReasonDuplicate     Reason = "duplicate"
	ReasonForbiddenWord Reason = "forbidden-word"
	ReasonAggressive    Reason = "aggressive-language"
	ReasonMisleading    Reason = "misleading-content"
	ReasonTooLong       Reason = "too-long"
	ReasonTooShort      Reason = "too-short"
)

// Result is the outcome of validating one candidate text. Rejection is
// an expected outcome, not an error; Reason names the first violated
// rule only.
type Result struct {
	OK     bool
	Reason Reason
	Detail string
}

// Platform length limits
const (
	maxLengthX        = 280
	maxLengthLinkedIn = 3000
	minLength         = 10
)

// Heuristic blocklists. Patterns are word-boundary anchored and kept
// narrow: a false negative costs one bad draft in the review queue, a
// false positive silently discards a good one.
var aggressivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bestúpid[oa]s?\b`),
	regexp.MustCompile(`\bidiot[oa]s?\b`),
	regexp.MustCompile(`\bimbécil(es)?\b`),
	regexp.MustCompile(`\bpelotud[oa]s?\b`),
	regexp.MustCompile(`\bboludos?\b`),
	regexp.MustCompile(`\bpendej[oa]s?\b`),
	regexp.MustCompile(`\bataques?\b.*\bpersonal(es)?\b`),
	regexp.MustCompile(`\bvos\b.*\b(sos|eres)\b.*\b(un|una)\b`),
}

var misleadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`click\s+aqu[íi]`),
	regexp.MustCompile(`haz\s+click`),
	regexp.MustCompile(`sigue\s+este\s+enlace`),
	regexp.MustCompile(`garant[íi]a`),
	regexp.MustCompile(`100%\s+(seguro|efectivo|gratis)`),
	regexp.MustCompile(`(gana|gan[áa])\s+(dinero|plata)`),
}

// Filter validates candidate texts before they may be persisted or
// queued. It only reads from the store; every call re-queries, so the
// store stays the single source of truth.
type Filter struct {
	candidates     repository.CandidateRepository
	forbiddenWords []string
	threshold      float64
	window         int
	lev            *metrics.Levenshtein
	log            zerolog.Logger
}

// New creates a filter. forbiddenWords comes from the voice profile's
// deny-list.
func New(candidates repository.CandidateRepository, forbiddenWords []string, cfg config.FilterConfig, log zerolog.Logger) *Filter {
	return &Filter{
		candidates:     candidates,
		forbiddenWords: forbiddenWords,
		threshold:      cfg.FuzzyThreshold,
		window:         cfg.RecentWindow,
		lev:            metrics.NewLevenshtein(),
		log:            log.With().Str("component", "filter").Logger(),
	}
}

// Validate runs all checks in fixed order, short-circuiting on the
// first violated rule. Only unexpected store errors are returned as
// errors.
func (f *Filter) Validate(ctx context.Context, text string, platform models.Platform) (Result, error) {
	dup, detail, err := f.isDuplicate(ctx, text)
	if err != nil {
		return Result{}, err
	}
	if dup {
		return Result{Reason: ReasonDuplicate, Detail: detail}, nil
	}

	if word := f.findForbiddenWord(text); word != "" {
		f.log.Warn().Str("word", word).Msg("Forbidden word found")
		return Result{Reason: ReasonForbiddenWord, Detail: fmt.Sprintf("contains forbidden word %q", word)}, nil
	}

	if pattern := matchAny(text, aggressivePatterns); pattern != "" {
		f.log.Warn().Str("pattern", pattern).Msg("Aggressive language detected")
		return Result{Reason: ReasonAggressive, Detail: "contains aggressive or personal-attack language"}, nil
	}

	if pattern := matchAny(text, misleadingPatterns); pattern != "" {
		f.log.Warn().Str("pattern", pattern).Msg("Misleading content detected")
		return Result{Reason: ReasonMisleading, Detail: "contains misleading or clickbait phrasing"}, nil
	}

	if result := checkLength(text, platform); !result.OK {
		return result, nil
	}

	return Result{OK: true}, nil
}

// isDuplicate applies the exact hash lookup, then the fuzzy comparison
// against the recent candidate window
func (f *Filter) isDuplicate(ctx context.Context, text string) (bool, string, error) {
	exists, err := f.candidates.HashExists(ctx, HashContent(text))
	if err != nil {
		return false, "", fmt.Errorf("duplicate hash lookup: %w", err)
	}
	if exists {
		f.log.Info().Str("text", truncate(text, 50)).Msg("Exact duplicate found")
		return true, "identical to an existing candidate", nil
	}

	recent, err := f.candidates.RecentContents(ctx, f.window)
	if err != nil {
		return false, "", fmt.Errorf("recent candidates lookup: %w", err)
	}

	normalized := Normalize(text)
	for _, existing := range recent {
		similarity := strutil.Similarity(normalized, Normalize(existing), f.lev)
		if similarity >= f.threshold {
			f.log.Info().
				Float64("similarity", similarity).
				Str("text", truncate(text, 50)).
				Msg("Near-duplicate found")
			return true, fmt.Sprintf("too similar to an existing candidate (%.2f)", similarity), nil
		}
	}

	return false, "", nil
}

// findForbiddenWord returns the first deny-list hit, case-insensitive
// substring match
func (f *Filter) findForbiddenWord(text string) string {
	lower := strings.ToLower(text)
	for _, word := range f.forbiddenWords {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return word
		}
	}
	return ""
}

// checkLength applies the platform's length policy: X counts every URL
// as 23 characters against a 280 limit, LinkedIn counts raw runes
// against 3000. Both reject raw length under 10.
func checkLength(text string, platform models.Platform) Result {
	if len([]rune(text)) < minLength {
		return Result{Reason: ReasonTooShort, Detail: fmt.Sprintf("below minimum of %d characters", minLength)}
	}

	switch platform {
	case models.PlatformLinkedIn:
		if n := len([]rune(text)); n > maxLengthLinkedIn {
			return Result{Reason: ReasonTooLong, Detail: fmt.Sprintf("%d characters exceeds LinkedIn limit of %d", n, maxLengthLinkedIn)}
		}
	default:
		if n := EffectiveLength(text); n > maxLengthX {
			return Result{Reason: ReasonTooLong, Detail: fmt.Sprintf("effective length %d exceeds limit of %d", n, maxLengthX)}
		}
	}

	return Result{OK: true}
}

func matchAny(text string, patterns []*regexp.Regexp) string {
	lower := strings.ToLower(text)
	for _, pattern := range patterns {
		if pattern.MatchString(lower) {
			return pattern.String()
		}
	}
	return ""
}

func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
