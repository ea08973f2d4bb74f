package voice

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the voice and style configuration consumed by generation
// and by the safety filter's deny-list. Loaded once at startup;
// read-only afterwards.
type Profile struct {
	Topics         []string          `yaml:"topics"`
	Tone           map[string]bool   `yaml:"tone"`
	ForbiddenWords []string          `yaml:"forbidden_words"`
	Patterns       []string          `yaml:"patterns"`
	Examples       []string          `yaml:"examples"`
	Style          StyleSettings      `yaml:"style"`
	Generation     GenerationSettings `yaml:"generation"`
}

// StyleSettings controls surface features of generated posts
type StyleSettings struct {
	PreferredLength string `yaml:"preferred_length"`
	UseQuestions    bool   `yaml:"use_questions"`
	UseExamples     bool   `yaml:"use_examples"`
	UseHashtags     string `yaml:"use_hashtags"`
	UseEmojis       bool   `yaml:"use_emojis"`
	UseThreads      bool   `yaml:"use_threads"`
}

// GenerationSettings controls LLM generation parameters
type GenerationSettings struct {
	Temperature       float64 `yaml:"temperature"`
	ConceptualDensity string  `yaml:"conceptual_density"`
	IncludeCTA        bool    `yaml:"include_call_to_action"`
	MaxHashtags       int     `yaml:"max_hashtags"`
}

// Default returns the built-in profile used when no file is present
func Default() *Profile {
	return &Profile{
		Topics: []string{"ética", "filosofía", "tecnología"},
		Tone: map[string]bool{
			"formal":    true,
			"académico": true,
			"claro":     true,
			"crítico":   true,
		},
		Style: StyleSettings{
			PreferredLength: "media",
			UseQuestions:    true,
			UseExamples:     true,
			UseHashtags:     "moderado",
			UseThreads:      true,
		},
		Generation: GenerationSettings{
			Temperature:       0.7,
			ConceptualDensity: "alta",
			IncludeCTA:        true,
			MaxHashtags:       2,
		},
	}
}

// Load reads a profile from a YAML file, falling back to the default
// profile when the file does not exist
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read voice profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse voice profile %s: %w", path, err)
	}

	return &profile, nil
}

// ToPrompt renders the profile as style instructions for an LLM
func (p *Profile) ToPrompt() string {
	var parts []string

	if len(p.Topics) > 0 {
		parts = append(parts, "Temas prioritarios: "+strings.Join(p.Topics, ", "))
	}

	var tone []string
	for key, enabled := range p.Tone {
		if enabled {
			tone = append(tone, strings.ReplaceAll(key, "_", " "))
		}
	}
	sort.Strings(tone)
	if len(tone) > 0 {
		parts = append(parts, "Tono: "+strings.Join(tone, ", "))
	}

	if len(p.Patterns) > 0 {
		parts = append(parts, "Patrones argumentativos:")
		for _, pattern := range p.Patterns {
			parts = append(parts, "- "+pattern)
		}
	}

	if len(p.Examples) > 0 {
		parts = append(parts, "", "Ejemplos:")
		examples := p.Examples
		if len(examples) > 5 {
			examples = examples[:5]
		}
		for _, example := range examples {
			parts = append(parts, "- "+example)
		}
	}

	if len(p.ForbiddenWords) > 0 {
		parts = append(parts, "", "Evitar usar: "+strings.Join(p.ForbiddenWords, ", "))
	}

	return strings.Join(parts, "\n")
}
