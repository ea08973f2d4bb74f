package voice

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	profile, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(profile.Topics) == 0 {
		t.Error("default profile has no topics")
	}
	if profile.Generation.Temperature == 0 {
		t.Error("default profile has no temperature")
	}
}

func TestLoadFromFile(t *testing.T) {
	raw := `
topics:
  - ética
  - epistemología
tone:
  formal: true
  irónico: false
forbidden_words:
  - sorteo
  - crypto
examples:
  - "Pensar es cuestionar lo dado."
style:
  use_questions: true
  use_hashtags: moderado
generation:
  temperature: 0.5
  max_hashtags: 1
`
	path := filepath.Join(t.TempDir(), "voice.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	profile, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(profile.Topics) != 2 || profile.Topics[1] != "epistemología" {
		t.Errorf("topics = %v", profile.Topics)
	}
	if !profile.Tone["formal"] || profile.Tone["irónico"] {
		t.Errorf("tone = %v", profile.Tone)
	}
	if len(profile.ForbiddenWords) != 2 {
		t.Errorf("forbidden words = %v", profile.ForbiddenWords)
	}
	if profile.Generation.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", profile.Generation.Temperature)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.yaml")
	if err := os.WriteFile(path, []byte("topics: [unclosed"), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestToPrompt(t *testing.T) {
	profile := &Profile{
		Topics:         []string{"ética", "tecnología"},
		Tone:           map[string]bool{"formal": true, "irónico": false, "claro": true},
		ForbiddenWords: []string{"sorteo"},
		Examples:       []string{"Un ejemplo."},
	}

	prompt := profile.ToPrompt()
	for _, want := range []string{"ética, tecnología", "claro, formal", "Un ejemplo.", "sorteo"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "irónico") {
		t.Error("prompt includes a disabled tone")
	}
}
