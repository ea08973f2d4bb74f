package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Schedule.Slots) != 2 {
		t.Errorf("slots = %v, want two defaults", cfg.Schedule.Slots)
	}
	if cfg.Schedule.MaxPerDay != 2 {
		t.Errorf("max per day = %d, want 2", cfg.Schedule.MaxPerDay)
	}
	if cfg.Filter.FuzzyThreshold != 0.85 {
		t.Errorf("fuzzy threshold = %v, want 0.85", cfg.Filter.FuzzyThreshold)
	}
	if cfg.Filter.RecentWindow != 100 {
		t.Errorf("recent window = %d, want 100", cfg.Filter.RecentWindow)
	}
	if cfg.Dispatch.PollInterval != 60*time.Second {
		t.Errorf("poll interval = %v, want 60s", cfg.Dispatch.PollInterval)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("POST_SLOT_MORNING", "08:30")
	t.Setenv("MAX_POSTS_PER_DAY", "5")
	t.Setenv("DUPLICATE_THRESHOLD", "0.9")
	t.Setenv("DISPATCH_POLL_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.Slots[0] != "08:30" {
		t.Errorf("morning slot = %s, want 08:30", cfg.Schedule.Slots[0])
	}
	if cfg.Schedule.MaxPerDay != 5 {
		t.Errorf("max per day = %d, want 5", cfg.Schedule.MaxPerDay)
	}
	if cfg.Filter.FuzzyThreshold != 0.9 {
		t.Errorf("fuzzy threshold = %v, want 0.9", cfg.Filter.FuzzyThreshold)
	}
	if cfg.Dispatch.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v, want 30s", cfg.Dispatch.PollInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad slot", key: "POST_SLOT_MORNING", value: "25:00"},
		{name: "bad slot format", key: "POST_SLOT_EVENING", value: "noon"},
		{name: "zero daily cap", key: "MAX_POSTS_PER_DAY", value: "0"},
		{name: "threshold above one", key: "DUPLICATE_THRESHOLD", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{input: "09:00", hour: 9, minute: 0},
		{input: "21:45", hour: 21, minute: 45},
		{input: "00:00", hour: 0, minute: 0},
		{input: "24:00", wantErr: true},
		{input: "09:60", wantErr: true},
		{input: "0900", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := ParseSlot(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSlot(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && (hour != tt.hour || minute != tt.minute) {
				t.Errorf("ParseSlot(%q) = %d:%d, want %d:%d", tt.input, hour, minute, tt.hour, tt.minute)
			}
		})
	}
}
