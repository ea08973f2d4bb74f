package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Scheduling configuration
	Schedule ScheduleConfig

	// Safety filter configuration
	Filter FilterConfig

	// Dispatcher configuration
	Dispatch DispatchConfig

	// Web UI server configuration
	Server ServerConfig

	// Voice profile configuration
	Voice VoiceConfig

	// LLM backend configuration
	LLM LLMConfig

	// Platform credentials
	X        XConfig
	LinkedIn LinkedInConfig
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path           string
	MigrationsPath string
}

// ScheduleConfig holds the slot allocation settings. The scheduler takes
// this struct at construction time; nothing reads the environment at
// call time.
type ScheduleConfig struct {
	// Slots are fixed daily clock times in "HH:MM" form, e.g. morning
	// and evening publication windows.
	Slots []string

	// MaxPerDay caps how many entries may be scheduled or posted on one
	// calendar day.
	MaxPerDay int

	// HorizonDays bounds how far ahead slot scanning may walk.
	HorizonDays int
}

// FilterConfig holds duplicate detection settings
type FilterConfig struct {
	// FuzzyThreshold is the similarity ratio in [0,1] at or above which
	// two normalized texts count as duplicates.
	FuzzyThreshold float64

	// RecentWindow bounds how many recent candidates the fuzzy check
	// scans.
	RecentWindow int
}

// DispatchConfig holds dispatcher daemon settings
type DispatchConfig struct {
	PollInterval time.Duration
	// PostDelay is the fixed pause between consecutive platform posts,
	// purely to respect external rate limits.
	PostDelay time.Duration
	// ScheduleSpec is the cron expression for the periodic scheduling
	// pass in daemon mode.
	ScheduleSpec string
}

// ServerConfig holds HTTP server settings for the thin web UI
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// VoiceConfig locates the voice profile file
type VoiceConfig struct {
	Path string
}

// LLMConfig holds the OpenAI-compatible chat backend settings
type LLMConfig struct {
	Endpoint  string
	Model     string
	APIKey    string
	MaxTokens int
}

// XConfig holds X API credentials
type XConfig struct {
	BearerToken string
}

// LinkedInConfig holds LinkedIn API credentials
type LinkedInConfig struct {
	AccessToken string
	AuthorURN   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Path:           getEnv("DB_PATH", "./data/apptwitter.db"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Schedule: ScheduleConfig{
			Slots: []string{
				getEnv("POST_SLOT_MORNING", "09:00"),
				getEnv("POST_SLOT_EVENING", "21:00"),
			},
			MaxPerDay:   getIntEnv("MAX_POSTS_PER_DAY", 2),
			HorizonDays: getIntEnv("SCHEDULE_HORIZON_DAYS", 30),
		},
		Filter: FilterConfig{
			FuzzyThreshold: getFloatEnv("DUPLICATE_THRESHOLD", 0.85),
			RecentWindow:   getIntEnv("DUPLICATE_WINDOW", 100),
		},
		Dispatch: DispatchConfig{
			PollInterval: getDurationEnv("DISPATCH_POLL_INTERVAL", 60*time.Second),
			PostDelay:    getDurationEnv("DISPATCH_POST_DELAY", 5*time.Second),
			ScheduleSpec: getEnv("DISPATCH_SCHEDULE_SPEC", "@hourly"),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Voice: VoiceConfig{
			Path: getEnv("VOICE_PROFILE_PATH", "./voice.yaml"),
		},
		LLM: LLMConfig{
			Endpoint:  getEnv("LLM_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			Model:     getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:    getEnv("LLM_API_KEY", ""),
			MaxTokens: getIntEnv("LLM_MAX_TOKENS", 300),
		},
		X: XConfig{
			BearerToken: getEnv("X_BEARER_TOKEN", ""),
		},
		LinkedIn: LinkedInConfig{
			AccessToken: getEnv("LINKEDIN_ACCESS_TOKEN", ""),
			AuthorURN:   getEnv("LINKEDIN_AUTHOR_URN", ""),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if len(c.Schedule.Slots) == 0 {
		return fmt.Errorf("at least one publication slot is required")
	}
	for _, slot := range c.Schedule.Slots {
		if _, _, err := ParseSlot(slot); err != nil {
			return err
		}
	}
	if c.Schedule.MaxPerDay < 1 {
		return fmt.Errorf("MAX_POSTS_PER_DAY must be at least 1")
	}
	if c.Filter.FuzzyThreshold < 0 || c.Filter.FuzzyThreshold > 1 {
		return fmt.Errorf("DUPLICATE_THRESHOLD must be in [0,1]")
	}
	return nil
}

// ParseSlot parses a "HH:MM" clock time into hour and minute
func ParseSlot(slot string) (hour, minute int, err error) {
	parts := strings.SplitN(slot, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid slot %q: want HH:MM", slot)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid slot hour in %q", slot)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid slot minute in %q", slot)
	}
	return hour, minute, nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
