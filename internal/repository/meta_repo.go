package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/federicoviola/AppTwitter/internal/database"
)

// settingsRepo is the concrete implementation of SettingsRepository
type settingsRepo struct {
	db *database.DB
}

// NewSettingsRepo creates a new settings repository
func NewSettingsRepo(db *database.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

// Get retrieves a setting value; empty string when the key is absent
func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Set upserts a setting value
func (r *settingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

// auditLogRepo is the concrete implementation of AuditLogRepository
type auditLogRepo struct {
	db *database.DB
}

// NewAuditLogRepo creates a new audit log repository
func NewAuditLogRepo(db *database.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

// Append writes one append-only log row
func (r *auditLogRepo) Append(ctx context.Context, level, message, detail string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO logs (level, message, context, created_at)
		VALUES (?, ?, ?, ?)
	`, level, message, nullString(detail), time.Now())
	return err
}
