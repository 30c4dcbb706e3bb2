package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsurePublisherSchema creates the orchestrator tables if they are
// missing. Safe to call at startup.
func EnsurePublisherSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS connection_profiles (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			external_account_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			access_secret_enc TEXT NOT NULL,
			refresh_secret_enc TEXT,
			token_expires_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'connected',
			last_error TEXT,
			posts_per_hour INT NOT NULL DEFAULT 10,
			posts_per_day INT NOT NULL DEFAULT 50,
			hourly_usage INT NOT NULL DEFAULT 0,
			daily_usage INT NOT NULL DEFAULT 0,
			hourly_window_start TIMESTAMPTZ NOT NULL DEFAULT now(),
			daily_window_start TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_post_at TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			extra TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, platform, external_account_id)
		)`,
		`CREATE TABLE IF NOT EXISTS scheduled_posts (
			id BIGSERIAL PRIMARY KEY,
			content_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			text_body TEXT NOT NULL DEFAULT '',
			media TEXT NOT NULL DEFAULT '[]',
			hashtags TEXT NOT NULL DEFAULT '[]',
			mentions TEXT NOT NULL DEFAULT '[]',
			platforms TEXT NOT NULL DEFAULT '[]',
			scheduled_for TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			claim_token TEXT,
			claimed_at TIMESTAMPTZ,
			outcome TEXT,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_posts_due
			ON scheduled_posts (scheduled_for) WHERE status IN ('scheduled','claimed')`,
		`CREATE TABLE IF NOT EXISTS published_content (
			id BIGSERIAL PRIMARY KEY,
			content_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			external_refs TEXT NOT NULL DEFAULT '{}',
			published_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring publisher schema: %w", err)
		}
	}
	return nil
}
