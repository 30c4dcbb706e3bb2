package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsurePublisherSchemaMSSQL ensures the orchestrator tables exist in
// MSSQL (production/Azure SQL path).
func EnsurePublisherSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createIfMissing := func(table, ddl string) error {
		q := fmt.Sprintf(`IF OBJECT_ID('dbo.%s', 'U') IS NULL BEGIN %s END`, table, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure table %s: %w", table, err)
		}
		return nil
	}

	if err := createIfMissing("connection_profiles", `CREATE TABLE dbo.[connection_profiles] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(128) NOT NULL,
		platform NVARCHAR(32) NOT NULL,
		external_account_id NVARCHAR(255) NOT NULL,
		display_name NVARCHAR(255) NOT NULL DEFAULT '',
		access_secret_enc NVARCHAR(MAX) NOT NULL,
		refresh_secret_enc NVARCHAR(MAX) NULL,
		token_expires_at DATETIMEOFFSET NULL,
		status NVARCHAR(32) NOT NULL DEFAULT 'connected',
		last_error NVARCHAR(MAX) NULL,
		posts_per_hour INT NOT NULL DEFAULT 10,
		posts_per_day INT NOT NULL DEFAULT 50,
		hourly_usage INT NOT NULL DEFAULT 0,
		daily_usage INT NOT NULL DEFAULT 0,
		hourly_window_start DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET(),
		daily_window_start DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET(),
		last_post_at DATETIMEOFFSET NULL,
		is_active BIT NOT NULL DEFAULT 1,
		extra NVARCHAR(MAX) NOT NULL DEFAULT '{}',
		created_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET(),
		updated_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET(),
		CONSTRAINT uq_connection_profiles UNIQUE (user_id, platform, external_account_id)
	)`); err != nil {
		return err
	}

	if err := createIfMissing("scheduled_posts", `CREATE TABLE dbo.[scheduled_posts] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		content_id NVARCHAR(128) NOT NULL,
		user_id NVARCHAR(128) NOT NULL,
		text_body NVARCHAR(MAX) NOT NULL DEFAULT '',
		media NVARCHAR(MAX) NOT NULL DEFAULT '[]',
		hashtags NVARCHAR(MAX) NOT NULL DEFAULT '[]',
		mentions NVARCHAR(MAX) NOT NULL DEFAULT '[]',
		platforms NVARCHAR(MAX) NOT NULL DEFAULT '[]',
		scheduled_for DATETIMEOFFSET NOT NULL,
		status NVARCHAR(32) NOT NULL DEFAULT 'scheduled',
		claim_token NVARCHAR(64) NULL,
		claimed_at DATETIMEOFFSET NULL,
		outcome NVARCHAR(32) NULL,
		last_error NVARCHAR(MAX) NULL,
		created_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET(),
		updated_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()
	)`); err != nil {
		return err
	}

	return createIfMissing("published_content", `CREATE TABLE dbo.[published_content] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		content_id NVARCHAR(128) NOT NULL UNIQUE,
		user_id NVARCHAR(128) NOT NULL,
		external_refs NVARCHAR(MAX) NOT NULL DEFAULT '{}',
		published_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()
	)`)
}
