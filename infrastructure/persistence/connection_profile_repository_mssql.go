package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
)

// ConnectionProfileRepositoryMSSQL is the SQL Server implementation used
// on the production/Azure SQL path.
type ConnectionProfileRepositoryMSSQL struct{ db *sql.DB }

func NewConnectionProfileRepositoryMSSQL(db *sql.DB) *ConnectionProfileRepositoryMSSQL {
	return &ConnectionProfileRepositoryMSSQL{db}
}

const connectionProfileColumnsMSSQL = `id, user_id, platform, external_account_id, display_name,
	access_secret_enc, refresh_secret_enc, token_expires_at, status, last_error,
	posts_per_hour, posts_per_day, hourly_usage, daily_usage,
	hourly_window_start, daily_window_start, last_post_at, is_active, extra,
	created_at, updated_at`

func (r *ConnectionProfileRepositoryMSSQL) GetActive(ctx context.Context, userID string, platform model.Platform) (*model.ConnectionProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT TOP 1 `+connectionProfileColumnsMSSQL+`
		FROM dbo.[connection_profiles]
		WHERE user_id = @p1 AND platform = @p2 AND is_active = 1
		ORDER BY updated_at DESC`, userID, string(platform))
	p, err := scanConnectionProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *ConnectionProfileRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.ConnectionProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectionProfileColumnsMSSQL+`
		FROM dbo.[connection_profiles] WHERE id = @p1`, id)
	p, err := scanConnectionProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *ConnectionProfileRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.ConnectionProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+connectionProfileColumnsMSSQL+`
		FROM dbo.[connection_profiles] WHERE user_id = @p1 AND is_active = 1 ORDER BY platform`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.ConnectionProfile
	for rows.Next() {
		p, err := scanConnectionProfile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ConnectionProfileRepositoryMSSQL) Upsert(ctx context.Context, p *model.ConnectionProfile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.HourlyWindowStart.IsZero() {
		p.HourlyWindowStart = now
	}
	if p.DailyWindowStart.IsZero() {
		p.DailyWindowStart = now
	}
	extraJSON := "{}"
	if len(p.Extra) > 0 {
		b, err := json.Marshal(p.Extra)
		if err != nil {
			return err
		}
		extraJSON = string(b)
	}
	// MERGE keyed on (user_id, platform, external_account_id), mirroring the
	// PostgreSQL ON CONFLICT upsert.
	q := `MERGE dbo.[connection_profiles] AS target
		USING (SELECT @p1 AS user_id, @p2 AS platform, @p3 AS external_account_id) AS src
		ON target.user_id = src.user_id AND target.platform = src.platform AND target.external_account_id = src.external_account_id
		WHEN MATCHED THEN UPDATE SET
			display_name = @p4, access_secret_enc = @p5, refresh_secret_enc = @p6,
			token_expires_at = @p7, status = @p8, last_error = NULL,
			is_active = 1, extra = @p11, updated_at = @p12
		WHEN NOT MATCHED THEN INSERT
			(user_id, platform, external_account_id, display_name, access_secret_enc, refresh_secret_enc,
			 token_expires_at, status, posts_per_hour, posts_per_day, hourly_usage, daily_usage,
			 hourly_window_start, daily_window_start, is_active, extra, created_at, updated_at)
			VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, 0, 0, @p12, @p12, 1, @p11, @p12, @p12)
		OUTPUT inserted.id;`
	return r.db.QueryRowContext(ctx, q, p.UserID, string(p.Platform), p.ExternalAccountID, p.DisplayName,
		p.AccessSecretEnc, p.RefreshSecretEnc, p.TokenExpiresAt, p.Status,
		p.PostsPerHour, p.PostsPerDay, extraJSON, p.UpdatedAt).Scan(&p.ID)
}

func (r *ConnectionProfileRepositoryMSSQL) UpdateHealth(ctx context.Context, id int64, status string, lastError *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[connection_profiles]
		SET status = @p2, last_error = @p3, updated_at = @p4 WHERE id = @p1`,
		id, status, lastError, time.Now().UTC())
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("mssql: update profile health failed")
	}
	return err
}

func (r *ConnectionProfileRepositoryMSSQL) UpdateCredential(ctx context.Context, id int64, accessEnc string, refreshEnc *string, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[connection_profiles]
		SET access_secret_enc = @p2, refresh_secret_enc = @p3, token_expires_at = @p4,
			status = 'connected', last_error = NULL, updated_at = @p5
		WHERE id = @p1`,
		id, accessEnc, refreshEnc, expiresAt, time.Now().UTC())
	return err
}

func (r *ConnectionProfileRepositoryMSSQL) CommitUsage(ctx context.Context, id int64, now time.Time) (bool, error) {
	q := `UPDATE dbo.[connection_profiles] SET
			hourly_usage = CASE WHEN DATEDIFF(second, hourly_window_start, @p2) > 3600 THEN 1 ELSE hourly_usage + 1 END,
			daily_usage  = CASE WHEN DATEDIFF(second, daily_window_start, @p2) > 86400 THEN 1 ELSE daily_usage + 1 END,
			hourly_window_start = CASE WHEN DATEDIFF(second, hourly_window_start, @p2) > 3600 THEN @p2 ELSE hourly_window_start END,
			daily_window_start  = CASE WHEN DATEDIFF(second, daily_window_start, @p2) > 86400 THEN @p2 ELSE daily_window_start END,
			updated_at = @p2
		WHERE id = @p1
			AND (CASE WHEN DATEDIFF(second, hourly_window_start, @p2) > 3600 THEN 0 ELSE hourly_usage END) < posts_per_hour
			AND (CASE WHEN DATEDIFF(second, daily_window_start, @p2) > 86400 THEN 0 ELSE daily_usage END) < posts_per_day`
	res, err := r.db.ExecContext(ctx, q, id, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ConnectionProfileRepositoryMSSQL) ResetWindows(ctx context.Context, id int64, now time.Time) error {
	q := `UPDATE dbo.[connection_profiles] SET
			hourly_usage = CASE WHEN DATEDIFF(second, hourly_window_start, @p2) > 3600 THEN 0 ELSE hourly_usage END,
			hourly_window_start = CASE WHEN DATEDIFF(second, hourly_window_start, @p2) > 3600 THEN @p2 ELSE hourly_window_start END,
			daily_usage = CASE WHEN DATEDIFF(second, daily_window_start, @p2) > 86400 THEN 0 ELSE daily_usage END,
			daily_window_start = CASE WHEN DATEDIFF(second, daily_window_start, @p2) > 86400 THEN @p2 ELSE daily_window_start END
		WHERE id = @p1`
	_, err := r.db.ExecContext(ctx, q, id, now.UTC())
	return err
}

func (r *ConnectionProfileRepositoryMSSQL) MarkPosted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[connection_profiles]
		SET last_post_at = @p2, updated_at = @p2 WHERE id = @p1`, id, at.UTC())
	return err
}

func (r *ConnectionProfileRepositoryMSSQL) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[connection_profiles]
		SET is_active = 0, status = 'disconnected', updated_at = @p2 WHERE id = @p1`,
		id, time.Now().UTC())
	return err
}
