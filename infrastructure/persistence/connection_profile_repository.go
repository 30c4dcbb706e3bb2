package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"my-publisher/domain/model"
)

const connectionProfileColumns = `id, user_id, platform, external_account_id, display_name,
	access_secret_enc, refresh_secret_enc, token_expires_at, status, last_error,
	posts_per_hour, posts_per_day, hourly_usage, daily_usage,
	hourly_window_start, daily_window_start, last_post_at, is_active, extra,
	created_at, updated_at`

// ConnectionProfileRepository implements profile persistence on PostgreSQL.
type ConnectionProfileRepository struct {
	db *sql.DB
}

func NewConnectionProfileRepository(db *sql.DB) *ConnectionProfileRepository {
	return &ConnectionProfileRepository{db: db}
}

func scanConnectionProfile(row interface{ Scan(...interface{}) error }) (*model.ConnectionProfile, error) {
	p := &model.ConnectionProfile{}
	var refreshEnc, lastError sql.NullString
	var tokenExp, lastPost sql.NullTime
	var extraJSON string
	var platform string
	err := row.Scan(&p.ID, &p.UserID, &platform, &p.ExternalAccountID, &p.DisplayName,
		&p.AccessSecretEnc, &refreshEnc, &tokenExp, &p.Status, &lastError,
		&p.PostsPerHour, &p.PostsPerDay, &p.HourlyUsage, &p.DailyUsage,
		&p.HourlyWindowStart, &p.DailyWindowStart, &lastPost, &p.IsActive, &extraJSON,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Platform = model.Platform(platform)
	if refreshEnc.Valid {
		p.RefreshSecretEnc = &refreshEnc.String
	}
	if lastError.Valid {
		p.LastError = &lastError.String
	}
	if tokenExp.Valid {
		t := tokenExp.Time
		p.TokenExpiresAt = &t
	}
	if lastPost.Valid {
		t := lastPost.Time
		p.LastPostAt = &t
	}
	if extraJSON != "" {
		_ = json.Unmarshal([]byte(extraJSON), &p.Extra)
	}
	return p, nil
}

func (r *ConnectionProfileRepository) GetActive(ctx context.Context, userID string, platform model.Platform) (*model.ConnectionProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectionProfileColumns+`
		FROM connection_profiles
		WHERE user_id=$1 AND platform=$2 AND is_active=TRUE
		ORDER BY updated_at DESC LIMIT 1`, userID, string(platform))
	p, err := scanConnectionProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *ConnectionProfileRepository) GetByID(ctx context.Context, id int64) (*model.ConnectionProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectionProfileColumns+`
		FROM connection_profiles WHERE id=$1`, id)
	p, err := scanConnectionProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *ConnectionProfileRepository) ListByUser(ctx context.Context, userID string) ([]*model.ConnectionProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+connectionProfileColumns+`
		FROM connection_profiles WHERE user_id=$1 AND is_active=TRUE ORDER BY platform`, userID)
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

func (r *ConnectionProfileRepository) Upsert(ctx context.Context, p *model.ConnectionProfile) error {
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
	q := `INSERT INTO connection_profiles (user_id, platform, external_account_id, display_name,
			access_secret_enc, refresh_secret_enc, token_expires_at, status, last_error,
			posts_per_hour, posts_per_day, hourly_usage, daily_usage,
			hourly_window_start, daily_window_start, is_active, extra, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULL,$9,$10,0,0,$11,$12,TRUE,$13,$14,$14)
		ON CONFLICT (user_id, platform, external_account_id) DO UPDATE SET
			display_name=EXCLUDED.display_name,
			access_secret_enc=EXCLUDED.access_secret_enc,
			refresh_secret_enc=EXCLUDED.refresh_secret_enc,
			token_expires_at=EXCLUDED.token_expires_at,
			status=EXCLUDED.status,
			last_error=NULL,
			is_active=TRUE,
			extra=EXCLUDED.extra,
			updated_at=EXCLUDED.updated_at
		RETURNING id`
	return r.db.QueryRowContext(ctx, q, p.UserID, string(p.Platform), p.ExternalAccountID, p.DisplayName,
		p.AccessSecretEnc, p.RefreshSecretEnc, p.TokenExpiresAt, p.Status,
		p.PostsPerHour, p.PostsPerDay, p.HourlyWindowStart, p.DailyWindowStart,
		extraJSON, p.UpdatedAt).Scan(&p.ID)
}

func (r *ConnectionProfileRepository) UpdateHealth(ctx context.Context, id int64, status string, lastError *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE connection_profiles
		SET status=$2, last_error=$3, updated_at=$4 WHERE id=$1`,
		id, status, lastError, time.Now().UTC())
	return err
}

func (r *ConnectionProfileRepository) UpdateCredential(ctx context.Context, id int64, accessEnc string, refreshEnc *string, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE connection_profiles
		SET access_secret_enc=$2, refresh_secret_enc=$3, token_expires_at=$4,
			status='connected', last_error=NULL, updated_at=$5
		WHERE id=$1`,
		id, accessEnc, refreshEnc, expiresAt, time.Now().UTC())
	return err
}

// CommitUsage performs the single conditional update that makes
// Admit+Commit race-free across processes: counters are reset inline
// when their window elapsed and incremented only while both stay under
// their limits. Zero rows affected means no slot was available.
func (r *ConnectionProfileRepository) CommitUsage(ctx context.Context, id int64, now time.Time) (bool, error) {
	q := `UPDATE connection_profiles SET
			hourly_usage = CASE WHEN $2 - hourly_window_start > interval '1 hour' THEN 1 ELSE hourly_usage + 1 END,
			daily_usage  = CASE WHEN $2 - daily_window_start > interval '24 hours' THEN 1 ELSE daily_usage + 1 END,
			hourly_window_start = CASE WHEN $2 - hourly_window_start > interval '1 hour' THEN $2 ELSE hourly_window_start END,
			daily_window_start  = CASE WHEN $2 - daily_window_start > interval '24 hours' THEN $2 ELSE daily_window_start END,
			updated_at = $2
		WHERE id = $1
			AND (CASE WHEN $2 - hourly_window_start > interval '1 hour' THEN 0 ELSE hourly_usage END) < posts_per_hour
			AND (CASE WHEN $2 - daily_window_start > interval '24 hours' THEN 0 ELSE daily_usage END) < posts_per_day`
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

func (r *ConnectionProfileRepository) ResetWindows(ctx context.Context, id int64, now time.Time) error {
	q := `UPDATE connection_profiles SET
			hourly_usage = CASE WHEN $2 - hourly_window_start > interval '1 hour' THEN 0 ELSE hourly_usage END,
			hourly_window_start = CASE WHEN $2 - hourly_window_start > interval '1 hour' THEN $2 ELSE hourly_window_start END,
			daily_usage = CASE WHEN $2 - daily_window_start > interval '24 hours' THEN 0 ELSE daily_usage END,
			daily_window_start = CASE WHEN $2 - daily_window_start > interval '24 hours' THEN $2 ELSE daily_window_start END
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, now.UTC())
	return err
}

func (r *ConnectionProfileRepository) MarkPosted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE connection_profiles
		SET last_post_at=$2, updated_at=$2 WHERE id=$1`, id, at.UTC())
	return err
}

func (r *ConnectionProfileRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE connection_profiles
		SET is_active=FALSE, status='disconnected', updated_at=$2 WHERE id=$1`,
		id, time.Now().UTC())
	return err
}
