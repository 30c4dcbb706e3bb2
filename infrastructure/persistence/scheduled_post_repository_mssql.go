package persistence

import (
	"context"
	"database/sql"
	"time"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
)

// ScheduledPostRepositoryMSSQL is the SQL Server implementation of the
// deferred publish store.
type ScheduledPostRepositoryMSSQL struct{ db *sql.DB }

func NewScheduledPostRepositoryMSSQL(db *sql.DB) *ScheduledPostRepositoryMSSQL {
	return &ScheduledPostRepositoryMSSQL{db}
}

const scheduledPostColumnsMSSQL = `id, content_id, user_id, text_body, media, hashtags, mentions, platforms,
	scheduled_for, status, claim_token, claimed_at, outcome, last_error, created_at, updated_at`

func (r *ScheduledPostRepositoryMSSQL) Create(ctx context.Context, post *model.ScheduledPost) (*model.ScheduledPost, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Status = model.ScheduleStatusScheduled
	media, hashtags, mentions, platforms, err := marshalScheduledPostFields(post)
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO dbo.[scheduled_posts] (content_id, user_id, text_body, media, hashtags, mentions, platforms,
			scheduled_for, status, created_at, updated_at)
		OUTPUT inserted.id
		VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p10)`
	if err := r.db.QueryRowContext(ctx, q, post.ContentID, post.UserID, post.Text, media, hashtags, mentions, platforms,
		post.ScheduledFor.UTC(), post.Status, now).Scan(&post.ID); err != nil {
		logger.GetLogger().WithField("error", err).Error("mssql: create scheduled post failed")
		return nil, err
	}
	return post, nil
}

func (r *ScheduledPostRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scheduledPostColumnsMSSQL+`
		FROM dbo.[scheduled_posts] WHERE id = @p1`, id)
	s, err := scanScheduledPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *ScheduledPostRepositoryMSSQL) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p2) `+scheduledPostColumnsMSSQL+`
		FROM dbo.[scheduled_posts] WHERE user_id = @p1 ORDER BY scheduled_for DESC`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledPosts(rows)
}

func (r *ScheduledPostRepositoryMSSQL) ListDue(ctx context.Context, now time.Time, staleBefore time.Time, limit int) ([]*model.ScheduledPost, error) {
	q := `SELECT TOP (@p3) ` + scheduledPostColumnsMSSQL + `
		FROM dbo.[scheduled_posts]
		WHERE scheduled_for <= @p1
			AND (status = 'scheduled' OR (status = 'claimed' AND claimed_at < @p2))
		ORDER BY scheduled_for`
	rows, err := r.db.QueryContext(ctx, q, now.UTC(), staleBefore.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledPosts(rows)
}

func (r *ScheduledPostRepositoryMSSQL) Claim(ctx context.Context, id int64, token string, now time.Time, staleBefore time.Time) (bool, error) {
	q := `UPDATE dbo.[scheduled_posts]
		SET status = 'claimed', claim_token = @p2, claimed_at = @p3, updated_at = @p3
		WHERE id = @p1
			AND (status = 'scheduled' OR (status = 'claimed' AND claimed_at < @p4))`
	res, err := r.db.ExecContext(ctx, q, id, token, now.UTC(), staleBefore.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ScheduledPostRepositoryMSSQL) MarkResult(ctx context.Context, id int64, token string, status string, outcome string, lastError *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[scheduled_posts]
		SET status = @p3, outcome = @p4, last_error = @p5, updated_at = @p6
		WHERE id = @p1 AND claim_token = @p2 AND status = 'claimed'`,
		id, token, status, outcome, lastError, time.Now().UTC())
	return err
}

func (r *ScheduledPostRepositoryMSSQL) Cancel(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[scheduled_posts]
		SET status = 'cancelled', updated_at = @p3
		WHERE id = @p1 AND user_id = @p2 AND status = 'scheduled'`,
		id, userID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
