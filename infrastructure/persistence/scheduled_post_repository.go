package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"my-publisher/domain/model"
)

const scheduledPostColumns = `id, content_id, user_id, text_body, media, hashtags, mentions, platforms,
	scheduled_for, status, claim_token, claimed_at, outcome, last_error, created_at, updated_at`

// ScheduledPostRepository implements deferred publish persistence on PostgreSQL.
type ScheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) *ScheduledPostRepository {
	return &ScheduledPostRepository{db: db}
}

func scanScheduledPost(row interface{ Scan(...interface{}) error }) (*model.ScheduledPost, error) {
	s := &model.ScheduledPost{}
	var mediaJSON, hashtagsJSON, mentionsJSON, platformsJSON string
	var claimToken, outcome, lastError sql.NullString
	var claimedAt sql.NullTime
	err := row.Scan(&s.ID, &s.ContentID, &s.UserID, &s.Text, &mediaJSON, &hashtagsJSON, &mentionsJSON, &platformsJSON,
		&s.ScheduledFor, &s.Status, &claimToken, &claimedAt, &outcome, &lastError, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(mediaJSON), &s.Media)
	_ = json.Unmarshal([]byte(hashtagsJSON), &s.Hashtags)
	_ = json.Unmarshal([]byte(mentionsJSON), &s.Mentions)
	_ = json.Unmarshal([]byte(platformsJSON), &s.Platforms)
	if claimToken.Valid {
		s.ClaimToken = &claimToken.String
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		s.ClaimedAt = &t
	}
	if outcome.Valid {
		s.Outcome = &outcome.String
	}
	if lastError.Valid {
		s.LastError = &lastError.String
	}
	return s, nil
}

func marshalScheduledPostFields(s *model.ScheduledPost) (media, hashtags, mentions, platforms string, err error) {
	enc := func(v interface{}) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		if string(b) == "null" {
			return "[]", nil
		}
		return string(b), nil
	}
	if media, err = enc(s.Media); err != nil {
		return
	}
	if hashtags, err = enc(s.Hashtags); err != nil {
		return
	}
	if mentions, err = enc(s.Mentions); err != nil {
		return
	}
	platforms, err = enc(s.Platforms)
	return
}

func (r *ScheduledPostRepository) Create(ctx context.Context, post *model.ScheduledPost) (*model.ScheduledPost, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Status = model.ScheduleStatusScheduled
	media, hashtags, mentions, platforms, err := marshalScheduledPostFields(post)
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO scheduled_posts (content_id, user_id, text_body, media, hashtags, mentions, platforms,
			scheduled_for, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, q, post.ContentID, post.UserID, post.Text, media, hashtags, mentions, platforms,
		post.ScheduledFor.UTC(), post.Status, now).Scan(&post.ID); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *ScheduledPostRepository) GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scheduledPostColumns+` FROM scheduled_posts WHERE id=$1`, id)
	s, err := scanScheduledPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *ScheduledPostRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scheduledPostColumns+`
		FROM scheduled_posts WHERE user_id=$1 ORDER BY scheduled_for DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledPosts(rows)
}

func (r *ScheduledPostRepository) ListDue(ctx context.Context, now time.Time, staleBefore time.Time, limit int) ([]*model.ScheduledPost, error) {
	q := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE scheduled_for <= $1
			AND (status = 'scheduled' OR (status = 'claimed' AND claimed_at < $2))
		ORDER BY scheduled_for
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, q, now.UTC(), staleBefore.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScheduledPosts(rows)
}

func collectScheduledPosts(rows *sql.Rows) ([]*model.ScheduledPost, error) {
	var list []*model.ScheduledPost
	for rows.Next() {
		s, err := scanScheduledPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Claim is the conditional update that grants exactly one caller the
// right to execute a due post. A claimed row with a claim older than
// staleBefore is treated as abandoned and may be re-claimed.
func (r *ScheduledPostRepository) Claim(ctx context.Context, id int64, token string, now time.Time, staleBefore time.Time) (bool, error) {
	q := `UPDATE scheduled_posts
		SET status='claimed', claim_token=$2, claimed_at=$3, updated_at=$3
		WHERE id=$1
			AND (status='scheduled' OR (status='claimed' AND claimed_at < $4))`
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

func (r *ScheduledPostRepository) MarkResult(ctx context.Context, id int64, token string, status string, outcome string, lastError *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE scheduled_posts
		SET status=$3, outcome=$4, last_error=$5, updated_at=$6
		WHERE id=$1 AND claim_token=$2 AND status='claimed'`,
		id, token, status, outcome, lastError, time.Now().UTC())
	return err
}

func (r *ScheduledPostRepository) Cancel(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_posts
		SET status='cancelled', updated_at=$3
		WHERE id=$1 AND user_id=$2 AND status='scheduled'`,
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
