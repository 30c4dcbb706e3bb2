package repository

import (
	"context"
	"time"

	"my-publisher/domain/model"
)

// IScheduledPost defines persistence for deferred publish intents.
type IScheduledPost interface {
	Create(ctx context.Context, post *model.ScheduledPost) (*model.ScheduledPost, error)
	GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.ScheduledPost, error)

	// ListDue returns posts whose scheduled time has passed and that are
	// still claimable: status=scheduled, or status=claimed with a claim
	// older than staleBefore (abandoned by a crashed sweep).
	ListDue(ctx context.Context, now time.Time, staleBefore time.Time, limit int) ([]*model.ScheduledPost, error)

	// Claim atomically transitions the row to claimed with the given token.
	// The conditional update succeeds only while the row is still scheduled
	// (or carries a stale claim), which is what prevents two concurrent
	// sweeps from double-publishing. Returns false for the loser.
	Claim(ctx context.Context, id int64, token string, now time.Time, staleBefore time.Time) (bool, error)

	// MarkResult moves a claimed row to its terminal state. Only the claim
	// winner (matching token) may do this.
	MarkResult(ctx context.Context, id int64, token string, status string, outcome string, lastError *string) error

	// Cancel succeeds only while the row is still scheduled.
	Cancel(ctx context.Context, id int64, userID string) (bool, error)
}
