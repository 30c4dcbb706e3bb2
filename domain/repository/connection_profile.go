package repository

import (
	"context"
	"time"

	"my-publisher/domain/model"
)

// IConnectionProfile defines persistence for linked platform accounts.
// The persisted row is the source of truth for credential health and
// rate-limit counters; callers re-read before every admission check.
type IConnectionProfile interface {
	// GetActive returns the active profile for (user, platform), or nil when
	// the user never connected that platform (or disconnected it).
	GetActive(ctx context.Context, userID string, platform model.Platform) (*model.ConnectionProfile, error)
	GetByID(ctx context.Context, id int64) (*model.ConnectionProfile, error)
	ListByUser(ctx context.Context, userID string) ([]*model.ConnectionProfile, error)

	// Upsert creates or replaces the profile keyed by
	// (user_id, platform, external_account_id) and reactivates it.
	Upsert(ctx context.Context, p *model.ConnectionProfile) error

	// UpdateHealth sets status/last_error, used on credential expiry and
	// after a successful refresh.
	UpdateHealth(ctx context.Context, id int64, status string, lastError *string) error

	// UpdateCredential stores re-encrypted secrets after a token refresh.
	UpdateCredential(ctx context.Context, id int64, accessEnc string, refreshEnc *string, expiresAt *time.Time) error

	// CommitUsage is the single-statement conditional increment backing the
	// rate limiter: it increments both counters only while both stay within
	// their limits, resetting whichever window has elapsed first. Returns
	// false when no slot was available.
	CommitUsage(ctx context.Context, id int64, now time.Time) (bool, error)

	// ResetWindows zeroes elapsed windows without consuming a slot, so that
	// repeated admission checks within one window are idempotent.
	ResetWindows(ctx context.Context, id int64, now time.Time) error

	// MarkPosted records the last successful publish time.
	MarkPosted(ctx context.Context, id int64, at time.Time) error

	// Deactivate soft-deletes the profile. Historical publish results keep
	// referencing it, so rows are never hard-deleted.
	Deactivate(ctx context.Context, id int64) error
}
