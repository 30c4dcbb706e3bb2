package model

import "time"

// ScheduledPost status values. Transitions:
// scheduled -> claimed -> published | failed
// scheduled -> cancelled (manual, only while still scheduled)
// Terminal states never transition again.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusClaimed   = "claimed"
	ScheduleStatusPublished = "published"
	ScheduleStatusFailed    = "failed"
	ScheduleStatusCancelled = "cancelled"
)

// ScheduledPost is a persisted PublishRequest deferred to a future time.
// The claim token plus claim timestamp guarantee at-most-one sweep
// execution; a claim older than the reclaim timeout is treated as
// abandoned (crash recovery) and becomes eligible again.
type ScheduledPost struct {
	ID           int64      `json:"id"`
	ContentID    string     `json:"content_id"`
	UserID       string     `json:"user_id"`
	Text         string     `json:"text"`
	Media        []MediaRef `json:"media,omitempty"`
	Hashtags     []string   `json:"hashtags,omitempty"`
	Mentions     []string   `json:"mentions,omitempty"`
	Platforms    []Platform `json:"platforms"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	Status       string     `json:"status"`
	ClaimToken   *string    `json:"claim_token,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	Outcome      *string    `json:"outcome,omitempty"`
	LastError    *string    `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Request rebuilds the publish request carried by the scheduled post.
func (s *ScheduledPost) Request() *PublishRequest {
	return &PublishRequest{
		ContentID: s.ContentID,
		UserID:    s.UserID,
		Text:      s.Text,
		Media:     s.Media,
		Hashtags:  s.Hashtags,
		Mentions:  s.Mentions,
		Platforms: s.Platforms,
	}
}
