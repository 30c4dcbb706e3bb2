package model

import "time"

// Connection status values for a linked platform account.
const (
	ConnectionStatusConnected    = "connected"
	ConnectionStatusExpired      = "expired"
	ConnectionStatusError        = "error"
	ConnectionStatusDisconnected = "disconnected"
)

// ConnectionProfile is a user's linked account on one external platform.
// Credentials are stored encrypted; the vault decrypts them only for the
// lifetime of a publish attempt. Rate counters live here because the
// persisted row is the source of truth for admission control.
type ConnectionProfile struct {
	ID                    int64      `json:"id"`
	UserID                string     `json:"user_id"`
	Platform              Platform   `json:"platform"`
	ExternalAccountID     string     `json:"external_account_id"`
	DisplayName           string     `json:"display_name"`
	AccessSecretEnc       string     `json:"-"`
	RefreshSecretEnc      *string    `json:"-"`
	TokenExpiresAt        *time.Time `json:"token_expires_at,omitempty"`
	Status                string     `json:"status"`
	LastError             *string    `json:"last_error,omitempty"`
	PostsPerHour          int        `json:"posts_per_hour"`
	PostsPerDay           int        `json:"posts_per_day"`
	HourlyUsage           int        `json:"hourly_usage"`
	DailyUsage            int        `json:"daily_usage"`
	HourlyWindowStart     time.Time  `json:"hourly_window_start"`
	DailyWindowStart      time.Time  `json:"daily_window_start"`
	LastPostAt            *time.Time `json:"last_post_at,omitempty"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	// Extra holds platform-specific wiring resolved at connect time,
	// e.g. facebook page id, linkedin author URN, pinterest board id.
	Extra map[string]string `json:"extra,omitempty"`
}

// Usable reports whether the profile can receive publish attempts at all.
func (p *ConnectionProfile) Usable() bool {
	return p != nil && p.IsActive && p.Status != ConnectionStatusDisconnected
}
