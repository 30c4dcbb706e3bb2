package dto

import "time"

// MediaRefRequest mirrors model.MediaRef on the inbound API surface.
type MediaRefRequest struct {
	Type    string `json:"type" binding:"required"`
	URL     string `json:"url" binding:"required"`
	AltText string `json:"alt_text"`
}

// PublishRequestBody is the inbound publish call. When ScheduledFor is a
// future timestamp the request is persisted as a scheduled post and the
// handler returns immediately; otherwise it executes synchronously.
type PublishRequestBody struct {
	ContentID    string            `json:"content_id" binding:"required"`
	Text         string            `json:"text"`
	Media        []MediaRefRequest `json:"media"`
	Hashtags     []string          `json:"hashtags"`
	Mentions     []string          `json:"mentions"`
	Platforms    []string          `json:"platforms" binding:"required"`
	ScheduledFor *time.Time        `json:"scheduled_for"`
}

// ConnectionRequestBody onboards or updates a connection profile from an
// OAuth callback or manual token entry.
type ConnectionRequestBody struct {
	Platform          string            `json:"platform" binding:"required"`
	ExternalAccountID string            `json:"external_account_id" binding:"required"`
	DisplayName       string            `json:"display_name"`
	AccessSecret      string            `json:"access_secret" binding:"required"`
	RefreshSecret     string            `json:"refresh_secret"`
	ExpiresAt         *time.Time        `json:"expires_at"`
	PostsPerHour      int               `json:"posts_per_hour"`
	PostsPerDay       int               `json:"posts_per_day"`
	Extra             map[string]string `json:"extra"`
}
