package model

import "time"

// PostMetrics is the normalized analytics shape returned by adapters
// that support FetchAnalytics.
type PostMetrics struct {
	Platform       Platform  `json:"platform"`
	ExternalPostID string    `json:"external_post_id"`
	Impressions    int64     `json:"impressions"`
	Likes          int64     `json:"likes"`
	Comments       int64     `json:"comments"`
	Shares         int64     `json:"shares"`
	FetchedAt      time.Time `json:"fetched_at"`
}
