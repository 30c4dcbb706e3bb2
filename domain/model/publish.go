package model

import "time"

// Media types accepted by the normalized publish request.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeGif   = "gif"
)

// MediaRef points at one media item to attach, in display order.
type MediaRef struct {
	Type    string `json:"type"` // image | video | gif
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

// PublishRequest is the normalized content handed to the coordinator.
// It is ephemeral unless scheduled, in which case it is persisted as a
// ScheduledPost.
type PublishRequest struct {
	ContentID string     `json:"content_id"`
	UserID    string     `json:"user_id"`
	Text      string     `json:"text"`
	Media     []MediaRef `json:"media,omitempty"`
	Hashtags  []string   `json:"hashtags,omitempty"`
	Mentions  []string   `json:"mentions,omitempty"`
	Platforms []Platform `json:"platforms"`
}

// ErrorKind classifies a failed publish attempt. The coordinator's
// health-update logic and any external retry policy branch on it.
type ErrorKind string

const (
	ErrKindNotConnected    ErrorKind = "not_connected"
	ErrKindAuthentication  ErrorKind = "authentication"
	ErrKindRateLimited     ErrorKind = "rate_limited"
	ErrKindContentRejected ErrorKind = "content_rejected"
	ErrKindTransient       ErrorKind = "transient"
	ErrKindUnsupported     ErrorKind = "unsupported"
)

// PublishResult is the outcome of one platform attempt.
type PublishResult struct {
	Platform       Platform  `json:"platform"`
	Success        bool      `json:"success"`
	ExternalPostID string    `json:"external_post_id,omitempty"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	PostedAt       time.Time `json:"posted_at"`
}

// Overall outcome of a multi-platform publish.
const (
	OutcomeFullSuccess    = "full_success"
	OutcomePartialSuccess = "partial_success"
	OutcomeTotalFailure   = "total_failure"
)

// PublishReport aggregates per-platform results for one content item.
// Results keep the order platforms were requested in.
type PublishReport struct {
	ContentID      string          `json:"content_id"`
	UserID         string          `json:"user_id"`
	Outcome        string          `json:"outcome"`
	Results        []PublishResult `json:"results"`
	RequestedCount int             `json:"requested_platform_count"`
	SuccessCount   int             `json:"success_count"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// ComputeOutcome fills Outcome and SuccessCount from Results.
func (r *PublishReport) ComputeOutcome() {
	succeeded := 0
	for _, res := range r.Results {
		if res.Success {
			succeeded++
		}
	}
	r.SuccessCount = succeeded
	r.RequestedCount = len(r.Results)
	switch {
	case succeeded == 0:
		r.Outcome = OutcomeTotalFailure
	case succeeded == len(r.Results):
		r.Outcome = OutcomeFullSuccess
	default:
		r.Outcome = OutcomePartialSuccess
	}
}

// PublishedContent records the durable outcome of a publish with at least
// one success: the content item is considered published even when some
// platforms failed.
type PublishedContent struct {
	ID           int64             `json:"id"`
	ContentID    string            `json:"content_id"`
	UserID       string            `json:"user_id"`
	ExternalRefs map[Platform]string `json:"external_refs"`
	PublishedAt  time.Time         `json:"published_at"`
}
