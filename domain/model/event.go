package model

import "time"

// Lifecycle event types emitted after a publish attempt completes.
const (
	EventContentPublished     = "content.published"
	EventContentPublishFailed = "content.publish_failed"
)

// LifecycleEvent is the envelope pushed to the message bus when a publish
// run finishes. Downstream consumers (notification workers, audit sinks)
// key off Type and Outcome.
type LifecycleEvent struct {
	Type       string          `json:"type"`
	UserID     string          `json:"user_id"`
	ContentID  string          `json:"content_id"`
	Outcome    string          `json:"outcome"`
	Results    []PublishResult `json:"results,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventForReport derives the lifecycle event matching a finished report.
func EventForReport(report PublishReport) LifecycleEvent {
	eventType := EventContentPublished
	if report.Outcome == OutcomeTotalFailure {
		eventType = EventContentPublishFailed
	}
	return LifecycleEvent{
		Type:       eventType,
		UserID:     report.UserID,
		ContentID:  report.ContentID,
		Outcome:    report.Outcome,
		Results:    report.Results,
		OccurredAt: report.CompletedAt,
	}
}
