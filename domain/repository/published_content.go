package repository

import (
	"context"

	"my-publisher/domain/model"
)

// IPublishedContent records content items that reached at least one
// platform, with their per-platform external post ids.
type IPublishedContent interface {
	RecordPublish(ctx context.Context, rec *model.PublishedContent) error
	GetByContentID(ctx context.Context, contentID string) (*model.PublishedContent, error)
}

// IReportArchive stores full publish reports for later inspection
// (append-only from the coordinator's perspective).
type IReportArchive interface {
	SaveReport(ctx context.Context, report *model.PublishReport) error
	ListReports(ctx context.Context, userID string, limit int) ([]*model.PublishReport, error)
	GetReport(ctx context.Context, contentID string) (*model.PublishReport, error)
}
