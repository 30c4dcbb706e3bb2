package usecase

import (
	"context"
	"errors"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/cache"
)

type IAnalyticsUsecase interface {
	// GetMetrics returns normalized metrics for a post this orchestrator
	// published, cache-aside with a short TTL to spare platform quota.
	GetMetrics(ctx context.Context, userID, contentID string, platform model.Platform) (*model.PostMetrics, error)
	ListReports(ctx context.Context, userID string, limit int) ([]*model.PublishReport, error)
	GetReport(ctx context.Context, contentID string) (*model.PublishReport, error)
}

var ErrNotPublished = errors.New("content was not published to this platform")

type analyticsUsecase struct {
	published repository.IPublishedContent
	profiles  repository.IConnectionProfile
	archive   repository.IReportArchive
	registry  *publisher.Registry
	tokens    *TokenLifecycleManager
	metrics   *cache.MetricsCache
}

func NewAnalyticsUsecase(
	published repository.IPublishedContent,
	profiles repository.IConnectionProfile,
	archive repository.IReportArchive,
	registry *publisher.Registry,
	tokens *TokenLifecycleManager,
	metrics *cache.MetricsCache,
) IAnalyticsUsecase {
	return &analyticsUsecase{
		published: published,
		profiles:  profiles,
		archive:   archive,
		registry:  registry,
		tokens:    tokens,
		metrics:   metrics,
	}
}

func (u *analyticsUsecase) GetMetrics(ctx context.Context, userID, contentID string, platform model.Platform) (*model.PostMetrics, error) {
	rec, err := u.published.GetByContentID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, ErrNotPublished
	}
	externalPostID, ok := rec.ExternalRefs[platform]
	if !ok || externalPostID == "" {
		return nil, ErrNotPublished
	}

	if cached, hit := u.metrics.Get(ctx, platform, externalPostID); hit {
		return cached, nil
	}

	profile, err := u.profiles.GetActive(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	if !profile.Usable() {
		return nil, ErrNotConnected
	}
	cred, err := u.tokens.EnsureFresh(ctx, profile, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	adapter, err := u.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	fetched, err := adapter.FetchAnalytics(ctx, cred, externalPostID)
	if err != nil {
		return nil, err
	}

	u.metrics.Set(ctx, platform, externalPostID, *fetched)
	return fetched, nil
}

func (u *analyticsUsecase) ListReports(ctx context.Context, userID string, limit int) ([]*model.PublishReport, error) {
	return u.archive.ListReports(ctx, userID, limit)
}

func (u *analyticsUsecase) GetReport(ctx context.Context, contentID string) (*model.PublishReport, error) {
	return u.archive.GetReport(ctx, contentID)
}
