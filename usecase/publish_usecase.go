package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/logger"
	"my-publisher/infrastructure/pubsub"
	"my-publisher/infrastructure/realtime"
	"my-publisher/infrastructure/servicebus"
)

type IPublishUsecase interface {
	// Publish fans the request out to every requested platform and blocks
	// until all attempts settle. The report's results are ordered exactly
	// as the platforms were requested.
	Publish(ctx context.Context, req *model.PublishRequest) (*model.PublishReport, error)
}

// PublishCoordinator runs the per-platform pipeline (admission, token
// freshness, adapter call) under a bounded fan-out. One platform's
// failure, panic, or timeout never aborts the others.
type PublishCoordinator struct {
	registry  *publisher.Registry
	profiles  repository.IConnectionProfile
	limiter   *RateLimiter
	tokens    *TokenLifecycleManager
	published repository.IPublishedContent
	archive   repository.IReportArchive
	hub       *realtime.Hub
	events    pubsub.IEventPublisher
	bus       servicebus.IEventSender

	maxParallel    int
	dispatchDelay  time.Duration
	adapterTimeout time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

type PublishCoordinatorOptions struct {
	MaxParallel    int
	DispatchDelay  time.Duration
	AdapterTimeout time.Duration
	Hub            *realtime.Hub
	Events         pubsub.IEventPublisher
	Bus            servicebus.IEventSender
}

func NewPublishCoordinator(
	registry *publisher.Registry,
	profiles repository.IConnectionProfile,
	limiter *RateLimiter,
	tokens *TokenLifecycleManager,
	published repository.IPublishedContent,
	archive repository.IReportArchive,
	opts PublishCoordinatorOptions,
) *PublishCoordinator {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 4
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 30 * time.Second
	}
	return &PublishCoordinator{
		registry:       registry,
		profiles:       profiles,
		limiter:        limiter,
		tokens:         tokens,
		published:      published,
		archive:        archive,
		hub:            opts.Hub,
		events:         opts.Events,
		bus:            opts.Bus,
		maxParallel:    opts.MaxParallel,
		dispatchDelay:  opts.DispatchDelay,
		adapterTimeout: opts.AdapterTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		sleep: func(ctx context.Context, d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		},
	}
}

func (c *PublishCoordinator) Publish(ctx context.Context, req *model.PublishRequest) (*model.PublishReport, error) {
	if req.ContentID == "" || req.UserID == "" {
		return nil, errors.New("contentId and userId required")
	}
	if req.Text == "" && len(req.Media) == 0 {
		return nil, errors.New("content requires text or media")
	}
	platforms := dedupePlatforms(req.Platforms)
	if len(platforms) == 0 {
		return nil, errors.New("at least one platform required")
	}

	startedAt := c.now()
	results := make([]model.PublishResult, len(platforms))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.maxParallel)
	for i, platform := range platforms {
		if i > 0 && c.dispatchDelay > 0 {
			c.sleep(groupCtx, c.dispatchDelay)
		}
		i, platform := i, platform
		group.Go(func() error {
			results[i] = c.publishOne(groupCtx, req, platform)
			return nil
		})
	}
	// Goroutines never return errors; failures live in their result slot.
	_ = group.Wait()

	report := &model.PublishReport{
		ContentID:      req.ContentID,
		UserID:         req.UserID,
		Results:        results,
		RequestedCount: len(platforms),
		StartedAt:      startedAt,
		CompletedAt:    c.now(),
	}
	report.ComputeOutcome()

	c.persistAndNotify(ctx, req, report)
	return report, nil
}

// publishOne runs the whole pipeline for one platform and always returns
// a result, converting panics into transient failures so one adapter bug
// cannot take down the fan-out.
func (c *PublishCoordinator) publishOne(ctx context.Context, req *model.PublishRequest, platform model.Platform) (result model.PublishResult) {
	result = model.PublishResult{Platform: platform}
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().
				WithField("platform", platform).
				WithField("panic", r).
				Error("adapter panicked during publish")
			result.Success = false
			result.ErrorKind = model.ErrKindTransient
			result.ErrorMessage = fmt.Sprintf("internal error: %v", r)
		}
	}()

	profile, err := c.profiles.GetActive(ctx, req.UserID, platform)
	if err != nil {
		return c.failed(platform, model.ErrKindTransient, "loading connection profile: "+err.Error())
	}
	if !profile.Usable() {
		return c.failed(platform, model.ErrKindNotConnected, fmt.Sprintf("no active %s connection for user", platform))
	}

	now := c.now()
	admitted, err := c.limiter.Admit(ctx, profile, now)
	if err != nil {
		return c.failed(platform, model.ErrKindTransient, "rate limit check failed: "+err.Error())
	}
	if !admitted {
		return c.failed(platform, model.ErrKindRateLimited, fmt.Sprintf("posting quota exhausted for %s", platform))
	}

	cred, err := c.tokens.EnsureFresh(ctx, profile, now)
	if err != nil {
		kind, msg := publisher.Classify(err)
		return c.failed(platform, kind, msg)
	}

	adapter, err := c.registry.Get(platform)
	if err != nil {
		kind, msg := publisher.Classify(err)
		return c.failed(platform, kind, msg)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.adapterTimeout)
	defer cancel()
	externalPostID, err := adapter.Publish(callCtx, cred, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.failed(platform, model.ErrKindTransient, fmt.Sprintf("%s call timed out after %s", platform, c.adapterTimeout))
		}
		kind, msg := publisher.Classify(err)
		if kind == model.ErrKindAuthentication {
			c.tokens.MarkExpired(ctx, profile, msg)
		}
		return c.failed(platform, kind, msg)
	}

	if err := c.profiles.MarkPosted(ctx, profile.ID, c.now()); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed to record last post time")
	}

	return model.PublishResult{
		Platform:       platform,
		Success:        true,
		ExternalPostID: externalPostID,
		PostedAt:       c.now(),
	}
}

func (c *PublishCoordinator) failed(platform model.Platform, kind model.ErrorKind, msg string) model.PublishResult {
	logger.GetLogger().
		WithField("platform", platform).
		WithField("error_kind", kind).
		WithField("error", msg).
		Warn("platform publish failed")
	return model.PublishResult{
		Platform:     platform,
		Success:      false,
		ErrorKind:    kind,
		ErrorMessage: msg,
	}
}

func (c *PublishCoordinator) persistAndNotify(ctx context.Context, req *model.PublishRequest, report *model.PublishReport) {
	if report.SuccessCount > 0 && c.published != nil {
		refs := make(map[model.Platform]string, report.SuccessCount)
		for _, res := range report.Results {
			if res.Success {
				refs[res.Platform] = res.ExternalPostID
			}
		}
		rec := &model.PublishedContent{
			ContentID:    req.ContentID,
			UserID:       req.UserID,
			ExternalRefs: refs,
			PublishedAt:  report.CompletedAt,
		}
		if err := c.published.RecordPublish(ctx, rec); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed to record published content")
		}
	}

	if c.archive != nil {
		if err := c.archive.SaveReport(ctx, report); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed to archive publish report")
		}
	}

	if c.hub != nil {
		for _, res := range report.Results {
			c.hub.BroadcastResult(report.UserID, report.ContentID, res)
		}
		c.hub.BroadcastReport(*report)
	}

	event := model.EventForReport(*report)
	if c.events != nil {
		if _, err := c.events.Emit(ctx, event); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed to emit lifecycle event")
		}
	}
	if c.bus != nil {
		if err := c.bus.SendLifecycleEvent(ctx, event); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed to send lifecycle event")
		}
	}
}

func dedupePlatforms(platforms []model.Platform) []model.Platform {
	seen := make(map[model.Platform]struct{}, len(platforms))
	out := make([]model.Platform, 0, len(platforms))
	for _, p := range platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
