package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"my-publisher/domain/model"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/logger"
)

type ISchedulerUsecase interface {
	Schedule(ctx context.Context, req *model.PublishRequest, scheduledFor time.Time) (*model.ScheduledPost, error)
	Cancel(ctx context.Context, id int64, userID string) error
	ListScheduled(ctx context.Context, userID string, limit int) ([]*model.ScheduledPost, error)
	// ProcessDue claims and executes every due post, one batch. Exposed
	// separately from Run so tests and admin tooling can drive a single
	// sweep.
	ProcessDue(ctx context.Context) error
	// Run sweeps on a ticker until the context is cancelled. A post
	// claimed by a sweep that dies mid-flight is reclaimed after the
	// claim timeout elapses.
	Run(ctx context.Context) error
}

var ErrCancelNotPossible = errors.New("scheduled post already executing or finished")

type schedulerUsecase struct {
	repo        repository.IScheduledPost
	coordinator IPublishUsecase

	sweepInterval time.Duration
	claimTimeout  time.Duration
	batchSize     int

	now func() time.Time
}

func NewSchedulerUsecase(repo repository.IScheduledPost, coordinator IPublishUsecase, sweepInterval, claimTimeout time.Duration, batchSize int) ISchedulerUsecase {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	if claimTimeout <= 0 {
		claimTimeout = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &schedulerUsecase{
		repo:          repo,
		coordinator:   coordinator,
		sweepInterval: sweepInterval,
		claimTimeout:  claimTimeout,
		batchSize:     batchSize,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (u *schedulerUsecase) Schedule(ctx context.Context, req *model.PublishRequest, scheduledFor time.Time) (*model.ScheduledPost, error) {
	if req.ContentID == "" || req.UserID == "" {
		return nil, errors.New("contentId and userId required")
	}
	if req.Text == "" && len(req.Media) == 0 {
		return nil, errors.New("content requires text or media")
	}
	if len(req.Platforms) == 0 {
		return nil, errors.New("at least one platform required")
	}
	if !scheduledFor.After(u.now()) {
		return nil, errors.New("scheduledFor must be in the future")
	}

	post := &model.ScheduledPost{
		ContentID:    req.ContentID,
		UserID:       req.UserID,
		Text:         req.Text,
		Media:        req.Media,
		Hashtags:     req.Hashtags,
		Mentions:     req.Mentions,
		Platforms:    dedupePlatforms(req.Platforms),
		ScheduledFor: scheduledFor.UTC(),
		Status:       model.ScheduleStatusScheduled,
	}
	return u.repo.Create(ctx, post)
}

func (u *schedulerUsecase) Cancel(ctx context.Context, id int64, userID string) error {
	cancelled, err := u.repo.Cancel(ctx, id, userID)
	if err != nil {
		return err
	}
	if !cancelled {
		return ErrCancelNotPossible
	}
	return nil
}

func (u *schedulerUsecase) ListScheduled(ctx context.Context, userID string, limit int) ([]*model.ScheduledPost, error) {
	return u.repo.ListByUser(ctx, userID, limit)
}

func (u *schedulerUsecase) ProcessDue(ctx context.Context) error {
	now := u.now()
	staleBefore := now.Add(-u.claimTimeout)

	due, err := u.repo.ListDue(ctx, now, staleBefore, u.batchSize)
	if err != nil {
		return err
	}

	for _, post := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		u.executeOne(ctx, post, staleBefore)
	}
	return nil
}

// executeOne claims the post, runs the publish, and records the terminal
// state. Losing the claim race is normal when several instances sweep
// concurrently.
func (u *schedulerUsecase) executeOne(ctx context.Context, post *model.ScheduledPost, staleBefore time.Time) {
	token := uuid.New().String()
	won, err := u.repo.Claim(ctx, post.ID, token, u.now(), staleBefore)
	if err != nil {
		logger.GetLogger().WithField("scheduled_id", post.ID).WithField("error", err).Error("claim failed")
		return
	}
	if !won {
		return
	}

	report, err := u.coordinator.Publish(ctx, post.Request())
	if err != nil {
		msg := err.Error()
		if markErr := u.repo.MarkResult(ctx, post.ID, token, model.ScheduleStatusFailed, model.OutcomeTotalFailure, &msg); markErr != nil {
			logger.GetLogger().WithField("scheduled_id", post.ID).WithField("error", markErr).Error("failed to record scheduled failure")
		}
		return
	}

	status := model.ScheduleStatusPublished
	var lastError *string
	if report.Outcome == model.OutcomeTotalFailure {
		status = model.ScheduleStatusFailed
		for _, res := range report.Results {
			if res.ErrorMessage != "" {
				msg := res.ErrorMessage
				lastError = &msg
				break
			}
		}
	}
	if err := u.repo.MarkResult(ctx, post.ID, token, status, report.Outcome, lastError); err != nil {
		logger.GetLogger().WithField("scheduled_id", post.ID).WithField("error", err).Error("failed to record scheduled result")
		return
	}
	logger.GetLogger().
		WithField("scheduled_id", post.ID).
		WithField("content_id", post.ContentID).
		WithField("outcome", report.Outcome).
		Info("scheduled post executed")
}

func (u *schedulerUsecase) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.sweepInterval)
	defer ticker.Stop()

	logger.GetLogger().WithField("interval", u.sweepInterval.String()).Info("scheduled publish sweep started")
	for {
		select {
		case <-ctx.Done():
			logger.GetLogger().Info("scheduled publish sweep stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := u.ProcessDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.GetLogger().WithField("error", err).Error("sweep iteration failed")
			}
		}
	}
}
