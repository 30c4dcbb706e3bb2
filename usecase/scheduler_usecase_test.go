package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"my-publisher/domain/model"
	"my-publisher/usecase"
)

type MockScheduledPostRepo struct {
	mock.Mock
}

func (m *MockScheduledPostRepo) Create(ctx context.Context, post *model.ScheduledPost) (*model.ScheduledPost, error) {
	args := m.Called(ctx, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledPost), args.Error(1)
}

func (m *MockScheduledPostRepo) GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledPost), args.Error(1)
}

func (m *MockScheduledPostRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ScheduledPost, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduledPost), args.Error(1)
}

func (m *MockScheduledPostRepo) ListDue(ctx context.Context, now time.Time, staleBefore time.Time, limit int) ([]*model.ScheduledPost, error) {
	args := m.Called(ctx, now, staleBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduledPost), args.Error(1)
}

func (m *MockScheduledPostRepo) Claim(ctx context.Context, id int64, token string, now time.Time, staleBefore time.Time) (bool, error) {
	args := m.Called(ctx, id, token, now, staleBefore)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduledPostRepo) MarkResult(ctx context.Context, id int64, token string, status string, outcome string, lastError *string) error {
	return m.Called(ctx, id, token, status, outcome, lastError).Error(0)
}

func (m *MockScheduledPostRepo) Cancel(ctx context.Context, id int64, userID string) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

type stubCoordinator struct {
	report *model.PublishReport
	err    error
	calls  int
}

func (s *stubCoordinator) Publish(ctx context.Context, req *model.PublishRequest) (*model.PublishReport, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	report := *s.report
	report.ContentID = req.ContentID
	return &report, nil
}

func TestSchedule_CreatesScheduledPost(t *testing.T) {
	repo := new(MockScheduledPostRepo)
	scheduler := usecase.NewSchedulerUsecase(repo, &stubCoordinator{}, time.Minute, 10*time.Minute, 20)

	future := time.Now().Add(2 * time.Hour)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(post *model.ScheduledPost) bool {
		return post.Status == model.ScheduleStatusScheduled &&
			post.ContentID == "c_1" &&
			post.ScheduledFor.Equal(future.UTC())
	})).Return(&model.ScheduledPost{ID: 11, ContentID: "c_1"}, nil)

	created, err := scheduler.Schedule(context.Background(), &model.PublishRequest{
		ContentID: "c_1",
		UserID:    "user_1",
		Text:      "later",
		Platforms: []model.Platform{model.PlatformFacebook},
	}, future)
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)
}

func TestSchedule_RejectsPastTime(t *testing.T) {
	scheduler := usecase.NewSchedulerUsecase(new(MockScheduledPostRepo), &stubCoordinator{}, time.Minute, 10*time.Minute, 20)

	_, err := scheduler.Schedule(context.Background(), &model.PublishRequest{
		ContentID: "c_1",
		UserID:    "user_1",
		Text:      "later",
		Platforms: []model.Platform{model.PlatformFacebook},
	}, time.Now().Add(-time.Minute))
	assert.Error(t, err)
}

func TestSchedule_RejectsEmptyContent(t *testing.T) {
	scheduler := usecase.NewSchedulerUsecase(new(MockScheduledPostRepo), &stubCoordinator{}, time.Minute, 10*time.Minute, 20)

	_, err := scheduler.Schedule(context.Background(), &model.PublishRequest{
		ContentID: "c_1",
		UserID:    "user_1",
		Platforms: []model.Platform{model.PlatformFacebook},
	}, time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text or media")
}

func TestCancel(t *testing.T) {
	repo := new(MockScheduledPostRepo)
	scheduler := usecase.NewSchedulerUsecase(repo, &stubCoordinator{}, time.Minute, 10*time.Minute, 20)

	repo.On("Cancel", mock.Anything, int64(5), "user_1").Return(true, nil).Once()
	require.NoError(t, scheduler.Cancel(context.Background(), 5, "user_1"))

	// Already claimed or finished: conditional update matches nothing.
	repo.On("Cancel", mock.Anything, int64(6), "user_1").Return(false, nil).Once()
	err := scheduler.Cancel(context.Background(), 6, "user_1")
	assert.ErrorIs(t, err, usecase.ErrCancelNotPossible)
}

func TestProcessDue_ClaimWinnerExecutesAndRecordsOutcome(t *testing.T) {
	repo := new(MockScheduledPostRepo)
	coordinator := &stubCoordinator{report: &model.PublishReport{
		Outcome: model.OutcomePartialSuccess,
		Results: []model.PublishResult{{Platform: model.PlatformFacebook, Success: true}},
	}}
	scheduler := usecase.NewSchedulerUsecase(repo, coordinator, time.Minute, 10*time.Minute, 20)

	due := []*model.ScheduledPost{{
		ID:        31,
		ContentID: "c_31",
		UserID:    "user_1",
		Platforms: []model.Platform{model.PlatformFacebook},
		Status:    model.ScheduleStatusScheduled,
	}}
	repo.On("ListDue", mock.Anything, mock.Anything, mock.Anything, 20).Return(due, nil)
	repo.On("Claim", mock.Anything, int64(31), mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	repo.On("MarkResult", mock.Anything, int64(31), mock.Anything, model.ScheduleStatusPublished, model.OutcomePartialSuccess, (*string)(nil)).Return(nil)

	require.NoError(t, scheduler.ProcessDue(context.Background()))
	assert.Equal(t, 1, coordinator.calls)
	repo.AssertExpectations(t)
}

func TestProcessDue_ClaimLoserSkipsExecution(t *testing.T) {
	repo := new(MockScheduledPostRepo)
	coordinator := &stubCoordinator{report: &model.PublishReport{Outcome: model.OutcomeFullSuccess}}
	scheduler := usecase.NewSchedulerUsecase(repo, coordinator, time.Minute, 10*time.Minute, 20)

	due := []*model.ScheduledPost{{ID: 32, ContentID: "c_32", UserID: "user_1"}}
	repo.On("ListDue", mock.Anything, mock.Anything, mock.Anything, 20).Return(due, nil)
	// Another instance won the conditional update.
	repo.On("Claim", mock.Anything, int64(32), mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	require.NoError(t, scheduler.ProcessDue(context.Background()))
	assert.Equal(t, 0, coordinator.calls)
	repo.AssertNotCalled(t, "MarkResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDue_TotalFailureMarksFailed(t *testing.T) {
	repo := new(MockScheduledPostRepo)
	coordinator := &stubCoordinator{report: &model.PublishReport{
		Outcome: model.OutcomeTotalFailure,
		Results: []model.PublishResult{{
			Platform:     model.PlatformTikTok,
			ErrorKind:    model.ErrKindUnsupported,
			ErrorMessage: "tiktok accepts video content only, got image",
		}},
	}}
	scheduler := usecase.NewSchedulerUsecase(repo, coordinator, time.Minute, 10*time.Minute, 20)

	due := []*model.ScheduledPost{{ID: 33, ContentID: "c_33", UserID: "user_1"}}
	repo.On("ListDue", mock.Anything, mock.Anything, mock.Anything, 20).Return(due, nil)
	repo.On("Claim", mock.Anything, int64(33), mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	repo.On("MarkResult", mock.Anything, int64(33), mock.Anything, model.ScheduleStatusFailed, model.OutcomeTotalFailure, mock.MatchedBy(func(lastError *string) bool {
		return lastError != nil && *lastError != ""
	})).Return(nil)

	require.NoError(t, scheduler.ProcessDue(context.Background()))
	repo.AssertExpectations(t)
}

func TestProcessDue_CoordinatorErrorMarksFailed(t *testing.T) {
	repo := new(MockScheduledPostRepo)
	coordinator := &stubCoordinator{err: errors.New("validation failed")}
	scheduler := usecase.NewSchedulerUsecase(repo, coordinator, time.Minute, 10*time.Minute, 20)

	due := []*model.ScheduledPost{{ID: 34, ContentID: "c_34", UserID: "user_1"}}
	repo.On("ListDue", mock.Anything, mock.Anything, mock.Anything, 20).Return(due, nil)
	repo.On("Claim", mock.Anything, int64(34), mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	repo.On("MarkResult", mock.Anything, int64(34), mock.Anything, model.ScheduleStatusFailed, model.OutcomeTotalFailure, mock.Anything).Return(nil)

	require.NoError(t, scheduler.ProcessDue(context.Background()))
	repo.AssertExpectations(t)
}
