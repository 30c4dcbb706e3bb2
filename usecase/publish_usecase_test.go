package usecase_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/vault"
	"my-publisher/usecase"
)

// Mock implementations

type MockConnectionProfileRepo struct {
	mock.Mock
}

func (m *MockConnectionProfileRepo) GetActive(ctx context.Context, userID string, platform model.Platform) (*model.ConnectionProfile, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectionProfile), args.Error(1)
}

func (m *MockConnectionProfileRepo) GetByID(ctx context.Context, id int64) (*model.ConnectionProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectionProfile), args.Error(1)
}

func (m *MockConnectionProfileRepo) ListByUser(ctx context.Context, userID string) ([]*model.ConnectionProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ConnectionProfile), args.Error(1)
}

func (m *MockConnectionProfileRepo) Upsert(ctx context.Context, p *model.ConnectionProfile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockConnectionProfileRepo) UpdateHealth(ctx context.Context, id int64, status string, lastError *string) error {
	return m.Called(ctx, id, status, lastError).Error(0)
}

func (m *MockConnectionProfileRepo) UpdateCredential(ctx context.Context, id int64, accessEnc string, refreshEnc *string, expiresAt *time.Time) error {
	return m.Called(ctx, id, accessEnc, refreshEnc, expiresAt).Error(0)
}

func (m *MockConnectionProfileRepo) CommitUsage(ctx context.Context, id int64, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockConnectionProfileRepo) ResetWindows(ctx context.Context, id int64, now time.Time) error {
	return m.Called(ctx, id, now).Error(0)
}

func (m *MockConnectionProfileRepo) MarkPosted(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockConnectionProfileRepo) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockPublishedContentRepo struct {
	mock.Mock
}

func (m *MockPublishedContentRepo) RecordPublish(ctx context.Context, rec *model.PublishedContent) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockPublishedContentRepo) GetByContentID(ctx context.Context, contentID string) (*model.PublishedContent, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishedContent), args.Error(1)
}

type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) SaveReport(ctx context.Context, report *model.PublishReport) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockReportArchive) ListReports(ctx context.Context, userID string, limit int) ([]*model.PublishReport, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishReport), args.Error(1)
}

func (m *MockReportArchive) GetReport(ctx context.Context, contentID string) (*model.PublishReport, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishReport), args.Error(1)
}

type MockAdapter struct {
	mock.Mock
	platform model.Platform
}

func (m *MockAdapter) Platform() model.Platform { return m.platform }

func (m *MockAdapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	args := m.Called(ctx, cred, req)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	args := m.Called(ctx, cred, externalPostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostMetrics), args.Error(1)
}

func (m *MockAdapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	args := m.Called(ctx, cred)
	return args.Bool(0), args.Error(1)
}

// Fixtures

func testVault(t *testing.T) *vault.Vault {
	t.Helper()
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	v, err := vault.New(key)
	require.NoError(t, err)
	return v
}

func activeProfile(t *testing.T, v *vault.Vault, id int64, platform model.Platform) *model.ConnectionProfile {
	t.Helper()
	enc, err := v.Encrypt("secret-" + string(platform))
	require.NoError(t, err)
	now := time.Now().UTC()
	return &model.ConnectionProfile{
		ID:                id,
		UserID:            "user_1",
		Platform:          platform,
		ExternalAccountID: "acct_" + string(platform),
		AccessSecretEnc:   enc,
		Status:            model.ConnectionStatusConnected,
		PostsPerHour:      10,
		PostsPerDay:       50,
		HourlyWindowStart: now,
		DailyWindowStart:  now,
		IsActive:          true,
	}
}

func newCoordinator(profiles repository.IConnectionProfile, v *vault.Vault, published repository.IPublishedContent, archive repository.IReportArchive, adapters ...publisher.Adapter) *usecase.PublishCoordinator {
	registry := publisher.NewRegistry(adapters...)
	limiter := usecase.NewRateLimiter(profiles)
	tokens := usecase.NewTokenLifecycleManager(profiles, v, nil)
	return usecase.NewPublishCoordinator(registry, profiles, limiter, tokens, published, archive, usecase.PublishCoordinatorOptions{
		MaxParallel:    4,
		AdapterTimeout: 5 * time.Second,
	})
}

func TestPublish_PartialSuccessPreservesRequestedOrder(t *testing.T) {
	v := testVault(t)
	profiles := new(MockConnectionProfileRepo)
	published := new(MockPublishedContentRepo)
	archive := new(MockReportArchive)

	fbProfile := activeProfile(t, v, 1, model.PlatformFacebook)
	twProfile := activeProfile(t, v, 2, model.PlatformTwitter)
	liProfile := activeProfile(t, v, 3, model.PlatformLinkedIn)

	profiles.On("GetActive", mock.Anything, "user_1", model.PlatformFacebook).Return(fbProfile, nil)
	profiles.On("GetActive", mock.Anything, "user_1", model.PlatformTwitter).Return(twProfile, nil)
	profiles.On("GetActive", mock.Anything, "user_1", model.PlatformLinkedIn).Return(liProfile, nil)
	profiles.On("CommitUsage", mock.Anything, int64(1), mock.Anything).Return(true, nil)
	// Twitter's quota is exhausted.
	profiles.On("CommitUsage", mock.Anything, int64(2), mock.Anything).Return(false, nil)
	profiles.On("CommitUsage", mock.Anything, int64(3), mock.Anything).Return(true, nil)
	profiles.On("MarkPosted", mock.Anything, int64(1), mock.Anything).Return(nil)
	published.On("RecordPublish", mock.Anything, mock.Anything).Return(nil)
	archive.On("SaveReport", mock.Anything, mock.Anything).Return(nil)

	fb := &MockAdapter{platform: model.PlatformFacebook}
	fb.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("fb_post_1", nil)
	tw := &MockAdapter{platform: model.PlatformTwitter}
	li := &MockAdapter{platform: model.PlatformLinkedIn}
	li.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return("", publisher.ContentError("image too large", nil))

	coordinator := newCoordinator(profiles, v, published, archive, fb, tw, li)
	report, err := coordinator.Publish(context.Background(), &model.PublishRequest{
		ContentID: "c_1",
		UserID:    "user_1",
		Text:      "hello",
		Platforms: []model.Platform{model.PlatformFacebook, model.PlatformTwitter, model.PlatformLinkedIn},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomePartialSuccess, report.Outcome)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 3, report.RequestedCount)

	require.Len(t, report.Results, 3)
	assert.Equal(t, model.PlatformFacebook, report.Results[0].Platform)
	assert.True(t, report.Results[0].Success)
	assert.Equal(t, "fb_post_1", report.Results[0].ExternalPostID)

	assert.Equal(t, model.PlatformTwitter, report.Results[1].Platform)
	assert.False(t, report.Results[1].Success)
	assert.Equal(t, model.ErrKindRateLimited, report.Results[1].ErrorKind)

	assert.Equal(t, model.PlatformLinkedIn, report.Results[2].Platform)
	assert.Equal(t, model.ErrKindContentRejected, report.Results[2].ErrorKind)

	// Rate-limited twitter never reached its adapter.
	tw.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	published.AssertCalled(t, "RecordPublish", mock.Anything, mock.MatchedBy(func(rec *model.PublishedContent) bool {
		return rec.ExternalRefs[model.PlatformFacebook] == "fb_post_1" && len(rec.ExternalRefs) == 1
	}))
}

func TestPublish_AuthFailureExpiresProfile(t *testing.T) {
	v := testVault(t)
	profiles := new(MockConnectionProfileRepo)

	profile := activeProfile(t, v, 7, model.PlatformInstagram)
	profiles.On("GetActive", mock.Anything, "user_1", model.PlatformInstagram).Return(profile, nil)
	profiles.On("CommitUsage", mock.Anything, int64(7), mock.Anything).Return(true, nil)
	profiles.On("UpdateHealth", mock.Anything, int64(7), model.ConnectionStatusExpired, mock.Anything).Return(nil)

	ig := &MockAdapter{platform: model.PlatformInstagram}
	ig.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return("", publisher.AuthError("token revoked", nil))

	coordinator := newCoordinator(profiles, v, nil, nil, ig)
	report, err := coordinator.Publish(context.Background(), &model.PublishRequest{
		ContentID: "c_2",
		UserID:    "user_1",
		Text:      "hello",
		Platforms: []model.Platform{model.PlatformInstagram},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeTotalFailure, report.Outcome)
	assert.Equal(t, model.ErrKindAuthentication, report.Results[0].ErrorKind)
	profiles.AssertCalled(t, "UpdateHealth", mock.Anything, int64(7), model.ConnectionStatusExpired, mock.Anything)
}

func TestPublish_NotConnectedPlatform(t *testing.T) {
	v := testVault(t)
	profiles := new(MockConnectionProfileRepo)
	profiles.On("GetActive", mock.Anything, "user_1", model.PlatformPinterest).Return(nil, nil)

	coordinator := newCoordinator(profiles, v, nil, nil, &MockAdapter{platform: model.PlatformPinterest})
	report, err := coordinator.Publish(context.Background(), &model.PublishRequest{
		ContentID: "c_3",
		UserID:    "user_1",
		Text:      "hello",
		Platforms: []model.Platform{model.PlatformPinterest},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeTotalFailure, report.Outcome)
	assert.Equal(t, model.ErrKindNotConnected, report.Results[0].ErrorKind)
}

func TestPublish_AdapterPanicIsIsolated(t *testing.T) {
	v := testVault(t)
	profiles := new(MockConnectionProfileRepo)
	published := new(MockPublishedContentRepo)

	fbProfile := activeProfile(t, v, 1, model.PlatformFacebook)
	twProfile := activeProfile(t, v, 2, model.PlatformTwitter)
	profiles.On("GetActive", mock.Anything, "user_1", model.PlatformFacebook).Return(fbProfile, nil)
	profiles.On("GetActive", mock.Anything, "user_1", model.PlatformTwitter).Return(twProfile, nil)
	profiles.On("CommitUsage", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	profiles.On("MarkPosted", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	published.On("RecordPublish", mock.Anything, mock.Anything).Return(nil)

	fb := &MockAdapter{platform: model.PlatformFacebook}
	fb.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("nil map write") }).
		Return("", nil)
	tw := &MockAdapter{platform: model.PlatformTwitter}
	tw.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("tw_1", nil)

	coordinator := newCoordinator(profiles, v, published, nil, fb, tw)
	report, err := coordinator.Publish(context.Background(), &model.PublishRequest{
		ContentID: "c_4",
		UserID:    "user_1",
		Text:      "hello",
		Platforms: []model.Platform{model.PlatformFacebook, model.PlatformTwitter},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomePartialSuccess, report.Outcome)
	assert.Equal(t, model.ErrKindTransient, report.Results[0].ErrorKind)
	assert.Contains(t, report.Results[0].ErrorMessage, "internal error")
	assert.True(t, report.Results[1].Success)
}

func TestPublish_ValidationAndDedupe(t *testing.T) {
	v := testVault(t)
	profiles := new(MockConnectionProfileRepo)
	coordinator := newCoordinator(profiles, v, nil, nil)

	_, err := coordinator.Publish(context.Background(), &model.PublishRequest{UserID: "user_1"})
	assert.Error(t, err)

	_, err = coordinator.Publish(context.Background(), &model.PublishRequest{ContentID: "c", UserID: "u", Text: "hi"})
	assert.Error(t, err)

	// Nothing to post: no text and no media.
	_, err = coordinator.Publish(context.Background(), &model.PublishRequest{
		ContentID: "c",
		UserID:    "u",
		Platforms: []model.Platform{model.PlatformFacebook},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text or media")

	profile := activeProfile(t, v, 1, model.PlatformFacebook)
	profiles.On("GetActive", mock.Anything, "u", model.PlatformFacebook).Return(profile, nil).Once()
	profiles.On("CommitUsage", mock.Anything, int64(1), mock.Anything).Return(true, nil)
	profiles.On("MarkPosted", mock.Anything, int64(1), mock.Anything).Return(nil)

	fb := &MockAdapter{platform: model.PlatformFacebook}
	fb.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("fb_1", nil).Once()

	coordinator = newCoordinator(profiles, v, nil, nil, fb)
	report, err := coordinator.Publish(context.Background(), &model.PublishRequest{
		ContentID: "c_5",
		UserID:    "u",
		Text:      "hello",
		Platforms: []model.Platform{model.PlatformFacebook, model.PlatformFacebook},
	})
	require.NoError(t, err)
	assert.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.RequestedCount)
	assert.False(t, report.StartedAt.IsZero())
	assert.False(t, report.StartedAt.After(report.CompletedAt))
}
