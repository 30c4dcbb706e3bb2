package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"my-publisher/domain/model"
	"my-publisher/usecase"
)

func TestAdmit_DelegatesToConditionalCommit(t *testing.T) {
	repo := new(MockConnectionProfileRepo)
	limiter := usecase.NewRateLimiter(repo)
	now := time.Now().UTC()
	profile := &model.ConnectionProfile{ID: 9, Platform: model.PlatformFacebook}

	repo.On("CommitUsage", mock.Anything, int64(9), now).Return(true, nil).Once()
	allowed, err := limiter.Admit(context.Background(), profile, now)
	require.NoError(t, err)
	assert.True(t, allowed)

	repo.On("CommitUsage", mock.Anything, int64(9), now).Return(false, nil).Once()
	allowed, err = limiter.Admit(context.Background(), profile, now)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAdmit_ConcurrentBurstNeverExceedsQuota(t *testing.T) {
	repo := new(MockConnectionProfileRepo)
	limiter := usecase.NewRateLimiter(repo)
	profile := &model.ConnectionProfile{ID: 4, Platform: model.PlatformTwitter, PostsPerHour: 3, PostsPerDay: 100}

	// The ordered expectations stand in for the database row running out
	// of slots: the first three conditional updates match, the rest do not.
	repo.On("CommitUsage", mock.Anything, int64(4), mock.Anything).Return(true, nil).Times(3)
	repo.On("CommitUsage", mock.Anything, int64(4), mock.Anything).Return(false, nil)

	var wg sync.WaitGroup
	granted := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.Admit(context.Background(), profile, time.Now().UTC())
			require.NoError(t, err)
			granted <- ok
		}()
	}
	wg.Wait()
	close(granted)

	admitted := 0
	for ok := range granted {
		if ok {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted)
}

func TestRemaining(t *testing.T) {
	limiter := usecase.NewRateLimiter(new(MockConnectionProfileRepo))
	now := time.Now().UTC()

	profile := &model.ConnectionProfile{
		PostsPerHour:      10,
		PostsPerDay:       50,
		HourlyUsage:       4,
		DailyUsage:        20,
		HourlyWindowStart: now.Add(-10 * time.Minute),
		DailyWindowStart:  now.Add(-2 * time.Hour),
	}
	hourly, daily := limiter.Remaining(profile, now)
	assert.Equal(t, 6, hourly)
	assert.Equal(t, 30, daily)

	// An elapsed hourly window counts as a full hourly quota while the
	// daily window keeps its usage.
	profile.HourlyWindowStart = now.Add(-2 * time.Hour)
	hourly, daily = limiter.Remaining(profile, now)
	assert.Equal(t, 10, hourly)
	assert.Equal(t, 30, daily)

	// Overconsumed counters never report negative quota.
	profile.HourlyWindowStart = now
	profile.HourlyUsage = 12
	hourly, _ = limiter.Remaining(profile, now)
	assert.Equal(t, 0, hourly)
}
