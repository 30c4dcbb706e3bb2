package usecase

import (
	"context"
	"sync"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/logger"
)

// RateLimiter enforces per-profile posting quotas over two independent
// sliding windows (hourly and daily). Admission consumes a slot in the
// same conditional statement that checks it, so a burst of concurrent
// publishes can never land more posts than either window allows. A
// per-profile mutex serializes admissions within this process; the
// conditional update in the repository protects against other processes.
type RateLimiter struct {
	repo repository.IConnectionProfile

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewRateLimiter(repo repository.IConnectionProfile) *RateLimiter {
	return &RateLimiter{repo: repo, locks: make(map[int64]*sync.Mutex)}
}

func (l *RateLimiter) profileLock(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	return lock
}

// Admit consumes one posting slot for the profile. It returns false when
// either the hourly or the daily window is exhausted. An elapsed window
// is reset as part of the same statement, so the first post after a quiet
// hour always succeeds.
func (l *RateLimiter) Admit(ctx context.Context, profile *model.ConnectionProfile, now time.Time) (bool, error) {
	lock := l.profileLock(profile.ID)
	lock.Lock()
	defer lock.Unlock()

	allowed, err := l.repo.CommitUsage(ctx, profile.ID, now)
	if err != nil {
		return false, err
	}
	if !allowed {
		logger.GetLogger().
			WithField("profile_id", profile.ID).
			WithField("platform", profile.Platform).
			Info("publish denied by rate limit")
	}
	return allowed, nil
}

// Remaining reports how many slots each window still has, from the
// profile snapshot the caller already holds. Elapsed windows count as
// full quota. Display only: Admit is the authority.
func (l *RateLimiter) Remaining(profile *model.ConnectionProfile, now time.Time) (hourly, daily int) {
	hourlyUsed := profile.HourlyUsage
	if now.Sub(profile.HourlyWindowStart) > time.Hour {
		hourlyUsed = 0
	}
	dailyUsed := profile.DailyUsage
	if now.Sub(profile.DailyWindowStart) > 24*time.Hour {
		dailyUsed = 0
	}

	hourly = profile.PostsPerHour - hourlyUsed
	if hourly < 0 {
		hourly = 0
	}
	daily = profile.PostsPerDay - dailyUsed
	if daily < 0 {
		daily = 0
	}
	return hourly, daily
}
