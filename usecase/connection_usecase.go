package usecase

import (
	"context"
	"errors"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/logger"
	"my-publisher/infrastructure/vault"
)

type ConnectInput struct {
	UserID            string
	Platform          model.Platform
	ExternalAccountID string
	DisplayName       string
	AccessSecret      string
	RefreshSecret     string
	TokenExpiresAt    *time.Time
	PostsPerHour      int
	PostsPerDay       int
	Extra             map[string]string
}

type IConnectionUsecase interface {
	// Connect encrypts the handed-over secrets and upserts the profile.
	// Called from the OAuth callback or a manual credential entry.
	Connect(ctx context.Context, in ConnectInput) (*model.ConnectionProfile, error)
	// TestConnection validates the stored credential against the live
	// platform and updates the profile's health accordingly.
	TestConnection(ctx context.Context, userID string, platform model.Platform) (bool, error)
	Disconnect(ctx context.Context, userID string, platform model.Platform) error
	List(ctx context.Context, userID string) ([]*model.ConnectionProfile, error)
}

var ErrNotConnected = errors.New("platform not connected")

type connectionUsecase struct {
	repo     repository.IConnectionProfile
	vault    *vault.Vault
	registry *publisher.Registry
	tokens   *TokenLifecycleManager

	defaultPostsPerHour int
	defaultPostsPerDay  int
}

func NewConnectionUsecase(repo repository.IConnectionProfile, v *vault.Vault, registry *publisher.Registry, tokens *TokenLifecycleManager, defaultPostsPerHour, defaultPostsPerDay int) IConnectionUsecase {
	return &connectionUsecase{
		repo:                repo,
		vault:               v,
		registry:            registry,
		tokens:              tokens,
		defaultPostsPerHour: defaultPostsPerHour,
		defaultPostsPerDay:  defaultPostsPerDay,
	}
}

func (u *connectionUsecase) Connect(ctx context.Context, in ConnectInput) (*model.ConnectionProfile, error) {
	if in.UserID == "" || in.ExternalAccountID == "" || in.AccessSecret == "" {
		return nil, errors.New("userId, externalAccountId and accessSecret required")
	}
	if _, err := u.registry.Get(in.Platform); err != nil {
		return nil, err
	}

	accessEnc, err := u.vault.Encrypt(in.AccessSecret)
	if err != nil {
		return nil, err
	}
	var refreshEnc *string
	if in.RefreshSecret != "" {
		enc, err := u.vault.Encrypt(in.RefreshSecret)
		if err != nil {
			return nil, err
		}
		refreshEnc = &enc
	}

	postsPerHour := in.PostsPerHour
	if postsPerHour <= 0 {
		postsPerHour = u.defaultPostsPerHour
	}
	postsPerDay := in.PostsPerDay
	if postsPerDay <= 0 {
		postsPerDay = u.defaultPostsPerDay
	}

	now := time.Now().UTC()
	profile := &model.ConnectionProfile{
		UserID:            in.UserID,
		Platform:          in.Platform,
		ExternalAccountID: in.ExternalAccountID,
		DisplayName:       in.DisplayName,
		AccessSecretEnc:   accessEnc,
		RefreshSecretEnc:  refreshEnc,
		TokenExpiresAt:    in.TokenExpiresAt,
		Status:            model.ConnectionStatusConnected,
		PostsPerHour:      postsPerHour,
		PostsPerDay:       postsPerDay,
		HourlyWindowStart: now,
		DailyWindowStart:  now,
		IsActive:          true,
		Extra:             in.Extra,
	}
	if err := u.repo.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	logger.GetLogger().
		WithField("user_id", in.UserID).
		WithField("platform", in.Platform).
		Info("platform connected")
	return profile, nil
}

func (u *connectionUsecase) TestConnection(ctx context.Context, userID string, platform model.Platform) (bool, error) {
	profile, err := u.repo.GetActive(ctx, userID, platform)
	if err != nil {
		return false, err
	}
	if !profile.Usable() {
		return false, ErrNotConnected
	}

	adapter, err := u.registry.Get(platform)
	if err != nil {
		return false, err
	}
	cred, err := u.tokens.EnsureFresh(ctx, profile, time.Now().UTC())
	if err != nil {
		return false, nil
	}

	valid, err := adapter.ValidateCredential(ctx, cred)
	if err != nil {
		return false, err
	}

	if valid {
		if err := u.repo.UpdateHealth(ctx, profile.ID, model.ConnectionStatusConnected, nil); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed to update profile health")
		}
	} else {
		reason := "credential rejected by platform"
		if err := u.repo.UpdateHealth(ctx, profile.ID, model.ConnectionStatusExpired, &reason); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed to update profile health")
		}
	}
	return valid, nil
}

func (u *connectionUsecase) Disconnect(ctx context.Context, userID string, platform model.Platform) error {
	profile, err := u.repo.GetActive(ctx, userID, platform)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrNotConnected
	}
	return u.repo.Deactivate(ctx, profile.ID)
}

func (u *connectionUsecase) List(ctx context.Context, userID string) ([]*model.ConnectionProfile, error) {
	return u.repo.ListByUser(ctx, userID)
}
