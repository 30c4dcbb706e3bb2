package usecase

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/logger"
	"my-publisher/infrastructure/vault"
)

// refreshSkew is how long before the recorded expiry a token is treated
// as stale. Refreshing early avoids racing the platform clock mid-publish.
const refreshSkew = 30 * time.Minute

// TokenLifecycleManager decrypts stored credentials for a publish attempt
// and refreshes access tokens that are expired or about to expire. A
// profile whose token cannot be refreshed transitions to expired and the
// caller gets an authentication error.
type TokenLifecycleManager struct {
	repo  repository.IConnectionProfile
	vault *vault.Vault
	oauth map[model.Platform]*oauth2.Config

	// refresh is swappable for tests.
	refresh func(ctx context.Context, conf *oauth2.Config, refreshToken string) (*oauth2.Token, error)
}

func NewTokenLifecycleManager(repo repository.IConnectionProfile, v *vault.Vault, oauth map[model.Platform]*oauth2.Config) *TokenLifecycleManager {
	m := &TokenLifecycleManager{repo: repo, vault: v, oauth: oauth}
	m.refresh = func(ctx context.Context, conf *oauth2.Config, refreshToken string) (*oauth2.Token, error) {
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	}
	return m
}

// NeedsRefresh reports whether the profile's token is within the refresh
// skew of its recorded expiry. Profiles without a recorded expiry never
// need a proactive refresh.
func (m *TokenLifecycleManager) NeedsRefresh(profile *model.ConnectionProfile, now time.Time) bool {
	if profile.TokenExpiresAt == nil {
		return false
	}
	return !now.Before(profile.TokenExpiresAt.Add(-refreshSkew))
}

// EnsureFresh returns a decrypted credential ready for an adapter call,
// refreshing it first when needed. Refresh failures mark the profile
// expired so the caller surfaces "needs reconnect" instead of retrying.
func (m *TokenLifecycleManager) EnsureFresh(ctx context.Context, profile *model.ConnectionProfile, now time.Time) (publisher.Credential, error) {
	cred, err := m.decrypt(profile)
	if err != nil {
		return publisher.Credential{}, err
	}

	if !m.NeedsRefresh(profile, now) {
		return cred, nil
	}

	if cred.RefreshSecret == "" {
		m.markExpired(ctx, profile, "token expired and no refresh token stored")
		return publisher.Credential{}, publisher.AuthError("token expired and no refresh token stored", nil)
	}

	conf, ok := m.oauth[profile.Platform]
	if !ok {
		m.markExpired(ctx, profile, "no oauth client configured for platform")
		return publisher.Credential{}, publisher.AuthError("no oauth client configured for "+string(profile.Platform), nil)
	}

	token, err := m.refresh(ctx, conf, cred.RefreshSecret)
	if err != nil {
		m.markExpired(ctx, profile, "token refresh rejected by platform")
		return publisher.Credential{}, publisher.AuthError("token refresh rejected by platform", err)
	}

	if err := m.storeRefreshed(ctx, profile, cred, token); err != nil {
		return publisher.Credential{}, err
	}

	cred.AccessSecret = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshSecret = token.RefreshToken
	}
	return cred, nil
}

func (m *TokenLifecycleManager) decrypt(profile *model.ConnectionProfile) (publisher.Credential, error) {
	access, err := m.vault.Decrypt(profile.AccessSecretEnc)
	if err != nil {
		return publisher.Credential{}, publisher.AuthError("stored credential cannot be decrypted", err)
	}
	cred := publisher.Credential{
		AccessSecret:      access,
		ExternalAccountID: profile.ExternalAccountID,
		Extra:             profile.Extra,
	}
	if profile.RefreshSecretEnc != nil {
		refresh, err := m.vault.Decrypt(*profile.RefreshSecretEnc)
		if err != nil {
			return publisher.Credential{}, publisher.AuthError("stored refresh token cannot be decrypted", err)
		}
		cred.RefreshSecret = refresh
	}
	return cred, nil
}

func (m *TokenLifecycleManager) storeRefreshed(ctx context.Context, profile *model.ConnectionProfile, old publisher.Credential, token *oauth2.Token) error {
	accessEnc, err := m.vault.Encrypt(token.AccessToken)
	if err != nil {
		return err
	}
	var refreshEnc *string
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = old.RefreshSecret
	}
	if refreshToken != "" {
		enc, err := m.vault.Encrypt(refreshToken)
		if err != nil {
			return err
		}
		refreshEnc = &enc
	}
	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		expiresAt = &expiry
	}

	if err := m.repo.UpdateCredential(ctx, profile.ID, accessEnc, refreshEnc, expiresAt); err != nil {
		return err
	}
	if err := m.repo.UpdateHealth(ctx, profile.ID, model.ConnectionStatusConnected, nil); err != nil {
		return err
	}
	profile.TokenExpiresAt = expiresAt
	profile.Status = model.ConnectionStatusConnected
	logger.GetLogger().
		WithField("profile_id", profile.ID).
		WithField("platform", profile.Platform).
		Info("access token refreshed")
	return nil
}

// MarkExpired transitions the profile to expired after an adapter call
// came back with an authentication failure.
func (m *TokenLifecycleManager) MarkExpired(ctx context.Context, profile *model.ConnectionProfile, reason string) {
	m.markExpired(ctx, profile, reason)
}

func (m *TokenLifecycleManager) markExpired(ctx context.Context, profile *model.ConnectionProfile, reason string) {
	if err := m.repo.UpdateHealth(ctx, profile.ID, model.ConnectionStatusExpired, &reason); err != nil {
		logger.GetLogger().
			WithField("profile_id", profile.ID).
			WithField("error", err).
			Error("failed to mark profile expired")
		return
	}
	profile.Status = model.ConnectionStatusExpired
	profile.LastError = &reason
}
