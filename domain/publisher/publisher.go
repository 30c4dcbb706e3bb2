package publisher

import (
	"context"
	"fmt"

	"my-publisher/domain/model"
)

// Credential carries decrypted secrets plus the platform-specific wiring
// an adapter needs to address the right account. It must not outlive the
// request that produced it.
type Credential struct {
	AccessSecret      string
	RefreshSecret     string
	ExternalAccountID string
	// Extra holds per-platform routing resolved at connect time,
	// e.g. "page_id" for facebook, "author_urn" for linkedin,
	// "board_id" for pinterest.
	Extra map[string]string
}

// Adapter is the uniform contract every platform integration implements.
// Publish must classify failures via *publisher.Error so the coordinator
// can branch on the error kind.
type Adapter interface {
	Platform() model.Platform
	Publish(ctx context.Context, cred Credential, req *model.PublishRequest) (externalPostID string, err error)
	// FetchAnalytics returns normalized metrics for a published post.
	// Adapters without an analytics surface return ErrAnalyticsUnsupported.
	FetchAnalytics(ctx context.Context, cred Credential, externalPostID string) (*model.PostMetrics, error)
	ValidateCredential(ctx context.Context, cred Credential) (bool, error)
}

// Registry holds the adapter for each configured platform. Built once at
// startup and passed into the coordinator, so tests can substitute
// doubles per platform without global state.
type Registry struct {
	adapters map[model.Platform]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[model.Platform]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Platform()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(p model.Platform) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, &Error{Kind: model.ErrKindUnsupported, Message: fmt.Sprintf("no adapter registered for platform %s", p)}
	}
	return a, nil
}

func (r *Registry) Platforms() []model.Platform {
	out := make([]model.Platform, 0, len(r.adapters))
	for _, p := range model.AllPlatforms {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
