package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
)

func stubAdapter(t *testing.T, apiServer *httptest.Server) *Adapter {
	t.Helper()
	adapter := New("client-id", "client-secret", "http://localhost/callback", 5*time.Second)
	adapter.newService = func(ctx context.Context, cred publisher.Credential) (*youtubeapi.Service, error) {
		return youtubeapi.NewService(ctx,
			option.WithEndpoint(apiServer.URL),
			option.WithAPIKey("test"),
			option.WithHTTPClient(apiServer.Client()))
	}
	return adapter
}

func TestPublish_NonVideoFailsFast(t *testing.T) {
	adapter := New("client-id", "client-secret", "http://localhost/callback", 5*time.Second)

	_, err := adapter.Publish(context.Background(), publisher.Credential{}, &model.PublishRequest{
		Text:  "not a video",
		Media: []model.MediaRef{{Type: model.MediaTypeImage, URL: "https://cdn/a.png"}},
	})
	require.Error(t, err)
	kind, _ := publisher.Classify(err)
	assert.Equal(t, model.ErrKindUnsupported, kind)

	_, err = adapter.Publish(context.Background(), publisher.Credential{}, &model.PublishRequest{Text: "no media"})
	require.Error(t, err)
	kind, _ = publisher.Classify(err)
	assert.Equal(t, model.ErrKindUnsupported, kind)
}

func TestFetchAnalytics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"statistics":{"viewCount":"12000","likeCount":"800","commentCount":"45"}}]}`))
	}))
	defer server.Close()

	adapter := stubAdapter(t, server)
	metrics, err := adapter.FetchAnalytics(context.Background(), publisher.Credential{AccessSecret: "yt"}, "vid_1")
	require.NoError(t, err)
	assert.Equal(t, int64(12000), metrics.Impressions)
	assert.Equal(t, int64(800), metrics.Likes)
	assert.Equal(t, int64(45), metrics.Comments)
}

func TestValidateCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"channel_1"}]}`))
	}))
	defer server.Close()

	adapter := stubAdapter(t, server)
	ok, err := adapter.ValidateCredential(context.Background(), publisher.Credential{AccessSecret: "yt"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClassify_GoogleAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
	}))
	defer server.Close()

	adapter := stubAdapter(t, server)
	_, err := adapter.FetchAnalytics(context.Background(), publisher.Credential{AccessSecret: "bad"}, "vid_1")
	require.Error(t, err)
	kind, _ := publisher.Classify(err)
	assert.Equal(t, model.ErrKindAuthentication, kind)
}
