package tiktok

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
)

func TestPublish_VideoInit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/post/publish/video/init/", r.URL.Path)
		var payload publishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "PULL_FROM_URL", payload.SourceInfo.Source)
		assert.Equal(t, "https://cdn/clip.mp4", payload.SourceInfo.VideoURL)
		w.Write([]byte(`{"data":{"publish_id":"pub_777"},"error":{"code":"ok"}}`))
	}))
	defer server.Close()

	adapter := NewWithBaseURL(5*time.Second, server.URL)
	postID, err := adapter.Publish(context.Background(), publisher.Credential{AccessSecret: "tt-token"}, &model.PublishRequest{
		Text:  "new clip",
		Media: []model.MediaRef{{Type: model.MediaTypeVideo, URL: "https://cdn/clip.mp4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pub_777", postID)
}

func TestPublish_NonVideoFailsFast(t *testing.T) {
	// No server: the pre-flight check must reject before any network call.
	adapter := New(5 * time.Second)

	_, err := adapter.Publish(context.Background(), publisher.Credential{}, &model.PublishRequest{
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

func TestPublish_PlatformErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{},"error":{"code":"spam_risk_too_many_posts","message":"daily cap reached"}}`))
	}))
	defer server.Close()

	adapter := NewWithBaseURL(5*time.Second, server.URL)
	_, err := adapter.Publish(context.Background(), publisher.Credential{}, &model.PublishRequest{
		Media: []model.MediaRef{{Type: model.MediaTypeVideo, URL: "https://cdn/v.mp4"}},
	})
	require.Error(t, err)
	kind, _ := publisher.Classify(err)
	assert.Equal(t, model.ErrKindContentRejected, kind)
}

func TestFetchAnalytics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/video/query/", r.URL.Path)
		w.Write([]byte(`{"data":{"videos":[{"view_count":5000,"like_count":320,"comment_count":18,"share_count":40}]}}`))
	}))
	defer server.Close()

	adapter := NewWithBaseURL(5*time.Second, server.URL)
	metrics, err := adapter.FetchAnalytics(context.Background(), publisher.Credential{AccessSecret: "tt"}, "pub_777")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), metrics.Impressions)
	assert.Equal(t, int64(320), metrics.Likes)
	assert.Equal(t, int64(18), metrics.Comments)
	assert.Equal(t, int64(40), metrics.Shares)
}
