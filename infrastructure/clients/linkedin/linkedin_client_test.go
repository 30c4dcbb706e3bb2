package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
)

func TestResolveAuthorURN(t *testing.T) {
	cases := []struct {
		name     string
		cred     publisher.Credential
		expected string
		wantErr  bool
	}{
		{
			name:     "explicit person urn",
			cred:     publisher.Credential{Extra: map[string]string{"author_urn": "urn:li:person:abc"}},
			expected: "urn:li:person:abc",
		},
		{
			name:     "explicit organization urn",
			cred:     publisher.Credential{Extra: map[string]string{"author_urn": "urn:li:organization:123"}},
			expected: "urn:li:organization:123",
		},
		{
			name:     "org id becomes organization urn",
			cred:     publisher.Credential{Extra: map[string]string{"org_id": "55"}},
			expected: "urn:li:organization:55",
		},
		{
			name:     "account id becomes person urn",
			cred:     publisher.Credential{ExternalAccountID: "abc", Extra: map[string]string{}},
			expected: "urn:li:person:abc",
		},
		{
			name:    "unknown urn scheme rejected",
			cred:    publisher.Credential{Extra: map[string]string{"author_urn": "urn:li:group:9"}},
			wantErr: true,
		},
		{
			name:    "no identity at all",
			cred:    publisher.Credential{Extra: map[string]string{}},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			urn, err := resolveAuthorURN(tc.cred)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, urn)
		})
	}
}

func TestPublish_TextPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/ugcPosts", r.URL.Path)
		var post ugcPost
		require.NoError(t, json.NewDecoder(r.Body).Decode(&post))
		assert.Equal(t, "urn:li:person:abc", post.Author)
		assert.Equal(t, "PUBLISHED", post.LifecycleState)
		content := post.SpecificContent["com.linkedin.ugc.ShareContent"]
		assert.Equal(t, "NONE", content.ShareMediaCategory)
		assert.Contains(t, content.ShareCommentary.Text, "announcement")
		w.Write([]byte(`{"id":"urn:li:ugcPost:111"}`))
	}))
	defer server.Close()

	adapter := NewWithBaseURL(5*time.Second, server.URL)
	postID, err := adapter.Publish(context.Background(), publisher.Credential{
		AccessSecret: "li-token",
		Extra:        map[string]string{"author_urn": "urn:li:person:abc"},
	}, &model.PublishRequest{Text: "announcement"})
	require.NoError(t, err)
	assert.Equal(t, "urn:li:ugcPost:111", postID)
}

func TestPublish_ImageRunsAssetFlow(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("img-bytes"))
	}))
	defer cdn.Close()

	var registered, uploaded, posted bool
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/assets":
			registered = true
			assert.Equal(t, "registerUpload", r.URL.Query().Get("action"))
			w.Write([]byte(`{"value":{"asset":"urn:li:digitalmediaAsset:555","uploadMechanism":{"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest":{"uploadUrl":"` + server.URL + `/upload-target"}}}}`))
		case "/upload-target":
			uploaded = true
			assert.Equal(t, http.MethodPut, r.Method)
			w.WriteHeader(http.StatusCreated)
		case "/v2/ugcPosts":
			posted = true
			var post ugcPost
			require.NoError(t, json.NewDecoder(r.Body).Decode(&post))
			content := post.SpecificContent["com.linkedin.ugc.ShareContent"]
			assert.Equal(t, "IMAGE", content.ShareMediaCategory)
			require.Len(t, content.Media, 1)
			assert.Equal(t, "urn:li:digitalmediaAsset:555", content.Media[0].Media)
			w.Write([]byte(`{"id":"urn:li:ugcPost:222"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter := NewWithBaseURL(5*time.Second, server.URL)
	postID, err := adapter.Publish(context.Background(), publisher.Credential{
		AccessSecret: "li-token",
		Extra:        map[string]string{"org_id": "42"},
	}, &model.PublishRequest{
		Text:  "with image",
		Media: []model.MediaRef{{Type: model.MediaTypeImage, URL: cdn.URL + "/a.png", AltText: "a chart"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "urn:li:ugcPost:222", postID)
	assert.True(t, registered)
	assert.True(t, uploaded)
	assert.True(t, posted)
}

func TestPublish_VideoRejected(t *testing.T) {
	adapter := New(5 * time.Second)
	_, err := adapter.Publish(context.Background(), publisher.Credential{
		Extra: map[string]string{"author_urn": "urn:li:person:abc"},
	}, &model.PublishRequest{
		Media: []model.MediaRef{{Type: model.MediaTypeVideo, URL: "https://cdn/v.mp4"}},
	})
	require.Error(t, err)
	kind, _ := publisher.Classify(err)
	assert.Equal(t, model.ErrKindContentRejected, kind)
}

func TestFetchAnalytics_Unsupported(t *testing.T) {
	adapter := New(5 * time.Second)
	_, err := adapter.FetchAnalytics(context.Background(), publisher.Credential{}, "urn:li:ugcPost:1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, publisher.ErrAnalyticsUnsupported))
}
