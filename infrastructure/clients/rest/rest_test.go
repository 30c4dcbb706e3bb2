package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
)

func TestGetJSON_QueryParamsAndBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "public_metrics", r.URL.Query().Get("tweet.fields"))
		w.Write([]byte(`{"id":"t_1"}`))
	}))
	defer server.Close()

	var out struct {
		ID string `json:"id"`
	}
	params := struct {
		Fields string `url:"tweet.fields"`
	}{Fields: "public_metrics"}

	client := New(5 * time.Second)
	require.NoError(t, client.GetJSON(context.Background(), server.URL, "tok-1", params, &out))
	assert.Equal(t, "t_1", out.ID)
}

func TestPostJSON_ClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		kind   model.ErrorKind
	}{
		{http.StatusUnauthorized, model.ErrKindAuthentication},
		{http.StatusForbidden, model.ErrKindAuthentication},
		{http.StatusTooManyRequests, model.ErrKindRateLimited},
		{http.StatusUnprocessableEntity, model.ErrKindContentRejected},
		{http.StatusBadGateway, model.ErrKindTransient},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"error":"nope"}`))
		}))

		client := New(5 * time.Second)
		err := client.PostJSON(context.Background(), server.URL, "tok", map[string]string{"a": "b"}, nil)
		require.Error(t, err)
		kind, _ := publisher.Classify(err)
		assert.Equal(t, tc.kind, kind, "status %d", tc.status)
		server.Close()
	}
}

func TestPostForm_SendsEncodedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello", r.PostForm.Get("message"))
		w.Write([]byte(`{"id":"p_9"}`))
	}))
	defer server.Close()

	var out struct {
		ID string `json:"id"`
	}
	form := url.Values{}
	form.Set("message", "hello")

	client := New(5 * time.Second)
	require.NoError(t, client.PostForm(context.Background(), server.URL, "", form, &out))
	assert.Equal(t, "p_9", out.ID)
}

func TestDo_NetworkErrorIsTransient(t *testing.T) {
	client := New(time.Second)
	err := client.PostJSON(context.Background(), "http://127.0.0.1:1/unreachable", "", nil, nil)
	require.Error(t, err)
	kind, _ := publisher.Classify(err)
	assert.Equal(t, model.ErrKindTransient, kind)
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	client := New(5 * time.Second)
	data, contentType, err := client.Download(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)
}
