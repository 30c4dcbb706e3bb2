// Package rest is the thin HTTP layer shared by the platform adapters.
// It owns timeouts, bearer auth, and mapping non-2xx responses into
// classified publisher errors.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"my-publisher/domain/publisher"
)

const maxErrorBodyBytes = 2048

type Client struct {
	http *http.Client
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// GetJSON issues a GET with optional go-querystring params and decodes a
// JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL, bearer string, params interface{}, out interface{}) error {
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return publisher.TransientError("encoding query params", err)
		}
		if encoded := values.Encode(); encoded != "" {
			separator := "?"
			if strings.Contains(rawURL, "?") {
				separator = "&"
			}
			rawURL += separator + encoded
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return publisher.TransientError("building request", err)
	}
	return c.do(req, bearer, out)
}

// PostJSON issues a POST with a JSON body and decodes a JSON response.
func (c *Client) PostJSON(ctx context.Context, rawURL, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return publisher.TransientError("encoding request body", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, body)
	if err != nil {
		return publisher.TransientError("building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, bearer, out)
}

// PostForm issues an application/x-www-form-urlencoded POST.
func (c *Client) PostForm(ctx context.Context, rawURL, bearer string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return publisher.TransientError("building request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, bearer, out)
}

// Put uploads raw bytes, used by asset-upload flows.
func (c *Client) Put(ctx context.Context, rawURL, bearer, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, bytes.NewReader(body))
	if err != nil {
		return publisher.TransientError("building request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.do(req, bearer, nil)
}

// Download fetches media bytes from a source URL so they can be
// re-uploaded to a platform that does not accept pull-from-URL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", publisher.TransientError("building media download request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", publisher.TransientError("downloading media", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", publisher.TransientError(fmt.Sprintf("media source returned status %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", publisher.TransientError("reading media bytes", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(req *http.Request, bearer string, out interface{}) error {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return publisher.TransientError("platform call failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return publisher.TransientError("reading platform response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return publisher.ClassifyHTTPStatus(resp.StatusCode, snippet)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return publisher.TransientError("decoding platform response", err)
	}
	return nil
}
