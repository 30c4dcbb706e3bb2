// Package facebook publishes page posts through the Graph API. Text posts
// go straight to the feed edge; photos are staged unpublished and attached,
// videos use the file_url flow.
package facebook

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/infrastructure/clients/rest"
)

const (
	defaultBaseURL = "https://graph.facebook.com/v19.0"
	messageLimit   = 63206
)

type Adapter struct {
	rest    *rest.Client
	baseURL string
}

func New(timeout time.Duration) *Adapter {
	return &Adapter{rest: rest.New(timeout), baseURL: defaultBaseURL}
}

// NewWithBaseURL is used by tests to point the adapter at a stub server.
func NewWithBaseURL(timeout time.Duration, baseURL string) *Adapter {
	return &Adapter{rest: rest.New(timeout), baseURL: baseURL}
}

func (a *Adapter) Platform() model.Platform { return model.PlatformFacebook }

type idResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

func (a *Adapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	pageID := cred.Extra["page_id"]
	if pageID == "" {
		pageID = cred.ExternalAccountID
	}
	if pageID == "" {
		return "", publisher.AuthError("connection profile has no page id", nil)
	}

	message := publisher.ComposeMessage(req, messageLimit)

	for _, media := range req.Media {
		if media.Type == model.MediaTypeVideo && len(req.Media) > 1 {
			return "", publisher.ContentError("facebook posts attach either one video or photos, not both", nil)
		}
	}

	if len(req.Media) == 0 {
		return a.postFeed(ctx, cred, pageID, message, nil)
	}
	if req.Media[0].Type == model.MediaTypeVideo {
		return a.postVideo(ctx, cred, pageID, message, req.Media[0])
	}
	return a.postPhotos(ctx, cred, pageID, message, req.Media)
}

func (a *Adapter) postFeed(ctx context.Context, cred publisher.Credential, pageID, message string, attachedMedia []string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", cred.AccessSecret)
	for i, mediaID := range attachedMedia {
		form.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":"%s"}`, mediaID))
	}

	var resp idResponse
	endpoint := fmt.Sprintf("%s/%s/feed", a.baseURL, url.PathEscape(pageID))
	if err := a.rest.PostForm(ctx, endpoint, "", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", publisher.TransientError("facebook returned no post id", nil)
	}
	return resp.ID, nil
}

// postPhotos stages each photo unpublished, then creates one feed post
// referencing all of them so multi-image posts land as a single story.
func (a *Adapter) postPhotos(ctx context.Context, cred publisher.Credential, pageID, message string, media []model.MediaRef) (string, error) {
	photoIDs := make([]string, 0, len(media))
	for _, item := range media {
		form := url.Values{}
		form.Set("url", item.URL)
		form.Set("published", "false")
		form.Set("access_token", cred.AccessSecret)
		if item.AltText != "" {
			form.Set("alt_text_custom", item.AltText)
		}

		var resp idResponse
		endpoint := fmt.Sprintf("%s/%s/photos", a.baseURL, url.PathEscape(pageID))
		if err := a.rest.PostForm(ctx, endpoint, "", form, &resp); err != nil {
			return "", err
		}
		photoIDs = append(photoIDs, resp.ID)
	}
	return a.postFeed(ctx, cred, pageID, message, photoIDs)
}

func (a *Adapter) postVideo(ctx context.Context, cred publisher.Credential, pageID, message string, media model.MediaRef) (string, error) {
	form := url.Values{}
	form.Set("file_url", media.URL)
	form.Set("description", message)
	form.Set("access_token", cred.AccessSecret)

	var resp idResponse
	endpoint := fmt.Sprintf("%s/%s/videos", a.baseURL, url.PathEscape(pageID))
	if err := a.rest.PostForm(ctx, endpoint, "", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", publisher.TransientError("facebook returned no video id", nil)
	}
	return resp.ID, nil
}

type insightsParams struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
}

type insightsResponse struct {
	Shares struct {
		Count int64 `json:"count"`
	} `json:"shares"`
	Likes struct {
		Summary struct {
			TotalCount int64 `json:"total_count"`
		} `json:"summary"`
	} `json:"likes"`
	Comments struct {
		Summary struct {
			TotalCount int64 `json:"total_count"`
		} `json:"summary"`
	} `json:"comments"`
	Insights struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
	} `json:"insights"`
}

func (a *Adapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	params := insightsParams{
		Fields:      "shares,likes.summary(true),comments.summary(true),insights.metric(post_impressions)",
		AccessToken: cred.AccessSecret,
	}

	var resp insightsResponse
	endpoint := fmt.Sprintf("%s/%s", a.baseURL, url.PathEscape(externalPostID))
	if err := a.rest.GetJSON(ctx, endpoint, "", params, &resp); err != nil {
		return nil, err
	}

	metrics := &model.PostMetrics{
		Platform:       model.PlatformFacebook,
		ExternalPostID: externalPostID,
		Likes:          resp.Likes.Summary.TotalCount,
		Comments:       resp.Comments.Summary.TotalCount,
		Shares:         resp.Shares.Count,
		FetchedAt:      time.Now().UTC(),
	}
	for _, metric := range resp.Insights.Data {
		if metric.Name == "post_impressions" && len(metric.Values) > 0 {
			metrics.Impressions = metric.Values[0].Value
		}
	}
	return metrics, nil
}

func (a *Adapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	params := struct {
		Fields      string `url:"fields"`
		AccessToken string `url:"access_token"`
	}{Fields: "id", AccessToken: cred.AccessSecret}

	var resp idResponse
	if err := a.rest.GetJSON(ctx, a.baseURL+"/me", "", params, &resp); err != nil {
		if kind, _ := publisher.Classify(err); kind == model.ErrKindAuthentication {
			return false, nil
		}
		return false, err
	}
	return resp.ID != "", nil
}
