// Package instagram publishes through the Graph API container flow:
// every media item becomes a container object, and a separate
// media_publish call makes the container live. Carousels create child
// containers first, then a parent container referencing them.
package instagram

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/infrastructure/clients/rest"
)

const (
	defaultBaseURL   = "https://graph.facebook.com/v19.0"
	captionLimit     = 2200
	maxCarouselItems = 10
)

type Adapter struct {
	rest    *rest.Client
	baseURL string
}

func New(timeout time.Duration) *Adapter {
	return &Adapter{rest: rest.New(timeout), baseURL: defaultBaseURL}
}

func NewWithBaseURL(timeout time.Duration, baseURL string) *Adapter {
	return &Adapter{rest: rest.New(timeout), baseURL: baseURL}
}

func (a *Adapter) Platform() model.Platform { return model.PlatformInstagram }

type idResponse struct {
	ID string `json:"id"`
}

func (a *Adapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	if err := publisher.RequireMedia(model.PlatformInstagram, req); err != nil {
		return "", err
	}
	if len(req.Media) > maxCarouselItems {
		return "", publisher.ContentError(fmt.Sprintf("instagram carousels allow at most %d items", maxCarouselItems), nil)
	}
	for _, media := range req.Media {
		if media.Type == model.MediaTypeGif {
			return "", publisher.ContentError("instagram does not accept gif media", nil)
		}
	}

	igUserID := cred.Extra["ig_user_id"]
	if igUserID == "" {
		igUserID = cred.ExternalAccountID
	}
	if igUserID == "" {
		return "", publisher.AuthError("connection profile has no instagram user id", nil)
	}

	caption := publisher.ComposeMessage(req, captionLimit)

	var containerID string
	var err error
	if len(req.Media) == 1 {
		containerID, err = a.createContainer(ctx, cred, igUserID, req.Media[0], caption, false)
	} else {
		containerID, err = a.createCarousel(ctx, cred, igUserID, req.Media, caption)
	}
	if err != nil {
		return "", err
	}

	return a.publishContainer(ctx, cred, igUserID, containerID)
}

func (a *Adapter) createContainer(ctx context.Context, cred publisher.Credential, igUserID string, media model.MediaRef, caption string, carouselItem bool) (string, error) {
	form := url.Values{}
	form.Set("access_token", cred.AccessSecret)
	switch media.Type {
	case model.MediaTypeVideo:
		form.Set("media_type", "REELS")
		form.Set("video_url", media.URL)
	default:
		form.Set("image_url", media.URL)
	}
	if carouselItem {
		form.Set("is_carousel_item", "true")
	} else if caption != "" {
		form.Set("caption", caption)
	}

	var resp idResponse
	endpoint := fmt.Sprintf("%s/%s/media", a.baseURL, url.PathEscape(igUserID))
	if err := a.rest.PostForm(ctx, endpoint, "", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", publisher.TransientError("instagram returned no container id", nil)
	}
	return resp.ID, nil
}

func (a *Adapter) createCarousel(ctx context.Context, cred publisher.Credential, igUserID string, media []model.MediaRef, caption string) (string, error) {
	childIDs := make([]string, 0, len(media))
	for _, item := range media {
		childID, err := a.createContainer(ctx, cred, igUserID, item, "", true)
		if err != nil {
			return "", err
		}
		childIDs = append(childIDs, childID)
	}

	form := url.Values{}
	form.Set("access_token", cred.AccessSecret)
	form.Set("media_type", "CAROUSEL")
	form.Set("children", strings.Join(childIDs, ","))
	if caption != "" {
		form.Set("caption", caption)
	}

	var resp idResponse
	endpoint := fmt.Sprintf("%s/%s/media", a.baseURL, url.PathEscape(igUserID))
	if err := a.rest.PostForm(ctx, endpoint, "", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", publisher.TransientError("instagram returned no carousel container id", nil)
	}
	return resp.ID, nil
}

func (a *Adapter) publishContainer(ctx context.Context, cred publisher.Credential, igUserID, containerID string) (string, error) {
	form := url.Values{}
	form.Set("access_token", cred.AccessSecret)
	form.Set("creation_id", containerID)

	var resp idResponse
	endpoint := fmt.Sprintf("%s/%s/media_publish", a.baseURL, url.PathEscape(igUserID))
	if err := a.rest.PostForm(ctx, endpoint, "", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", publisher.TransientError("instagram returned no media id", nil)
	}
	return resp.ID, nil
}

type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

func (a *Adapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	params := struct {
		Metric      string `url:"metric"`
		AccessToken string `url:"access_token"`
	}{Metric: "impressions,likes,comments,shares", AccessToken: cred.AccessSecret}

	var resp insightsResponse
	endpoint := fmt.Sprintf("%s/%s/insights", a.baseURL, url.PathEscape(externalPostID))
	if err := a.rest.GetJSON(ctx, endpoint, "", params, &resp); err != nil {
		return nil, err
	}

	metrics := &model.PostMetrics{
		Platform:       model.PlatformInstagram,
		ExternalPostID: externalPostID,
		FetchedAt:      time.Now().UTC(),
	}
	for _, metric := range resp.Data {
		if len(metric.Values) == 0 {
			continue
		}
		value := metric.Values[0].Value
		switch metric.Name {
		case "impressions":
			metrics.Impressions = value
		case "likes":
			metrics.Likes = value
		case "comments":
			metrics.Comments = value
		case "shares":
			metrics.Shares = value
		}
	}
	return metrics, nil
}

func (a *Adapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	igUserID := cred.Extra["ig_user_id"]
	if igUserID == "" {
		igUserID = cred.ExternalAccountID
	}
	params := struct {
		Fields      string `url:"fields"`
		AccessToken string `url:"access_token"`
	}{Fields: "id,username", AccessToken: cred.AccessSecret}

	var resp idResponse
	endpoint := fmt.Sprintf("%s/%s", a.baseURL, url.PathEscape(igUserID))
	if err := a.rest.GetJSON(ctx, endpoint, "", params, &resp); err != nil {
		if kind, _ := publisher.Classify(err); kind == model.ErrKindAuthentication {
			return false, nil
		}
		return false, err
	}
	return resp.ID != "", nil
}
