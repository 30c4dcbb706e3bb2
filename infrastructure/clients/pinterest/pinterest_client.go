// Package pinterest creates pins through the v5 API. A pin always needs
// an image and a destination board, so both are validated before the call.
package pinterest

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
	defaultBaseURL   = "https://api.pinterest.com"
	titleLimit       = 100
	descriptionLimit = 800
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

func (a *Adapter) Platform() model.Platform { return model.PlatformPinterest }

type createPinRequest struct {
	BoardID     string      `json:"board_id"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	AltText     string      `json:"alt_text,omitempty"`
	MediaSource mediaSource `json:"media_source"`
}

type mediaSource struct {
	SourceType string   `json:"source_type"`
	URL        string   `json:"url,omitempty"`
	Items      []pinItem `json:"items,omitempty"`
}

type pinItem struct {
	URL string `json:"url"`
}

type pinResponse struct {
	ID string `json:"id"`
}

func (a *Adapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	if err := publisher.RequireMedia(model.PlatformPinterest, req); err != nil {
		return "", err
	}
	for _, media := range req.Media {
		if media.Type != model.MediaTypeImage {
			return "", publisher.ContentError(fmt.Sprintf("pinterest pins support image media only, got %s", media.Type), nil)
		}
	}
	boardID := cred.Extra["board_id"]
	if boardID == "" {
		return "", publisher.ContentError("connection profile has no pinterest board id", nil)
	}

	payload := createPinRequest{
		BoardID:     boardID,
		Title:       publisher.Truncate(strings.SplitN(req.Text, "\n", 2)[0], titleLimit),
		Description: publisher.ComposeMessage(req, descriptionLimit),
		AltText:     req.Media[0].AltText,
	}
	if len(req.Media) == 1 {
		payload.MediaSource = mediaSource{SourceType: "image_url", URL: req.Media[0].URL}
	} else {
		items := make([]pinItem, 0, len(req.Media))
		for _, media := range req.Media {
			items = append(items, pinItem{URL: media.URL})
		}
		payload.MediaSource = mediaSource{SourceType: "multiple_image_urls", Items: items}
	}

	var resp pinResponse
	if err := a.rest.PostJSON(ctx, a.baseURL+"/v5/pins", cred.AccessSecret, payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", publisher.TransientError("pinterest returned no pin id", nil)
	}
	return resp.ID, nil
}

type analyticsParams struct {
	StartDate   string `url:"start_date"`
	EndDate     string `url:"end_date"`
	MetricTypes string `url:"metric_types"`
}

type analyticsResponse struct {
	All struct {
		Summary map[string]int64 `json:"summary_metrics"`
	} `json:"all"`
}

func (a *Adapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	now := time.Now().UTC()
	params := analyticsParams{
		StartDate:   now.AddDate(0, 0, -30).Format("2006-01-02"),
		EndDate:     now.Format("2006-01-02"),
		MetricTypes: "IMPRESSION,PIN_CLICK,SAVE",
	}

	var resp analyticsResponse
	endpoint := fmt.Sprintf("%s/v5/pins/%s/analytics", a.baseURL, url.PathEscape(externalPostID))
	if err := a.rest.GetJSON(ctx, endpoint, cred.AccessSecret, params, &resp); err != nil {
		return nil, err
	}

	return &model.PostMetrics{
		Platform:       model.PlatformPinterest,
		ExternalPostID: externalPostID,
		Impressions:    resp.All.Summary["IMPRESSION"],
		Likes:          resp.All.Summary["PIN_CLICK"],
		Shares:         resp.All.Summary["SAVE"],
		FetchedAt:      now,
	}, nil
}

func (a *Adapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	var resp struct {
		Username string `json:"username"`
	}
	if err := a.rest.GetJSON(ctx, a.baseURL+"/v5/user_account", cred.AccessSecret, nil, &resp); err != nil {
		if kind, _ := publisher.Classify(err); kind == model.ErrKindAuthentication {
			return false, nil
		}
		return false, err
	}
	return resp.Username != "", nil
}
