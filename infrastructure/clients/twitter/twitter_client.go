// Package twitter posts through the v2 tweet endpoint. Media cannot be
// referenced by URL: each item is downloaded and re-uploaded through the
// v1.1 chunkless upload endpoint, then referenced by id in the tweet.
package twitter

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/infrastructure/clients/rest"
)

const (
	defaultAPIBaseURL    = "https://api.twitter.com"
	defaultUploadBaseURL = "https://upload.twitter.com"
	textLimit            = 280
	maxMediaItems        = 4
)

type Adapter struct {
	rest          *rest.Client
	apiBaseURL    string
	uploadBaseURL string
}

func New(timeout time.Duration) *Adapter {
	return &Adapter{rest: rest.New(timeout), apiBaseURL: defaultAPIBaseURL, uploadBaseURL: defaultUploadBaseURL}
}

func NewWithBaseURLs(timeout time.Duration, apiBaseURL, uploadBaseURL string) *Adapter {
	return &Adapter{rest: rest.New(timeout), apiBaseURL: apiBaseURL, uploadBaseURL: uploadBaseURL}
}

func (a *Adapter) Platform() model.Platform { return model.PlatformTwitter }

type uploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (a *Adapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	if len(req.Media) > maxMediaItems {
		return "", publisher.ContentError(fmt.Sprintf("twitter allows at most %d media items per post", maxMediaItems), nil)
	}

	text := publisher.ComposeMessage(req, textLimit)

	var mediaIDs []string
	for _, media := range req.Media {
		mediaID, err := a.uploadMedia(ctx, cred, media)
		if err != nil {
			return "", err
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	payload := tweetRequest{Text: text}
	if len(mediaIDs) > 0 {
		payload.Media = &tweetMedia{MediaIDs: mediaIDs}
	}

	var resp tweetResponse
	if err := a.rest.PostJSON(ctx, a.apiBaseURL+"/2/tweets", cred.AccessSecret, payload, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", publisher.TransientError("twitter returned no tweet id", nil)
	}
	return resp.Data.ID, nil
}

func (a *Adapter) uploadMedia(ctx context.Context, cred publisher.Credential, media model.MediaRef) (string, error) {
	data, _, err := a.rest.Download(ctx, media.URL)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("media_data", base64.StdEncoding.EncodeToString(data))
	if media.Type == model.MediaTypeVideo {
		form.Set("media_category", "tweet_video")
	} else if media.Type == model.MediaTypeGif {
		form.Set("media_category", "tweet_gif")
	}

	var resp uploadResponse
	if err := a.rest.PostForm(ctx, a.uploadBaseURL+"/1.1/media/upload.json", cred.AccessSecret, form, &resp); err != nil {
		return "", err
	}
	if resp.MediaIDString == "" {
		return "", publisher.TransientError("twitter media upload returned no id", nil)
	}
	return resp.MediaIDString, nil
}

type metricsResponse struct {
	Data struct {
		PublicMetrics struct {
			ImpressionCount int64 `json:"impression_count"`
			LikeCount       int64 `json:"like_count"`
			ReplyCount      int64 `json:"reply_count"`
			RetweetCount    int64 `json:"retweet_count"`
			QuoteCount      int64 `json:"quote_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func (a *Adapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	params := struct {
		Fields string `url:"tweet.fields"`
	}{Fields: "public_metrics"}

	var resp metricsResponse
	endpoint := fmt.Sprintf("%s/2/tweets/%s", a.apiBaseURL, url.PathEscape(externalPostID))
	if err := a.rest.GetJSON(ctx, endpoint, cred.AccessSecret, params, &resp); err != nil {
		return nil, err
	}

	pm := resp.Data.PublicMetrics
	return &model.PostMetrics{
		Platform:       model.PlatformTwitter,
		ExternalPostID: externalPostID,
		Impressions:    pm.ImpressionCount,
		Likes:          pm.LikeCount,
		Comments:       pm.ReplyCount,
		Shares:         pm.RetweetCount + pm.QuoteCount,
		FetchedAt:      time.Now().UTC(),
	}, nil
}

func (a *Adapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := a.rest.GetJSON(ctx, a.apiBaseURL+"/2/users/me", cred.AccessSecret, nil, &resp); err != nil {
		if kind, _ := publisher.Classify(err); kind == model.ErrKindAuthentication {
			return false, nil
		}
		return false, err
	}
	return resp.Data.ID != "", nil
}
