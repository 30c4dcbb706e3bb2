// Package tiktok publishes through the Content Posting API using the
// pull-from-URL flow. Only single-video posts exist on this platform, so
// anything else fails before a network call.
package tiktok

import (
	"context"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/infrastructure/clients/rest"
)

const (
	defaultBaseURL = "https://open.tiktokapis.com"
	titleLimit     = 2200
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

func (a *Adapter) Platform() model.Platform { return model.PlatformTikTok }

type publishRequest struct {
	PostInfo struct {
		Title        string `json:"title"`
		PrivacyLevel string `json:"privacy_level"`
	} `json:"post_info"`
	SourceInfo struct {
		Source   string `json:"source"`
		VideoURL string `json:"video_url"`
	} `json:"source_info"`
}

type publishResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Adapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	if err := publisher.RequireSingleVideo(model.PlatformTikTok, req); err != nil {
		return "", err
	}

	var payload publishRequest
	payload.PostInfo.Title = publisher.ComposeMessage(req, titleLimit)
	payload.PostInfo.PrivacyLevel = "PUBLIC_TO_EVERYONE"
	payload.SourceInfo.Source = "PULL_FROM_URL"
	payload.SourceInfo.VideoURL = req.Media[0].URL

	var resp publishResponse
	if err := a.rest.PostJSON(ctx, a.baseURL+"/v2/post/publish/video/init/", cred.AccessSecret, payload, &resp); err != nil {
		return "", err
	}
	if resp.Error.Code != "" && resp.Error.Code != "ok" {
		return "", publisher.ContentError("tiktok rejected the post: "+resp.Error.Message, nil)
	}
	if resp.Data.PublishID == "" {
		return "", publisher.TransientError("tiktok returned no publish id", nil)
	}
	return resp.Data.PublishID, nil
}

type videoQueryRequest struct {
	Filters struct {
		VideoIDs []string `json:"video_ids"`
	} `json:"filters"`
}

type videoQueryResponse struct {
	Data struct {
		Videos []struct {
			ViewCount    int64 `json:"view_count"`
			LikeCount    int64 `json:"like_count"`
			CommentCount int64 `json:"comment_count"`
			ShareCount   int64 `json:"share_count"`
		} `json:"videos"`
	} `json:"data"`
}

func (a *Adapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	var payload videoQueryRequest
	payload.Filters.VideoIDs = []string{externalPostID}

	var resp videoQueryResponse
	endpoint := a.baseURL + "/v2/video/query/?fields=view_count,like_count,comment_count,share_count"
	if err := a.rest.PostJSON(ctx, endpoint, cred.AccessSecret, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.Videos) == 0 {
		return nil, publisher.TransientError("tiktok returned no video stats", nil)
	}

	video := resp.Data.Videos[0]
	return &model.PostMetrics{
		Platform:       model.PlatformTikTok,
		ExternalPostID: externalPostID,
		Impressions:    video.ViewCount,
		Likes:          video.LikeCount,
		Comments:       video.CommentCount,
		Shares:         video.ShareCount,
		FetchedAt:      time.Now().UTC(),
	}, nil
}

func (a *Adapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	var resp struct {
		Data struct {
			User struct {
				OpenID string `json:"open_id"`
			} `json:"user"`
		} `json:"data"`
	}
	endpoint := a.baseURL + "/v2/user/info/?fields=open_id"
	if err := a.rest.GetJSON(ctx, endpoint, cred.AccessSecret, nil, &resp); err != nil {
		if kind, _ := publisher.Classify(err); kind == model.ErrKindAuthentication {
			return false, nil
		}
		return false, err
	}
	return resp.Data.User.OpenID != "", nil
}
