// Package youtube publishes through the Data API v3. Uploads cannot pull
// from a URL, so the video bytes are fetched first and streamed into the
// insert call.
package youtube

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/infrastructure/clients/rest"
)

const (
	titleLimit       = 100
	descriptionLimit = 5000
)

type Adapter struct {
	oauthConfig *oauth2.Config
	rest        *rest.Client
	// newService is swappable for tests.
	newService func(ctx context.Context, cred publisher.Credential) (*youtube.Service, error)
}

func New(clientID, clientSecret, redirectURL string, timeout time.Duration) *Adapter {
	a := &Adapter{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				youtube.YoutubeScope,
				youtube.YoutubeUploadScope,
				youtube.YoutubeForceSslScope,
			},
			Endpoint: google.Endpoint,
		},
		rest: rest.New(timeout),
	}
	a.newService = a.buildService
	return a
}

func (a *Adapter) Platform() model.Platform { return model.PlatformYouTube }

func (a *Adapter) buildService(ctx context.Context, cred publisher.Credential) (*youtube.Service, error) {
	token := &oauth2.Token{
		AccessToken:  cred.AccessSecret,
		RefreshToken: cred.RefreshSecret,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(30 * time.Minute),
	}
	httpClient := a.oauthConfig.Client(ctx, token)
	return youtube.NewService(ctx, option.WithHTTPClient(httpClient))
}

func (a *Adapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	if err := publisher.RequireSingleVideo(model.PlatformYouTube, req); err != nil {
		return "", err
	}

	service, err := a.newService(ctx, cred)
	if err != nil {
		return "", publisher.TransientError("creating youtube service", err)
	}

	data, _, err := a.rest.Download(ctx, req.Media[0].URL)
	if err != nil {
		return "", err
	}

	title := strings.SplitN(req.Text, "\n", 2)[0]
	if title == "" {
		title = req.ContentID
	}

	tags := make([]string, 0, len(req.Hashtags))
	for _, tag := range req.Hashtags {
		tags = append(tags, strings.TrimPrefix(tag, "#"))
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       publisher.Truncate(title, titleLimit),
			Description: publisher.ComposeMessage(req, descriptionLimit),
			Tags:        tags,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video).Media(bytes.NewReader(data))
	inserted, err := call.Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	return inserted.Id, nil
}

func (a *Adapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	service, err := a.newService(ctx, cred)
	if err != nil {
		return nil, publisher.TransientError("creating youtube service", err)
	}

	resp, err := service.Videos.List([]string{"statistics"}).Id(externalPostID).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Items) == 0 {
		return nil, publisher.TransientError("youtube returned no statistics for video "+externalPostID, nil)
	}

	stats := resp.Items[0].Statistics
	return &model.PostMetrics{
		Platform:       model.PlatformYouTube,
		ExternalPostID: externalPostID,
		Impressions:    int64(stats.ViewCount),
		Likes:          int64(stats.LikeCount),
		Comments:       int64(stats.CommentCount),
		FetchedAt:      time.Now().UTC(),
	}, nil
}

func (a *Adapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	service, err := a.newService(ctx, cred)
	if err != nil {
		return false, publisher.TransientError("creating youtube service", err)
	}

	resp, err := service.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
	if err != nil {
		classified := classify(err)
		if kind, _ := publisher.Classify(classified); kind == model.ErrKindAuthentication {
			return false, nil
		}
		return false, classified
	}
	return len(resp.Items) > 0, nil
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return publisher.ClassifyHTTPStatus(gerr.Code, gerr.Message)
	}
	return publisher.TransientError("youtube call failed", err)
}
