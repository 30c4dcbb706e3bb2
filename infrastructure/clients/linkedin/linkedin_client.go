// Package linkedin publishes UGC posts. The author is addressed by URN,
// resolved from the connection profile as either a person or an
// organization. Images go through the register-upload / upload / reference
// asset flow before the post call.
package linkedin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/infrastructure/clients/rest"
)

const (
	defaultBaseURL = "https://api.linkedin.com"
	textLimit      = 3000
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

func (a *Adapter) Platform() model.Platform { return model.PlatformLinkedIn }

// resolveAuthorURN decides between a person and an organization author.
// An explicit author_urn wins; an org_id marks an organization page;
// otherwise the external account id is treated as a person id.
func resolveAuthorURN(cred publisher.Credential) (string, error) {
	if urn := cred.Extra["author_urn"]; urn != "" {
		if !strings.HasPrefix(urn, "urn:li:person:") && !strings.HasPrefix(urn, "urn:li:organization:") {
			return "", publisher.ContentError(fmt.Sprintf("unrecognized linkedin author urn %q", urn), nil)
		}
		return urn, nil
	}
	if orgID := cred.Extra["org_id"]; orgID != "" {
		return "urn:li:organization:" + orgID, nil
	}
	if cred.ExternalAccountID == "" {
		return "", publisher.AuthError("connection profile has no linkedin author identity", nil)
	}
	return "urn:li:person:" + cred.ExternalAccountID, nil
}

type ugcPost struct {
	Author          string                    `json:"author"`
	LifecycleState  string                    `json:"lifecycleState"`
	SpecificContent map[string]shareContent   `json:"specificContent"`
	Visibility      map[string]string         `json:"visibility"`
}

type shareContent struct {
	ShareCommentary    textAttr     `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media,omitempty"`
}

type textAttr struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status      string    `json:"status"`
	Media       string    `json:"media"`
	Description *textAttr `json:"description,omitempty"`
}

type ugcResponse struct {
	ID string `json:"id"`
}

func (a *Adapter) Publish(ctx context.Context, cred publisher.Credential, req *model.PublishRequest) (string, error) {
	author, err := resolveAuthorURN(cred)
	if err != nil {
		return "", err
	}
	for _, media := range req.Media {
		if media.Type != model.MediaTypeImage {
			return "", publisher.ContentError(fmt.Sprintf("linkedin posts support image media only, got %s", media.Type), nil)
		}
	}

	text := publisher.ComposeMessage(req, textLimit)

	content := shareContent{
		ShareCommentary:    textAttr{Text: text},
		ShareMediaCategory: "NONE",
	}
	for _, item := range req.Media {
		asset, err := a.uploadImage(ctx, cred, author, item)
		if err != nil {
			return "", err
		}
		media := shareMedia{Status: "READY", Media: asset}
		if item.AltText != "" {
			media.Description = &textAttr{Text: item.AltText}
		}
		content.Media = append(content.Media, media)
	}
	if len(content.Media) > 0 {
		content.ShareMediaCategory = "IMAGE"
	}

	post := ugcPost{
		Author:          author,
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]shareContent{"com.linkedin.ugc.ShareContent": content},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	var resp ugcResponse
	if err := a.rest.PostJSON(ctx, a.baseURL+"/v2/ugcPosts", cred.AccessSecret, post, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", publisher.TransientError("linkedin returned no post id", nil)
	}
	return resp.ID, nil
}

type registerUploadRequest struct {
	RegisterUploadRequest struct {
		Recipes    []string `json:"recipes"`
		Owner      string   `json:"owner"`
		ServiceRelationships []struct {
			RelationshipType string `json:"relationshipType"`
			Identifier       string `json:"identifier"`
		} `json:"serviceRelationships"`
	} `json:"registerUploadRequest"`
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism map[string]struct {
			UploadURL string `json:"uploadUrl"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

// uploadImage runs the three-step asset flow: register, upload bytes,
// return the asset URN for the post to reference.
func (a *Adapter) uploadImage(ctx context.Context, cred publisher.Credential, owner string, media model.MediaRef) (string, error) {
	var register registerUploadRequest
	register.RegisterUploadRequest.Recipes = []string{"urn:li:digitalmediaRecipe:feedshare-image"}
	register.RegisterUploadRequest.Owner = owner
	register.RegisterUploadRequest.ServiceRelationships = []struct {
		RelationshipType string `json:"relationshipType"`
		Identifier       string `json:"identifier"`
	}{{RelationshipType: "OWNER", Identifier: "urn:li:userGeneratedContent"}}

	var registered registerUploadResponse
	if err := a.rest.PostJSON(ctx, a.baseURL+"/v2/assets?action=registerUpload", cred.AccessSecret, register, &registered); err != nil {
		return "", err
	}
	if registered.Value.Asset == "" {
		return "", publisher.TransientError("linkedin asset registration returned no asset urn", nil)
	}

	var uploadURL string
	for _, mechanism := range registered.Value.UploadMechanism {
		if mechanism.UploadURL != "" {
			uploadURL = mechanism.UploadURL
			break
		}
	}
	if uploadURL == "" {
		return "", publisher.TransientError("linkedin asset registration returned no upload url", nil)
	}

	data, contentType, err := a.rest.Download(ctx, media.URL)
	if err != nil {
		return "", err
	}
	if err := a.rest.Put(ctx, uploadURL, cred.AccessSecret, contentType, data); err != nil {
		return "", err
	}
	return registered.Value.Asset, nil
}

// FetchAnalytics is not available on this integration tier.
func (a *Adapter) FetchAnalytics(ctx context.Context, cred publisher.Credential, externalPostID string) (*model.PostMetrics, error) {
	return nil, publisher.ErrAnalyticsUnsupported
}

func (a *Adapter) ValidateCredential(ctx context.Context, cred publisher.Credential) (bool, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := a.rest.GetJSON(ctx, a.baseURL+"/v2/me", cred.AccessSecret, nil, &resp); err != nil {
		if kind, _ := publisher.Classify(err); kind == model.ErrKindAuthentication {
			return false, nil
		}
		return false, err
	}
	return resp.ID != "", nil
}
