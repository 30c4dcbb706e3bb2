package publisher

import (
	"fmt"
	"strings"

	"my-publisher/domain/model"
)

// ComposeMessage flattens the normalized request into one message body:
// text, then hashtags, then mentions. limit > 0 truncates on rune
// boundaries with an ellipsis so platform length caps are never exceeded.
func ComposeMessage(req *model.PublishRequest, limit int) string {
	parts := []string{req.Text}

	if len(req.Hashtags) > 0 {
		tags := make([]string, 0, len(req.Hashtags))
		for _, tag := range req.Hashtags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if !strings.HasPrefix(tag, "#") {
				tag = "#" + tag
			}
			tags = append(tags, tag)
		}
		if len(tags) > 0 {
			parts = append(parts, strings.Join(tags, " "))
		}
	}

	if len(req.Mentions) > 0 {
		mentions := make([]string, 0, len(req.Mentions))
		for _, mention := range req.Mentions {
			mention = strings.TrimSpace(mention)
			if mention == "" {
				continue
			}
			if !strings.HasPrefix(mention, "@") {
				mention = "@" + mention
			}
			mentions = append(mentions, mention)
		}
		if len(mentions) > 0 {
			parts = append(parts, strings.Join(mentions, " "))
		}
	}

	message := strings.Join(parts, "\n\n")
	return Truncate(message, limit)
}

// Truncate cuts s to at most limit runes, appending an ellipsis when it
// had to cut. limit <= 0 means no limit.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// RequireMedia is the pre-flight check for platforms that cannot post
// bare text. It fails before any network call is spent.
func RequireMedia(platform model.Platform, req *model.PublishRequest) error {
	if len(req.Media) == 0 {
		return ContentError(fmt.Sprintf("%s requires at least one media item", platform), nil)
	}
	return nil
}

// RequireSingleVideo is the pre-flight check for video-only platforms.
// Anything other than exactly one video fails fast as unsupported.
func RequireSingleVideo(platform model.Platform, req *model.PublishRequest) error {
	if len(req.Media) == 0 {
		return UnsupportedError(fmt.Sprintf("%s accepts video content only, none provided", platform))
	}
	for _, media := range req.Media {
		if media.Type != model.MediaTypeVideo {
			return UnsupportedError(fmt.Sprintf("%s accepts video content only, got %s", platform, media.Type))
		}
	}
	if len(req.Media) > 1 {
		return ContentError(fmt.Sprintf("%s accepts a single video per post", platform), nil)
	}
	return nil
}
