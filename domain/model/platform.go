package model

import (
	"fmt"
	"strings"
)

// Platform identifies one external social network integration.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformPinterest Platform = "pinterest"
)

// AllPlatforms lists every platform the orchestrator knows about, in a stable order.
var AllPlatforms = []Platform{
	PlatformFacebook,
	PlatformInstagram,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformTikTok,
	PlatformYouTube,
	PlatformPinterest,
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllPlatforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform: %s", s)
}

func (p Platform) String() string { return string(p) }
