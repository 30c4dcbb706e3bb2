package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"my-publisher/domain/model"
)

// Verifier checks inbound webhook signatures against per-platform shared
// secrets. Each platform signs the raw request body with HMAC-SHA256 but
// encodes and frames the digest differently.
type Verifier struct {
	secrets map[model.Platform]string
}

func NewVerifier(secrets map[string]string) *Verifier {
	parsed := make(map[model.Platform]string, len(secrets))
	for name, secret := range secrets {
		platform, err := model.ParsePlatform(name)
		if err != nil {
			continue
		}
		parsed[platform] = secret
	}
	return &Verifier{secrets: parsed}
}

// Verify validates the signature header for the given platform. The header
// value is whatever the platform puts in its signature header, for example
// X-Hub-Signature-256 for Meta platforms.
func (v *Verifier) Verify(platform model.Platform, body []byte, signature string) error {
	secret, ok := v.secrets[platform]
	if !ok || secret == "" {
		return fmt.Errorf("no webhook secret configured for %s", platform)
	}
	if signature == "" {
		return fmt.Errorf("missing signature")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	digest := mac.Sum(nil)

	var expected string
	switch platform {
	case model.PlatformFacebook, model.PlatformInstagram:
		// Meta sends "sha256=<hex>".
		expected = "sha256=" + hex.EncodeToString(digest)
	case model.PlatformTwitter:
		// Twitter CRC responses use base64.
		expected = base64.StdEncoding.EncodeToString(digest)
		signature = strings.TrimPrefix(signature, "sha256=")
	default:
		expected = hex.EncodeToString(digest)
	}

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch for %s", platform)
	}
	return nil
}

// SignatureHeader names the HTTP header each platform uses to carry the signature.
func SignatureHeader(platform model.Platform) string {
	switch platform {
	case model.PlatformFacebook, model.PlatformInstagram:
		return "X-Hub-Signature-256"
	case model.PlatformTwitter:
		return "X-Twitter-Webhooks-Signature"
	case model.PlatformTikTok:
		return "TikTok-Signature"
	default:
		return "X-Signature"
	}
}
