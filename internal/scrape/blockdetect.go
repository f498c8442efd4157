package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot interstitial detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// challengePageLimit bounds the body size of interstitial pages. Larger
// pages are real content that may embed a captcha-protected contact form.
const challengePageLimit = 4096

// DetectBlock reports whether a response is an anti-bot page rather than
// the site's own content.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "checking your browser") || strings.Contains(lower, "cf-browser-verification") {
		return true, BlockCloudflare
	}

	if len(body) >= challengePageLimit {
		return false, BlockNone
	}

	if strings.Contains(lower, "captcha") && !strings.Contains(lower, "<a ") {
		return true, BlockCaptcha
	}
	if strings.Contains(lower, "<noscript") && strings.Contains(lower, "enable javascript") {
		return true, BlockJSShell
	}
	return false, BlockNone
}
