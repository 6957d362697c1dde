package metadata

import (
	"net/url"
	"strings"
)

// Platform identifiers reported alongside resolved metadata.
const (
	PlatformYouTube = "youtube"
	PlatformTwitter = "twitter"
)

// InvalidURLMessage is the client-facing rejection for unsupported URLs.
const InvalidURLMessage = "Invalid URL. Only YouTube and Twitter/X links are supported."

var allowedHosts = map[string]string{
	"youtube.com": PlatformYouTube,
	"youtu.be":    PlatformYouTube,
	"twitter.com": PlatformTwitter,
	"x.com":       PlatformTwitter,
}

// ValidURL reports whether raw points at a supported YouTube or Twitter/X
// page. A missing scheme is treated as https.
func ValidURL(raw string) bool {
	return Platform(raw) != ""
}

// Platform returns the platform for raw, or "" when the URL is not accepted.
func Platform(raw string) string {
	u, ok := parseCandidate(raw)
	if !ok {
		return ""
	}
	platform, ok := allowedHosts[canonicalHost(u.Hostname())]
	if !ok {
		return ""
	}
	if strings.Trim(u.EscapedPath(), "/") == "" {
		return ""
	}
	return platform
}

func parseCandidate(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return nil, false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, false
	}
	if u.Hostname() == "" || u.User != nil {
		return nil, false
	}
	return u, true
}

func canonicalHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, prefix := range []string{"www.", "m.", "mobile."} {
		if rest, ok := strings.CutPrefix(host, prefix); ok {
			return rest
		}
	}
	return host
}
