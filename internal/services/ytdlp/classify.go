package ytdlp

import (
	"strings"

	"vidfetch/internal/services"
)

type signature struct {
	needle string
	marker error
}

// Ordered: the first match wins.
var signatures = []signature{
	{"http error 403", services.ErrAccessDenied},
	{"sign in to confirm", services.ErrAccessDenied},
	{"login required", services.ErrAccessDenied},
	{"private video", services.ErrAccessDenied},
	{"members-only", services.ErrAccessDenied},
	{"unsupported url", services.ErrUnsupported},
	{"video unavailable", services.ErrUnavailable},
	{"this video is unavailable", services.ErrUnavailable},
	{"no subtitles for language", services.ErrNoCaptions},
	{"there are no subtitles", services.ErrNoCaptions},
	{"subtitles not available for", services.ErrNoCaptions},
	{"there are no automatic captions", services.ErrNoCaptions},
	{"no automatic captions", services.ErrNoCaptions},
}

// Classify maps yt-dlp diagnostic output to an error marker. Unrecognized
// output yields services.ErrExternalTool.
func Classify(diag string) error {
	lower := strings.ToLower(diag)
	for _, sig := range signatures {
		if strings.Contains(lower, sig.needle) {
			return sig.marker
		}
	}
	return services.ErrExternalTool
}

// MissingCaptions reports whether diag says the requested track does not exist.
func MissingCaptions(diag string) bool {
	return Classify(diag) == services.ErrNoCaptions
}
