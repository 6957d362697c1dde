package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"vidfetch/internal/logging"
	"vidfetch/internal/services"
	"vidfetch/internal/textutil"
)

// Source produces the raw yt-dlp metadata document for a URL.
type Source interface {
	DumpJSON(ctx context.Context, url string) ([]byte, error)
}

// Resolver turns a URL into a normalized Video.
type Resolver struct {
	source Source
	logger *slog.Logger
}

// NewResolver constructs a Resolver backed by source.
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logging.NewComponentLogger(logger, "metadata"),
	}
}

const notAvailable = "N/A"

// Resolve fetches and normalizes metadata for url. Callers validate url with
// ValidURL first.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Video, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, services.Public(services.Wrap(services.ErrValidation, "metadata", "resolve", "url required", nil), "URL is required")
	}
	raw, err := r.source.DumpJSON(ctx, url)
	if err != nil {
		return nil, services.Public(err, resolveFailureMessage(err))
	}

	info, err := decodeInfo(raw)
	if err != nil {
		return nil, services.Public(err, "Failed to parse video data from yt-dlp.")
	}

	video := &Video{
		Title:             textutil.Ternary(strings.TrimSpace(info.Title) != "", info.Title, notAvailable),
		Uploader:          textutil.Ternary(strings.TrimSpace(info.Uploader) != "", info.Uploader, notAvailable),
		OriginalURL:       textutil.Ternary(strings.TrimSpace(info.OriginalURL) != "", info.OriginalURL, url),
		Platform:          Platform(url),
		Formats:           selectFormats(info.Formats),
		Subtitles:         r.selectCaptions(ctx, info.Subtitles, false),
		AutomaticCaptions: r.selectCaptions(ctx, info.AutomaticCaptions, true),
	}
	if thumb := strings.TrimSpace(info.Thumbnail); thumb != "" {
		video.Thumbnail = &thumb
	}

	logging.WithContext(ctx, r.logger).Info("metadata resolved",
		logging.String("platform", video.Platform),
		logging.Int("formats", len(video.Formats)),
		logging.Int("raw_formats", len(info.Formats)),
		logging.Int("subtitles", len(video.Subtitles)),
		logging.Int("automatic_captions", len(video.AutomaticCaptions)),
	)
	return video, nil
}

func resolveFailureMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "Processing timed out. The video might be too long or the server is busy."
	case errors.Is(err, services.ErrUnsupported):
		return "Unsupported URL or video not found."
	case errors.Is(err, services.ErrUnavailable):
		return "This video is unavailable."
	case errors.Is(err, services.ErrAccessDenied):
		return "Access denied (403). The video might be private or require login."
	case errors.Is(err, services.ErrConfiguration):
		return "yt-dlp is not available on the server."
	default:
		return "yt-dlp error: " + services.ToolOutput(err)
	}
}

type rawInfo struct {
	Title             string                  `json:"title"`
	Thumbnail         string                  `json:"thumbnail"`
	Uploader          string                  `json:"uploader"`
	OriginalURL       string                  `json:"original_url"`
	Formats           []rawFormat             `json:"formats"`
	Subtitles         map[string][]rawCaption `json:"subtitles"`
	AutomaticCaptions map[string][]rawCaption `json:"automatic_captions"`
}

type rawCaption struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

func decodeInfo(raw []byte) (rawInfo, error) {
	var info rawInfo
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return info, services.Wrap(services.ErrParse, "metadata", "decode", "expected a JSON object", nil)
	}
	// yt-dlp prints one object per line; only the first is relevant with --no-playlist.
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&info); err != nil {
		return info, services.Wrap(services.ErrParse, "metadata", "decode", "", err)
	}
	return info, nil
}
