package metadata

// Video is the normalized description of one resolved URL.
type Video struct {
	Title             string                  `json:"title"`
	Thumbnail         *string                 `json:"thumbnail"`
	Uploader          string                  `json:"uploader"`
	OriginalURL       string                  `json:"original_url"`
	Platform          string                  `json:"platform"`
	Formats           []VideoFormat           `json:"formats"`
	Subtitles         map[string]CaptionTrack `json:"subtitles"`
	AutomaticCaptions map[string]CaptionTrack `json:"automatic_captions"`
}

// VideoFormat is one downloadable rendition. Height and FileSize are nil when
// the extractor does not report them.
type VideoFormat struct {
	FormatID    string            `json:"format_id"`
	Resolution  string            `json:"resolution"`
	Height      *int              `json:"height"`
	Ext         string            `json:"ext"`
	FileSize    *int64            `json:"filesize"`
	HasAudio    bool              `json:"has_audio"`
	DownloadURL string            `json:"download_url"`
	HTTPHeaders map[string]string `json:"http_headers"`
}

// CaptionTrack is the chosen variant of a caption language.
type CaptionTrack struct {
	Language string `json:"-"`
	Name     string `json:"name"`
	Ext      string `json:"ext"`
	URL      string `json:"url"`
	Auto     bool   `json:"-"`
}
