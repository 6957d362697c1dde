package metadata

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

type rawFormat struct {
	FormatID       string            `json:"format_id"`
	FormatNote     string            `json:"format_note"`
	Height         *float64          `json:"height"`
	Ext            string            `json:"ext"`
	FileSize       *float64          `json:"filesize"`
	FileSizeApprox *float64          `json:"filesize_approx"`
	VCodec         string            `json:"vcodec"`
	ACodec         string            `json:"acodec"`
	URL            string            `json:"url"`
	HTTPHeaders    map[string]string `json:"http_headers"`
}

// selectFormats filters raw extractor formats down to downloadable video
// renditions and orders them by height, tallest first. Formats without a
// known height keep their relative order after every sized format.
func selectFormats(raw []rawFormat) []VideoFormat {
	out := make([]VideoFormat, 0, len(raw))
	for _, f := range raw {
		if !keepFormat(f) {
			continue
		}
		out = append(out, toVideoFormat(f))
	}
	slices.SortStableFunc(out, compareHeight)
	return out
}

func keepFormat(f rawFormat) bool {
	if strings.TrimSpace(f.URL) == "" {
		return false
	}
	if strings.TrimSpace(f.FormatNote) == "" && positiveHeight(f.Height) == nil {
		return false
	}
	if f.VCodec == "none" {
		return false
	}
	return !strings.Contains(f.FormatID, "+")
}

func toVideoFormat(f rawFormat) VideoFormat {
	height := positiveHeight(f.Height)
	resolution := strings.TrimSpace(f.FormatNote)
	if resolution == "" && height != nil {
		resolution = strconv.Itoa(*height) + "p"
	}
	headers := f.HTTPHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	return VideoFormat{
		FormatID:    f.FormatID,
		Resolution:  resolution,
		Height:      height,
		Ext:         f.Ext,
		FileSize:    fileSize(f.FileSize, f.FileSizeApprox),
		HasAudio:    f.ACodec != "none",
		DownloadURL: f.URL,
		HTTPHeaders: headers,
	}
}

func positiveHeight(h *float64) *int {
	if h == nil || *h <= 0 || math.IsNaN(*h) || math.IsInf(*h, 0) {
		return nil
	}
	v := int(*h)
	return &v
}

func fileSize(exact, approx *float64) *int64 {
	for _, candidate := range []*float64{exact, approx} {
		if candidate != nil && *candidate > 0 {
			v := int64(*candidate)
			return &v
		}
	}
	return nil
}

func compareHeight(a, b VideoFormat) int {
	switch {
	case a.Height == nil && b.Height == nil:
		return 0
	case a.Height == nil:
		return 1
	case b.Height == nil:
		return -1
	default:
		return *b.Height - *a.Height
	}
}
