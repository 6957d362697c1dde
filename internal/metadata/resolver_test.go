package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

type fakeSource struct {
	out []byte
	err error
}

func (f fakeSource) DumpJSON(context.Context, string) ([]byte, error) {
	return f.out, f.err
}

func sampleInfo(t *testing.T) []byte {
	t.Helper()
	doc := map[string]any{
		"title":        "Sample Clip",
		"thumbnail":    "https://i.ytimg.com/vi/abc/hq.jpg",
		"original_url": "https://www.youtube.com/watch?v=abc",
		"formats": []any{
			map[string]any{"format_id": "sb0", "format_note": "storyboard", "url": "https://sb", "vcodec": "none", "acodec": "none"},
			map[string]any{"format_id": "140", "format_note": "medium", "url": "https://a", "vcodec": "none", "acodec": "mp4a.40.2"},
			map[string]any{"format_id": "18", "format_note": "360p", "height": 360, "ext": "mp4", "url": "https://18", "vcodec": "avc1", "acodec": "mp4a", "filesize": 1000},
			map[string]any{"format_id": "nourl", "format_note": "720p", "height": 720, "vcodec": "avc1"},
			map[string]any{"format_id": "hls-x", "ext": "mp4", "url": "https://hls", "vcodec": "avc1"},
			map[string]any{"format_id": "137", "height": 1080, "ext": "mp4", "url": "https://137", "vcodec": "avc1", "acodec": "none", "filesize_approx": 5000.0, "http_headers": map[string]string{"User-Agent": "ua"}},
			map[string]any{"format_id": "dash", "format_note": "DASH", "ext": "mp4", "url": "https://dash", "vcodec": "avc1"},
			map[string]any{"format_id": "137+140", "height": 1080, "url": "https://merged", "vcodec": "avc1"},
			map[string]any{"format_id": "22", "format_note": "720p", "height": 720, "ext": "mp4", "url": "https://22", "vcodec": "avc1", "acodec": "mp4a"},
		},
		"subtitles": map[string]any{
			"en":        []any{map[string]any{"ext": "json3", "url": "https://en.json3"}, map[string]any{"ext": "srv1", "url": "https://en.srv1"}, map[string]any{"ext": "vtt", "url": "https://en.vtt", "name": "English (CC)"}},
			"fr":        []any{map[string]any{"ext": "zzz", "url": "https://fr.zzz"}, map[string]any{"ext": "yyy", "url": "https://fr.yyy"}},
			"de":        []any{},
			"live_chat": []any{map[string]any{"ext": "json", "url": "https://chat"}},
		},
		"automatic_captions": map[string]any{
			"es": []any{map[string]any{"ext": "srv3", "url": "https://es.srv3"}, map[string]any{"ext": "srt", "url": "https://es.srt"}},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func TestResolveNormalizesMetadata(t *testing.T) {
	resolver := NewResolver(fakeSource{out: sampleInfo(t)}, logging.NewNop())

	video, err := resolver.Resolve(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	require.Equal(t, "Sample Clip", video.Title)
	require.Equal(t, notAvailable, video.Uploader)
	require.NotNil(t, video.Thumbnail)
	require.Equal(t, "https://www.youtube.com/watch?v=abc", video.OriginalURL)
	require.Equal(t, PlatformYouTube, video.Platform)

	ids := make([]string, 0, len(video.Formats))
	for _, f := range video.Formats {
		ids = append(ids, f.FormatID)
	}
	require.Equal(t, []string{"137", "22", "18", "dash"}, ids)

	top := video.Formats[0]
	require.Equal(t, "1080p", top.Resolution)
	require.False(t, top.HasAudio)
	require.NotNil(t, top.FileSize)
	require.EqualValues(t, 5000, *top.FileSize)
	require.Equal(t, "ua", top.HTTPHeaders["User-Agent"])

	last := video.Formats[3]
	require.Nil(t, last.Height)
	require.True(t, last.HasAudio)
	require.NotNil(t, last.HTTPHeaders)

	require.Len(t, video.Subtitles, 2)
	require.Equal(t, CaptionTrack{Language: "en", Name: "English (CC)", Ext: "vtt", URL: "https://en.vtt"}, video.Subtitles["en"])
	require.Equal(t, "zzz", video.Subtitles["fr"].Ext)
	require.Equal(t, "French", video.Subtitles["fr"].Name)

	es := video.AutomaticCaptions["es"]
	require.Equal(t, "srt", es.Ext)
	require.Equal(t, "Spanish (auto)", es.Name)
	require.True(t, es.Auto)
}

func TestResolveDefaultsMissingFields(t *testing.T) {
	resolver := NewResolver(fakeSource{out: []byte(`{"formats":[]}`)}, logging.NewNop())

	video, err := resolver.Resolve(context.Background(), "https://x.com/u/status/1")
	require.NoError(t, err)
	require.Equal(t, notAvailable, video.Title)
	require.Nil(t, video.Thumbnail)
	require.Equal(t, "https://x.com/u/status/1", video.OriginalURL)
	require.Equal(t, PlatformTwitter, video.Platform)
	require.Empty(t, video.Formats)
	require.NotNil(t, video.Subtitles)

	encoded, err := json.Marshal(video)
	require.NoError(t, err)
	require.Contains(t, string(encoded), `"formats":[]`)
	require.Contains(t, string(encoded), `"thumbnail":null`)
}

func TestResolveParseFailures(t *testing.T) {
	for _, raw := range []string{"", "null", "[1,2]", "{not json", "WARNING: something\n{}"} {
		resolver := NewResolver(fakeSource{out: []byte(raw)}, logging.NewNop())
		_, err := resolver.Resolve(context.Background(), "https://youtu.be/abc")
		require.ErrorIs(t, err, services.ErrParse, "input %q", raw)
		msg, ok := services.PublicMessage(err)
		require.True(t, ok)
		require.Equal(t, "Failed to parse video data from yt-dlp.", msg)
	}
}

func TestResolveBackendFailureMessages(t *testing.T) {
	tests := []struct {
		marker error
		output string
		want   string
	}{
		{services.ErrTimeout, "", "Processing timed out. The video might be too long or the server is busy."},
		{services.ErrUnsupported, "ERROR: Unsupported URL", "Unsupported URL or video not found."},
		{services.ErrUnavailable, "ERROR: Video unavailable", "This video is unavailable."},
		{services.ErrExternalTool, "ERROR: boom", "yt-dlp error: ERROR: boom"},
	}
	for _, tt := range tests {
		cause := services.ToolFailure(tt.marker, "yt-dlp", "dump-json", tt.output, errors.New("exit status 1"))
		resolver := NewResolver(fakeSource{err: cause}, logging.NewNop())

		_, err := resolver.Resolve(context.Background(), "https://youtu.be/abc")
		require.ErrorIs(t, err, tt.marker)
		msg, ok := services.PublicMessage(err)
		require.True(t, ok)
		require.Equal(t, tt.want, msg)
	}
}

func TestFormatOrderingProperty(t *testing.T) {
	h := func(v float64) *float64 { return &v }
	raw := []rawFormat{
		{FormatID: "a", FormatNote: "x", URL: "u"},
		{FormatID: "b", Height: h(240), URL: "u"},
		{FormatID: "c", Height: h(1440), URL: "u"},
		{FormatID: "d", FormatNote: "y", URL: "u"},
		{FormatID: "e", Height: h(720), URL: "u"},
		{FormatID: "f", Height: h(720), URL: "u"},
		{FormatID: "g", Height: h(0), URL: "u"},
	}
	out := selectFormats(raw)
	require.Len(t, out, 6)
	seenUnknown := false
	for i, f := range out {
		if f.Height == nil {
			seenUnknown = true
			continue
		}
		require.False(t, seenUnknown, "known height after unknown at %d", i)
		if i > 0 && out[i-1].Height != nil {
			require.GreaterOrEqual(t, *out[i-1].Height, *f.Height)
		}
	}
	require.Equal(t, "e", out[1].FormatID)
	require.Equal(t, "f", out[2].FormatID)
	require.Equal(t, "a", out[4].FormatID)
	require.Equal(t, "d", out[5].FormatID)
}
