package metadata

import (
	"context"
	"strings"

	"vidfetch/internal/language"
	"vidfetch/internal/logging"
)

// CaptionPreference ranks caption containers; the first listed extension a
// language offers wins.
var CaptionPreference = []string{"vtt", "srt", "ttml", "srv3", "srv2", "srv1", "json3"}

func (r *Resolver) selectCaptions(ctx context.Context, raw map[string][]rawCaption, auto bool) map[string]CaptionTrack {
	out := make(map[string]CaptionTrack, len(raw))
	for lang, entries := range raw {
		if _, ok := language.Normalize(lang); !ok {
			logging.WithContext(ctx, r.logger).Debug("skipping caption key",
				logging.String("language", lang),
				logging.Bool("auto", auto),
			)
			continue
		}
		entry, ok := selectVariant(entries)
		if !ok {
			continue
		}
		out[lang] = CaptionTrack{
			Language: lang,
			Name:     captionName(lang, entry.Name, auto),
			Ext:      entry.Ext,
			URL:      entry.URL,
			Auto:     auto,
		}
	}
	return out
}

// selectVariant picks the entry with the most preferred extension; ties go to
// the earlier entry. Without any preferred extension the first entry wins.
func selectVariant(entries []rawCaption) (rawCaption, bool) {
	if len(entries) == 0 {
		return rawCaption{}, false
	}
	best, bestRank := 0, len(CaptionPreference)
	for i, entry := range entries {
		rank := preferenceRank(entry.Ext)
		if rank < bestRank {
			best, bestRank = i, rank
		}
	}
	return entries[best], true
}

func preferenceRank(ext string) int {
	ext = strings.ToLower(strings.TrimSpace(ext))
	for i, candidate := range CaptionPreference {
		if candidate == ext {
			return i
		}
	}
	return len(CaptionPreference)
}

func captionName(lang, name string, auto bool) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	name = language.Describe(lang)
	if auto {
		name += " (auto)"
	}
	return name
}
