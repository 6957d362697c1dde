// Package metadata resolves a video URL into the formats and caption tracks a
// client can choose from.
//
// ValidURL gates input to the supported YouTube and Twitter/X hosts before any
// backend call. Resolver.Resolve asks a Source for the raw yt-dlp document,
// keeps only direct, sized video renditions ordered tallest first, and picks
// one caption variant per language using CaptionPreference.
package metadata
