// Package ytdlp adapts the yt-dlp command line for metadata extraction,
// media download, caption fetch, and audio extraction.
//
// It is the only package that spawns yt-dlp. Each invocation captures stdout
// and stderr separately, runs under an operation-specific timeout, and maps
// failures onto the services error markers so callers never parse tool
// output themselves.
package ytdlp
