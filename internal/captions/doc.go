// Package captions fetches, transcribes, and translates caption tracks.
//
// # Document Model
//
// Parse splits a caption file into lines and classifies each one. Blank
// lines, cue indices, timing lines (anything containing "-->"), and the WebVTT
// header block are structural and are never altered. Every other line is
// content. Document.String reproduces the input exactly when no line changed.
//
// # Translation
//
// TranslateDocument sends content lines to a Translator one at a time, in
// document order. A failed or empty translation keeps the original line and
// logs a warning; embedded newlines in a translation are folded into spaces.
// The output therefore always has the input's line count. Multi-line cues are
// translated line by line, not as a unit.
//
// # Entry Points
//
// Pipeline.FetchTrack: download an existing manual or automatic track.
// Pipeline.TranslateTrack: download a track and translate it.
// Pipeline.GenerateTranslation: download audio, transcribe it, translate it.
// Pipeline.TranslateFile: translate a caption file already on disk.
//
// Each job-producing entry point allocates its own job directory through
// jobs.Manager and records the outcome on the job row. Client-facing failure
// messages are attached with services.Public.
package captions
