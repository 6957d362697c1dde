// Package whisperx turns downloaded audio into WebVTT captions.
//
// Audio is first normalised to a mono 16 kHz WAV with ffmpeg, then handed to
// WhisperX through uvx. WhisperX writes every output format next to the WAV;
// the service reports the VTT and JSON paths and the language WhisperX
// detected, read from the JSON result.
//
// Both steps share one deadline taken from Config.Timeout and run detached
// from the caller's cancellation. Commands go through an injectable Runner so
// tests never spawn processes.
package whisperx
