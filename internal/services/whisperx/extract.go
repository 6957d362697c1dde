package whisperx

// buildExtractArgs returns ffmpeg arguments that convert the first audio
// stream of source into a mono 16kHz PCM WAV suitable for WhisperX.
func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}
