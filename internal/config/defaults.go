package config

const (
	defaultConfigPath           = "~/.config/vidfetch/config.toml"
	defaultDownloadDir          = "~/.local/share/vidfetch/downloads"
	defaultStateDir             = "~/.local/share/vidfetch"
	defaultLogDir               = "~/.local/share/vidfetch/logs"
	defaultAPIBind              = "0.0.0.0:5000"
	defaultYtDLPBinary          = "yt-dlp"
	defaultMetadataTimeout      = 60
	defaultCaptionTimeout       = 60
	defaultAudioTimeout         = 120
	defaultDownloadTimeout      = 300
	defaultWhisperXModel        = "large-v3"
	defaultVADMethod            = "silero"
	defaultTranscriptionTimeout = 600
	defaultTranslationBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultTranslationModel     = "google/gemini-2.5-flash"
	defaultTranslationTitle     = "vidfetch"
	defaultTranslationTimeout   = 30
	defaultJobTTLHours          = 24
	defaultSweepIntervalMinutes = 15
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		API: API{
			Bind:           defaultAPIBind,
			AllowedOrigins: []string{"*"},
		},
		YtDLP: YtDLP{
			Binary:          defaultYtDLPBinary,
			MetadataTimeout: defaultMetadataTimeout,
			CaptionTimeout:  defaultCaptionTimeout,
			AudioTimeout:    defaultAudioTimeout,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Transcription: Transcription{
			WhisperXModel: defaultWhisperXModel,
			VADMethod:     defaultVADMethod,
			Timeout:       defaultTranscriptionTimeout,
		},
		Translation: Translation{
			BaseURL:        defaultTranslationBaseURL,
			Model:          defaultTranslationModel,
			Title:          defaultTranslationTitle,
			TimeoutSeconds: defaultTranslationTimeout,
		},
		Retention: Retention{
			JobTTLHours:          defaultJobTTLHours,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
