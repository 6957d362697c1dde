package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateYtDLP(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadDir == "" {
		return errors.New("paths.download_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind %q: %w", c.API.Bind, err)
	}
	return nil
}

func (c *Config) validateYtDLP() error {
	return ensurePositiveMap(map[string]int{
		"ytdlp.metadata_timeout": c.YtDLP.MetadataTimeout,
		"ytdlp.caption_timeout":  c.YtDLP.CaptionTimeout,
		"ytdlp.audio_timeout":    c.YtDLP.AudioTimeout,
		"ytdlp.download_timeout": c.YtDLP.DownloadTimeout,
	})
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote, got %q", c.Transcription.VADMethod)
	}
	if c.Transcription.Timeout <= 0 {
		return errors.New("transcription.timeout must be positive")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.TimeoutSeconds <= 0 {
		return errors.New("translation.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.JobTTLHours < 0 {
		return errors.New("retention.job_ttl_hours must be >= 0")
	}
	if c.Retention.JobTTLHours > 0 && c.Retention.SweepIntervalMinutes <= 0 {
		return errors.New("retention.sweep_interval_minutes must be positive when retention is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
