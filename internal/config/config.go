package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories the server reads and writes.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// API contains HTTP listener configuration.
type API struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// YtDLP contains the extraction/download backend settings. Timeouts are in
// seconds.
type YtDLP struct {
	Binary          string `toml:"binary"`
	MetadataTimeout int    `toml:"metadata_timeout"`
	CaptionTimeout  int    `toml:"caption_timeout"`
	AudioTimeout    int    `toml:"audio_timeout"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Transcription contains WhisperX settings.
type Transcription struct {
	WhisperXModel string `toml:"whisperx_model"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	VADMethod     string `toml:"vad_method"`
	HFToken       string `toml:"hf_token"`
	Timeout       int    `toml:"timeout"`
}

// Translation contains the chat-completions backend used to translate
// caption lines.
type Translation struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Retention controls how long finished jobs and their files are kept.
type Retention struct {
	JobTTLHours          int `toml:"job_ttl_hours"`
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vidfetch.
//
// Configuration sections by subsystem:
//   - Paths: download root, state (database, lock) and log directories
//   - API: listener address and CORS origins
//   - YtDLP: extraction backend binary and per-operation timeouts
//   - Transcription: WhisperX model and runtime settings
//   - Translation: chat-completions endpoint used for caption translation
//   - Retention: job TTL and sweep cadence
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	YtDLP         YtDLP         `toml:"ytdlp"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Retention     Retention     `toml:"retention"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidfetch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the job store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LockPath returns the single-server lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "vidfetch.lock")
}

// FFmpegBinary returns the ffmpeg executable name yt-dlp relies on for muxing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// JobTTL returns the retention window; zero disables the sweeper.
func (c *Config) JobTTL() time.Duration {
	return time.Duration(c.Retention.JobTTLHours) * time.Hour
}

// SweepInterval returns how often the retention sweeper runs.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Retention.SweepIntervalMinutes) * time.Minute
}

// TranslationEnabled reports whether a translation backend is configured.
func (c *Config) TranslationEnabled() bool {
	return strings.TrimSpace(c.Translation.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
