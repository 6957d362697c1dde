package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

// Command is the default yt-dlp executable name.
const Command = "yt-dlp"

const toolName = "yt-dlp"

// Runner executes name with args and returns captured stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Config captures the binary and per-operation bounds.
type Config struct {
	Binary          string
	MetadataTimeout time.Duration
	CaptionTimeout  time.Duration
	AudioTimeout    time.Duration
	DownloadTimeout time.Duration
}

// Client wraps the yt-dlp command line. Every call runs detached from the
// caller's cancellation and bounded by its own timeout, so a started
// invocation finishes, times out, or fails on its own.
type Client struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// New constructs a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = Command
	}
	return &Client{
		cfg:    cfg,
		runner: execRunner,
		logger: logging.NewComponentLogger(logger, "ytdlp"),
	}
}

// WithRunner sets a custom command runner (for testing).
func (c *Client) WithRunner(runner Runner) {
	if runner != nil {
		c.runner = runner
	}
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.cfg.Binary
}

// DumpJSON returns the raw metadata document for url.
func (c *Client) DumpJSON(ctx context.Context, url string) ([]byte, error) {
	args := []string{"--dump-json", "--skip-download", "--no-warnings", "--no-playlist", "--", url}
	stdout, _, err := c.run(ctx, "dump-json", c.cfg.MetadataTimeout, args)
	if err != nil {
		return nil, err
	}
	return stdout, nil
}

// Download fetches the formats named by selector and muxes them into an mp4
// written to outputTemplate.
func (c *Client) Download(ctx context.Context, url, selector, outputTemplate string) error {
	args := []string{
		"-f", selector,
		"--merge-output-format", "mp4",
		"-o", outputTemplate,
		"--no-warnings",
		"--no-playlist",
		"--no-part",
		"--", url,
	}
	_, _, err := c.run(ctx, "download", c.cfg.DownloadTimeout, args)
	return err
}

// CaptionRequest selects one caption track.
type CaptionRequest struct {
	URL            string
	Lang           string
	Auto           bool
	OutputTemplate string
}

// FetchCaptions writes the requested caption track as WebVTT. yt-dlp exits
// successfully when a language is missing, so the returned diagnostics let
// callers distinguish "no track" from other empty results.
func (c *Client) FetchCaptions(ctx context.Context, req CaptionRequest) (string, error) {
	writeFlag := "--write-subs"
	if req.Auto {
		writeFlag = "--write-auto-subs"
	}
	args := []string{
		"--skip-download",
		writeFlag,
		"--sub-langs", req.Lang,
		"--sub-format", "vtt",
		"-o", req.OutputTemplate,
		"--no-playlist",
		"--", req.URL,
	}
	stdout, stderr, err := c.run(ctx, "captions", c.cfg.CaptionTimeout, args)
	return diagnostics(stdout, stderr), err
}

// diagnostics joins both streams. yt-dlp reports some conditions, such as a
// missing caption language, through its info channel on stdout.
func diagnostics(stdout, stderr []byte) string {
	out := strings.TrimSpace(string(stdout))
	errOut := strings.TrimSpace(string(stderr))
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// FetchAudio downloads the best audio-only stream to outputTemplate.
func (c *Client) FetchAudio(ctx context.Context, url, outputTemplate string) error {
	args := []string{
		"-f", "bestaudio",
		"-o", outputTemplate,
		"--no-warnings",
		"--no-playlist",
		"--no-part",
		"--", url,
	}
	_, _, err := c.run(ctx, "audio", c.cfg.AudioTimeout, args)
	return err
}

// Version reports the installed yt-dlp version.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, _, err := c.run(ctx, "version", 10*time.Second, []string{"--version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

func (c *Client) run(ctx context.Context, op string, timeout time.Duration, args []string) ([]byte, []byte, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	logger.Debug("yt-dlp invocation", logging.String("op", op), logging.Any("args", args))

	stdout, stderr, err := c.runner(runCtx, c.cfg.Binary, args...)
	elapsed := time.Since(started).Round(time.Millisecond)
	if err == nil {
		logger.Debug("yt-dlp finished", logging.String("op", op), logging.Duration("elapsed", elapsed))
		return stdout, stderr, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		logger.Warn("yt-dlp timed out",
			logging.String("op", op),
			logging.Duration("timeout", timeout),
			logging.String(logging.FieldEventType, "tool_timeout"),
			logging.String(logging.FieldErrorHint, "raise the ytdlp timeout or retry later"),
			logging.String(logging.FieldImpact, "request fails with 504"),
		)
		return stdout, stderr, services.ToolFailure(services.ErrTimeout, toolName, op, string(stderr), fmt.Errorf("timed out after %s", timeout))
	}

	diag := strings.TrimSpace(string(stderr))
	marker := Classify(diag)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		marker = services.ErrConfiguration
	}
	logger.Info("yt-dlp failed",
		logging.String("op", op),
		logging.Duration("elapsed", elapsed),
		logging.String("marker", marker.Error()),
		logging.String(logging.FieldEventType, "tool_failed"),
	)
	return stdout, stderr, services.ToolFailure(marker, toolName, op, diag, err)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// OutputTemplate builds a yt-dlp output template of the form
// <dir>/<stem>.%(ext)s. Literal percent signs are escaped so yt-dlp does not
// read them as template fields.
func OutputTemplate(dir, stem string) string {
	escape := func(s string) string { return strings.ReplaceAll(s, "%", "%%") }
	return filepath.Join(escape(dir), escape(stem)) + ".%(ext)s"
}

// FormatSelector builds the -f argument for a chosen format. Formats that
// already carry audio are used as-is; others are merged with the best audio
// stream, falling back to the format alone when no audio exists.
func FormatSelector(formatID string, hasAudio bool) string {
	if hasAudio {
		return formatID
	}
	return formatID + "+bestaudio/" + formatID
}
