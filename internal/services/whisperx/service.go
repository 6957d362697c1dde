package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

// Runner executes name with args and returns combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = FFmpegCommand
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Service{
		cfg:    cfg,
		runner: execRunner,
		logger: logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner Runner) {
	if runner != nil {
		s.runner = runner
	}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Result describes the files produced by a transcription.
type Result struct {
	// VTTPath is the WebVTT caption written by WhisperX.
	VTTPath string
	// JSONPath is the segment-level JSON result.
	JSONPath string
	// Language is the language WhisperX detected, empty when unknown.
	Language string
}

// Transcribe converts source to WAV, runs WhisperX, and reports its outputs.
// Outputs are named after the source stem, so <dir>/clip.webm yields
// <outputDir>/clip.vtt. A missing VTT is reported as services.ErrNoOutput.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (Result, error) {
	var result Result

	if strings.TrimSpace(source) == "" {
		return result, services.Wrap(services.ErrValidation, "transcription", "transcribe", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	wavPath := filepath.Join(outputDir, stem+".wav")
	if filepath.Clean(wavPath) == filepath.Clean(source) {
		wavPath = filepath.Join(outputDir, stem+".16k.wav")
	}
	if err := s.run(runCtx, "extract", s.cfg.FFmpegBinary, buildExtractArgs(source, wavPath)); err != nil {
		return result, err
	}
	defer func() {
		if err := os.Remove(wavPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("remove intermediate wav failed", logging.Error(err))
		}
	}()

	if err := s.run(runCtx, "transcribe", UVXCommand, s.buildArgs(wavPath, outputDir)); err != nil {
		return result, err
	}

	wavStem := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	result.VTTPath = filepath.Join(outputDir, wavStem+".vtt")
	result.JSONPath = filepath.Join(outputDir, wavStem+".json")
	if wavStem != stem {
		renamed := filepath.Join(outputDir, stem+".vtt")
		if err := os.Rename(result.VTTPath, renamed); err == nil {
			result.VTTPath = renamed
		}
	}
	if info, err := os.Stat(result.VTTPath); err != nil || !info.Mode().IsRegular() {
		return Result{}, services.Wrap(services.ErrNoOutput, "transcription", "locate output", "Transcription produced no output.", err)
	}

	if lang, err := DetectedLanguage(result.JSONPath); err == nil {
		result.Language = lang
	} else {
		logger.Debug("whisperx language unavailable", logging.Error(err))
	}

	logger.Info("transcription complete",
		logging.String("model", s.Model()),
		logging.String("language", result.Language),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return result, nil
}

func (s *Service) run(ctx context.Context, op, name string, args []string) error {
	output, err := s.runner(ctx, name, args...)
	if err == nil {
		return nil
	}
	tool := filepath.Base(name)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.ToolFailure(services.ErrTimeout, tool, op, string(output), fmt.Errorf("timed out after %s", s.cfg.Timeout))
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return services.ToolFailure(services.ErrConfiguration, tool, op, string(output), err)
	}
	return services.ToolFailure(services.ErrExternalTool, tool, op, string(output), err)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.WaitDelay = 5 * time.Second

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return cmd.CombinedOutput()
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 40)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--best_of", BestOf,
		"--temperature", Temperature,
		"--patience", Patience,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

type payload struct {
	Language string `json:"language"`
}

// DetectedLanguage returns the language code recorded in a WhisperX JSON result.
func DetectedLanguage(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", services.Wrap(services.ErrParse, "transcription", "decode result", "parse whisperx json", err)
	}
	return strings.TrimSpace(p.Language), nil
}
