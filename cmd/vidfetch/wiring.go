package main

import (
	"log/slog"
	"time"

	"vidfetch/internal/captions"
	"vidfetch/internal/config"
	"vidfetch/internal/download"
	"vidfetch/internal/jobs"
	"vidfetch/internal/metadata"
	"vidfetch/internal/server"
	"vidfetch/internal/services/llm"
	"vidfetch/internal/services/whisperx"
	"vidfetch/internal/services/ytdlp"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func newYtDLP(cfg *config.Config, logger *slog.Logger) *ytdlp.Client {
	return ytdlp.New(ytdlp.Config{
		Binary:          cfg.YtDLP.Binary,
		MetadataTimeout: seconds(cfg.YtDLP.MetadataTimeout),
		CaptionTimeout:  seconds(cfg.YtDLP.CaptionTimeout),
		AudioTimeout:    seconds(cfg.YtDLP.AudioTimeout),
		DownloadTimeout: seconds(cfg.YtDLP.DownloadTimeout),
	}, logger)
}

func newTranscriber(cfg *config.Config, logger *slog.Logger) *whisperx.Service {
	return whisperx.NewService(whisperx.Config{
		Model:        cfg.Transcription.WhisperXModel,
		CUDAEnabled:  cfg.Transcription.CUDAEnabled,
		VADMethod:    cfg.Transcription.VADMethod,
		HFToken:      cfg.Transcription.HFToken,
		Timeout:      seconds(cfg.Transcription.Timeout),
		FFmpegBinary: cfg.FFmpegBinary(),
	}, logger)
}

// newTranslator returns nil when no API key is configured. The nil check
// happens here so the pipeline never holds a non-nil interface wrapping a nil
// client.
func newTranslator(cfg *config.Config, opts ...llm.Option) captions.Translator {
	if !cfg.TranslationEnabled() {
		return nil
	}
	return llm.NewClient(llm.Config{
		APIKey:         cfg.Translation.APIKey,
		BaseURL:        cfg.Translation.BaseURL,
		Model:          cfg.Translation.Model,
		Referer:        cfg.Translation.Referer,
		Title:          cfg.Translation.Title,
		TimeoutSeconds: cfg.Translation.TimeoutSeconds,
	}, opts...)
}

func newPipeline(cfg *config.Config, manager *jobs.Manager, logger *slog.Logger) *captions.Pipeline {
	yt := newYtDLP(cfg, logger)
	return captions.NewPipeline(captions.Backends{
		Tracks:      yt,
		Audio:       yt,
		Transcriber: newTranscriber(cfg, logger),
		Translator:  newTranslator(cfg),
	}, manager, logger)
}

func newServices(cfg *config.Config, manager *jobs.Manager, logger *slog.Logger) server.Services {
	yt := newYtDLP(cfg, logger)
	return server.Services{
		Resolver:   metadata.NewResolver(yt, logger),
		Downloader: download.NewOrchestrator(yt, manager, logger),
		Captions:   newPipeline(cfg, manager, logger),
	}
}
