package captions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vidfetch/internal/fileutil"
	"vidfetch/internal/jobs"
	"vidfetch/internal/language"
	"vidfetch/internal/logging"
	"vidfetch/internal/metadata"
	"vidfetch/internal/services"
	"vidfetch/internal/services/whisperx"
	"vidfetch/internal/services/ytdlp"
	"vidfetch/internal/staging"
	"vidfetch/internal/textutil"
)

// TrackSource writes one caption track into a directory and returns the
// backend diagnostics.
type TrackSource interface {
	FetchCaptions(ctx context.Context, req ytdlp.CaptionRequest) (string, error)
}

// AudioSource downloads the best audio stream of a video.
type AudioSource interface {
	FetchAudio(ctx context.Context, url, outputTemplate string) error
}

// Transcriber produces a WebVTT caption from an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir string) (whisperx.Result, error)
}

// Backends groups the collaborators a Pipeline drives. Translator may be nil,
// in which case every translating entry point fails with a configuration error.
type Backends struct {
	Tracks      TrackSource
	Audio       AudioSource
	Transcriber Transcriber
	Translator  Translator
}

// Pipeline runs caption jobs, each in its own job directory.
type Pipeline struct {
	backends Backends
	jobs     *jobs.Manager
	logger   *slog.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(backends Backends, manager *jobs.Manager, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		backends: backends,
		jobs:     manager,
		logger:   logging.NewComponentLogger(logger, "captions"),
	}
}

// TranslationEnabled reports whether a translator is configured.
func (p *Pipeline) TranslationEnabled() bool {
	return p.backends.Translator != nil
}

// Result points at a produced caption file.
type Result struct {
	JobID       string `json:"job_id"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
	SourceLang  string `json:"source_lang,omitempty"`
	Stats       *Stats `json:"stats,omitempty"`
}

// TrackRequest selects an existing caption track.
type TrackRequest struct {
	URL   string
	Lang  string
	Auto  bool
	Title string
}

// TranslateRequest selects an existing track and a target language.
type TranslateRequest struct {
	URL        string
	SourceLang string
	TargetLang string
	Auto       bool
	Title      string
}

// GenerateRequest asks for a transcription of the audio, translated to TargetLang.
type GenerateRequest struct {
	URL        string
	TargetLang string
	Title      string
}

const fallbackStem = "subtitle"

// FetchTrack downloads one caption track as WebVTT.
func (p *Pipeline) FetchTrack(ctx context.Context, req TrackRequest) (*Result, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	lang, err := validateLang(req.Lang, "URL and language code are required")
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	job, err := p.jobs.Begin(ctx, jobs.KindSubtitle, req.URL)
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, job.ID)

	name, err := p.fetchTrack(ctx, job.Dir, req.URL, lang, req.Auto, textutil.SanitizeOr(req.Title, fallbackStem))
	if err != nil {
		p.jobs.Fail(ctx, job, err)
		return nil, err
	}
	return p.complete(ctx, job, name, &Result{})
}

// TranslateTrack downloads an existing track and translates it.
func (p *Pipeline) TranslateTrack(ctx context.Context, req TranslateRequest) (*Result, error) {
	if err := p.requireTranslator(); err != nil {
		return nil, err
	}
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	const missing = "URL, source language, and target language are required"
	source, err := validateLang(req.SourceLang, missing)
	if err != nil {
		return nil, err
	}
	target, err := validateLang(req.TargetLang, missing)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	job, err := p.jobs.Begin(ctx, jobs.KindTranslation, req.URL)
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, job.ID)

	name, err := p.fetchTrack(ctx, job.Dir, req.URL, source, req.Auto, textutil.SanitizeOr(req.Title, fallbackStem))
	if err != nil {
		p.jobs.Fail(ctx, job, err)
		return nil, err
	}
	out, stats, err := p.translateFile(ctx, filepath.Join(job.Dir, name), source, target)
	if err != nil {
		p.jobs.Fail(ctx, job, err)
		return nil, err
	}
	return p.complete(ctx, job, out, &Result{SourceLang: source, Stats: &stats})
}

// GenerateTranslation transcribes the video's audio and translates the result.
func (p *Pipeline) GenerateTranslation(ctx context.Context, req GenerateRequest) (*Result, error) {
	if err := p.requireTranslator(); err != nil {
		return nil, err
	}
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	target, err := validateLang(req.TargetLang, "URL and target language are required")
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	job, err := p.jobs.Begin(ctx, jobs.KindTranscription, req.URL)
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, job.ID)
	fail := func(err error) (*Result, error) {
		p.jobs.Fail(ctx, job, err)
		return nil, err
	}

	stem := textutil.SanitizeOr(req.Title, fallbackStem)
	if err := p.backends.Audio.FetchAudio(ctx, req.URL, ytdlp.OutputTemplate(job.Dir, stem)); err != nil {
		return fail(services.Public(err, audioFailureMessage(err)))
	}
	audioName, err := staging.FindOutput(job.Dir, staging.MediaExtensions)
	if err != nil {
		return fail(services.Public(err, "Audio download failed, no file found."))
	}

	transcript, err := p.backends.Transcriber.Transcribe(ctx, filepath.Join(job.Dir, audioName), job.Dir)
	if err != nil {
		return fail(services.Public(err, transcriptionFailureMessage(err)))
	}
	source := language.Auto
	if detected, ok := language.Normalize(transcript.Language); ok {
		source = detected
	}

	out, stats, err := p.translateFile(ctx, transcript.VTTPath, source, target)
	if err != nil {
		return fail(err)
	}
	return p.complete(ctx, job, out, &Result{SourceLang: source, Stats: &stats})
}

// TranslateFile translates an existing caption file and writes the result
// next to it as <stem>.<source>-<target><ext>. It returns the new file name.
func (p *Pipeline) TranslateFile(ctx context.Context, path, source, target string) (string, error) {
	if err := p.requireTranslator(); err != nil {
		return "", err
	}
	name, _, err := p.translateFile(ctx, path, source, target)
	return name, err
}

func (p *Pipeline) translateFile(ctx context.Context, path, source, target string) (string, Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", Stats{}, services.Public(services.Wrap(services.ErrNoOutput, "captions", "read track", "", err), "Caption file not found.")
		}
		return "", Stats{}, services.Wrap(services.ErrExternalTool, "captions", "read track", "", err)
	}

	doc := Parse(string(data))
	translated, stats := TranslateDocument(ctx, doc, p.backends.Translator, source, target, p.logger)

	name := TranslatedName(filepath.Base(path), source, target)
	dest := filepath.Join(filepath.Dir(path), name)
	if err := fileutil.WriteFileAtomic(dest, []byte(translated.String()), 0o644); err != nil {
		return "", stats, services.Wrap(services.ErrExternalTool, "captions", "write translation", "", err)
	}

	logging.WithContext(ctx, p.logger).Info("caption translated",
		logging.String("file", name),
		logging.String("source", source),
		logging.String("target", target),
		logging.Int("lines", stats.Lines),
		logging.Int("translated", stats.Translated),
		logging.Int("fallback", stats.Fallback),
	)
	return name, stats, nil
}

// TranslatedName derives the output name for a translation of name. A
// trailing ".<source>" language suffix on the stem is replaced by the pair.
func TranslatedName(name, source, target string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	stem = strings.TrimSuffix(stem, "."+source)
	if stem == "" {
		stem = fallbackStem
	}
	return fmt.Sprintf("%s.%s-%s%s", stem, source, target, ext)
}

func (p *Pipeline) fetchTrack(ctx context.Context, dir, url, lang string, auto bool, stem string) (string, error) {
	diag, err := p.backends.Tracks.FetchCaptions(ctx, ytdlp.CaptionRequest{
		URL:            url,
		Lang:           lang,
		Auto:           auto,
		OutputTemplate: ytdlp.OutputTemplate(dir, stem),
	})
	if err != nil {
		return "", services.Public(err, trackFailureMessage(err, lang))
	}
	name, err := staging.FindOutput(dir, staging.CaptionExtensions)
	if err == nil {
		return name, nil
	}
	if ytdlp.MissingCaptions(diag) {
		return "", services.Public(
			services.Wrap(services.ErrNoCaptions, "captions", "fetch track", lang, nil),
			noCaptionsMessage(lang),
		)
	}
	return "", services.Public(err, "Subtitle download failed, no file found.")
}

func (p *Pipeline) complete(ctx context.Context, job *jobs.Job, name string, res *Result) (*Result, error) {
	if err := p.jobs.Complete(ctx, job, name); err != nil {
		return nil, err
	}
	res.JobID = job.ID
	res.FileName = name
	res.DownloadURL = staging.ServePath(job.ID, name)
	return res, nil
}

func (p *Pipeline) requireTranslator() error {
	if p.backends.Translator == nil {
		return services.Public(
			services.Wrap(services.ErrConfiguration, "captions", "translate", "no translator configured", nil),
			"Translation backend is not configured.",
		)
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return services.Public(services.Wrap(services.ErrValidation, "captions", "validate", "url required", nil), "URL is required")
	}
	if !metadata.ValidURL(raw) {
		return services.Public(services.Wrap(services.ErrValidation, "captions", "validate", "unsupported host", nil), metadata.InvalidURLMessage)
	}
	return nil
}

func validateLang(code, missing string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", services.Public(services.Wrap(services.ErrValidation, "captions", "validate", "language required", nil), missing)
	}
	lang, ok := language.Normalize(code)
	if !ok {
		return "", services.Public(
			services.Wrap(services.ErrValidation, "captions", "validate", fmt.Sprintf("invalid language %q", code), nil),
			fmt.Sprintf("Invalid language code: %s", code),
		)
	}
	return lang, nil
}

func noCaptionsMessage(lang string) string {
	return "No subtitles available for language: " + lang
}

func trackFailureMessage(err error, lang string) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "Subtitle download timed out."
	case errors.Is(err, services.ErrNoCaptions):
		return noCaptionsMessage(lang)
	case errors.Is(err, services.ErrAccessDenied):
		return "Access denied (403). The video might be private or require login."
	case errors.Is(err, services.ErrConfiguration):
		return "yt-dlp is not available on the server."
	default:
		return "yt-dlp subtitle download error: " + services.ToolOutput(err)
	}
}

func audioFailureMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "Audio download timed out."
	case errors.Is(err, services.ErrAccessDenied):
		return "Access denied (403). The video might be private or require login."
	case errors.Is(err, services.ErrConfiguration):
		return "yt-dlp is not available on the server."
	default:
		return "yt-dlp audio download error: " + services.ToolOutput(err)
	}
}

func transcriptionFailureMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "Transcription timed out."
	case errors.Is(err, services.ErrNoOutput):
		return "Transcription produced no output."
	case errors.Is(err, services.ErrConfiguration):
		return "Transcription backend is not available on the server."
	default:
		return "Transcription failed: " + services.ToolOutput(err)
	}
}
