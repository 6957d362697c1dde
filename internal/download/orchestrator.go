package download

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"vidfetch/internal/jobs"
	"vidfetch/internal/logging"
	"vidfetch/internal/metadata"
	"vidfetch/internal/services"
	"vidfetch/internal/services/ytdlp"
	"vidfetch/internal/staging"
	"vidfetch/internal/textutil"
)

// Backend fetches a format selection and muxes it into outputTemplate.
type Backend interface {
	Download(ctx context.Context, url, selector, outputTemplate string) error
}

// Request selects one format of a video. HasAudio is the client's claim that
// the format already carries audio; nil means unknown.
type Request struct {
	URL      string
	FormatID string
	Title    string
	HasAudio *bool
}

// Result points at the produced file.
type Result struct {
	JobID       string `json:"job_id"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
}

// Orchestrator runs one download per job directory.
type Orchestrator struct {
	backend Backend
	jobs    *jobs.Manager
	logger  *slog.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(backend Backend, manager *jobs.Manager, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		jobs:    manager,
		logger:  logging.NewComponentLogger(logger, "download"),
	}
}

const fallbackStem = "video"

var formatIDPattern = regexp.MustCompile(`^[A-Za-z0-9._+-]{1,64}$`)

// Download validates req, runs the backend in a fresh job directory, and
// returns the produced media file.
func (o *Orchestrator) Download(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	// A started job runs to completion even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	job, err := o.jobs.Begin(ctx, jobs.KindVideo, req.URL)
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, o.logger)

	stem := textutil.SanitizeOr(req.Title, fallbackStem)
	hasAudio := req.HasAudio != nil && *req.HasAudio
	selector := ytdlp.FormatSelector(req.FormatID, hasAudio)
	logger.Info("download starting",
		logging.String("format_id", req.FormatID),
		logging.String("selector", selector),
		logging.String("file_stem", stem),
	)

	if err := o.backend.Download(ctx, req.URL, selector, ytdlp.OutputTemplate(job.Dir, stem)); err != nil {
		o.jobs.Fail(ctx, job, err)
		return nil, services.Public(err, downloadFailureMessage(err))
	}

	name, err := staging.FindOutput(job.Dir, staging.MediaExtensions)
	if err != nil {
		o.jobs.Fail(ctx, job, err)
		return nil, services.Public(err, "Download failed, no file found.")
	}
	if err := o.jobs.Complete(ctx, job, name); err != nil {
		return nil, err
	}
	return &Result{
		JobID:       job.ID,
		FileName:    name,
		DownloadURL: staging.ServePath(job.ID, name),
	}, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.FormatID) == "" {
		return services.Public(services.Wrap(services.ErrValidation, "download", "validate", "url and format id required", nil), "URL and format ID are required")
	}
	if !metadata.ValidURL(req.URL) {
		return services.Public(services.Wrap(services.ErrValidation, "download", "validate", "unsupported host", nil), metadata.InvalidURLMessage)
	}
	if !formatIDPattern.MatchString(req.FormatID) {
		return services.Public(services.Wrap(services.ErrValidation, "download", "validate", "malformed format id", nil), "Invalid format ID.")
	}
	return nil
}

func downloadFailureMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "Download timed out. The video might be too large or the connection slow."
	case errors.Is(err, services.ErrAccessDenied):
		return "Access denied (403). The video might be private or require login."
	case errors.Is(err, services.ErrConfiguration):
		return "yt-dlp is not available on the server."
	default:
		return "yt-dlp download error: " + services.ToolOutput(err)
	}
}
