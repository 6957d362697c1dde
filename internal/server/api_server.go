package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"vidfetch/internal/captions"
	"vidfetch/internal/config"
	"vidfetch/internal/deps"
	"vidfetch/internal/download"
	"vidfetch/internal/jobs"
	"vidfetch/internal/logging"
	"vidfetch/internal/metadata"
	"vidfetch/internal/preflight"
	"vidfetch/internal/services"
	"vidfetch/internal/staging"
)

// VideoResolver resolves a URL into its formats and caption tracks.
type VideoResolver interface {
	Resolve(ctx context.Context, url string) (*metadata.Video, error)
}

// VideoDownloader downloads one selected format.
type VideoDownloader interface {
	Download(ctx context.Context, req download.Request) (*download.Result, error)
}

// CaptionService fetches, transcribes and translates caption tracks.
type CaptionService interface {
	FetchTrack(ctx context.Context, req captions.TrackRequest) (*captions.Result, error)
	TranslateTrack(ctx context.Context, req captions.TranslateRequest) (*captions.Result, error)
	GenerateTranslation(ctx context.Context, req captions.GenerateRequest) (*captions.Result, error)
}

// Services groups the domain entry points the handlers call.
type Services struct {
	Resolver   VideoResolver
	Downloader VideoDownloader
	Captions   CaptionService
}

const rootBanner = "Video Downloader Backend is running!"

type apiServer struct {
	cfg      *config.Config
	jobs     *jobs.Manager
	services Services
	logger   *slog.Logger
}

func newRouter(cfg *config.Config, manager *jobs.Manager, svc Services, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	s := &apiServer{
		cfg:      cfg,
		jobs:     manager,
		services: svc,
		logger:   logging.NewComponentLogger(logger, "api-server"),
	}

	router := gin.New()
	router.Use(recovery(s.logger), requestID(), accessLog(s.logger), cors(cfg.API.AllowedOrigins))

	router.GET("/", s.handleRoot)
	router.OPTIONS("/api/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := router.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/video-info", s.handleVideoInfo)
	api.POST("/download-video", s.handleDownloadVideo)
	api.POST("/download-subtitle", s.handleDownloadSubtitle)
	api.POST("/translate-subtitle", s.handleTranslateSubtitle)
	api.POST("/generate-translation", s.handleGenerateTranslation)
	api.GET("/jobs/:id", s.handleGetJob)
	api.DELETE("/jobs/:id", s.handleDeleteJob)
	api.GET("/serve/:job/*filename", s.handleServe)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	})
	return router
}

func (s *apiServer) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, rootBanner)
}

type statusResponse struct {
	Running      bool                `json:"running"`
	PID          int                 `json:"pid"`
	DatabasePath string              `json:"database_path"`
	LockPath     string              `json:"lock_path"`
	Dependencies []deps.Status       `json:"dependencies"`
	Directories  []preflight.Result  `json:"directories"`
	Translation  preflight.Result    `json:"translation"`
	Jobs         map[jobs.Status]int `json:"jobs"`
}

func (s *apiServer) handleStatus(c *gin.Context) {
	counts, err := s.jobs.Store().Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		Running:      true,
		PID:          os.Getpid(),
		DatabasePath: s.cfg.DatabasePath(),
		LockPath:     s.cfg.LockPath(),
		Dependencies: preflight.CheckSystemDeps(s.cfg),
		Directories:  preflight.CheckDirectories(s.cfg),
		Translation:  preflight.TranslationStatus(s.cfg),
		Jobs:         counts,
	})
}

type videoInfoRequest struct {
	URL string `json:"url"`
}

func (s *apiServer) handleVideoInfo(c *gin.Context) {
	var req videoInfoRequest
	if !s.bind(c, &req) {
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}
	if !metadata.ValidURL(url) {
		c.JSON(http.StatusBadRequest, gin.H{"error": metadata.InvalidURLMessage})
		return
	}
	video, err := s.services.Resolver.Resolve(c.Request.Context(), url)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

type downloadVideoRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id"`
	Title    string `json:"title"`
	HasAudio *bool  `json:"has_audio"`
}

func (s *apiServer) handleDownloadVideo(c *gin.Context) {
	var req downloadVideoRequest
	if !s.bind(c, &req) {
		return
	}
	result, err := s.services.Downloader.Download(c.Request.Context(), download.Request{
		URL:      req.URL,
		FormatID: req.FormatID,
		Title:    req.Title,
		HasAudio: req.HasAudio,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": result.DownloadURL, "job_id": result.JobID})
}

type subtitleRequest struct {
	URL    string `json:"url"`
	Lang   string `json:"lang"`
	IsAuto bool   `json:"is_auto"`
	Title  string `json:"title"`
}

func (s *apiServer) handleDownloadSubtitle(c *gin.Context) {
	var req subtitleRequest
	if !s.bind(c, &req) {
		return
	}
	result, err := s.services.Captions.FetchTrack(c.Request.Context(), captions.TrackRequest{
		URL:   req.URL,
		Lang:  req.Lang,
		Auto:  req.IsAuto,
		Title: req.Title,
	})
	s.writeCaption(c, result, err)
}

type translateSubtitleRequest struct {
	URL        string `json:"url"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	IsAuto     bool   `json:"is_auto"`
	Title      string `json:"title"`
}

func (s *apiServer) handleTranslateSubtitle(c *gin.Context) {
	var req translateSubtitleRequest
	if !s.bind(c, &req) {
		return
	}
	result, err := s.services.Captions.TranslateTrack(c.Request.Context(), captions.TranslateRequest{
		URL:        req.URL,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Auto:       req.IsAuto,
		Title:      req.Title,
	})
	s.writeCaption(c, result, err)
}

type generateTranslationRequest struct {
	URL        string `json:"url"`
	TargetLang string `json:"target_lang"`
	Title      string `json:"title"`
}

func (s *apiServer) handleGenerateTranslation(c *gin.Context) {
	var req generateTranslationRequest
	if !s.bind(c, &req) {
		return
	}
	result, err := s.services.Captions.GenerateTranslation(c.Request.Context(), captions.GenerateRequest{
		URL:        req.URL,
		TargetLang: req.TargetLang,
		Title:      req.Title,
	})
	s.writeCaption(c, result, err)
}

func (s *apiServer) writeCaption(c *gin.Context, result *captions.Result, err error) {
	if err != nil {
		s.writeError(c, err)
		return
	}
	body := gin.H{"download_url": result.DownloadURL, "job_id": result.JobID}
	if result.SourceLang != "" {
		body["source_lang"] = result.SourceLang
	}
	c.JSON(http.StatusOK, body)
}

type jobResponse struct {
	*jobs.Job
	DownloadURL string `json:"download_url,omitempty"`
}

func (s *apiServer) handleGetJob(c *gin.Context) {
	job, err := s.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, jobError(err))
		return
	}
	resp := jobResponse{Job: job}
	if job.Status == jobs.StatusComplete && job.OutputFile != "" {
		resp.DownloadURL = staging.ServePath(job.ID, job.OutputFile)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *apiServer) handleDeleteJob(c *gin.Context) {
	if err := s.jobs.Remove(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, jobError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func jobError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return services.Public(err, "Job not found.")
	case errors.Is(err, services.ErrConflict):
		return services.Public(err, "Job is still running.")
	}
	return err
}

func (s *apiServer) handleServe(c *gin.Context) {
	jobID := c.Param("job")
	name := strings.TrimPrefix(c.Param("filename"), "/")
	path, err := staging.ResolveFile(s.jobs.Root(), jobID, name)
	if err != nil {
		if errors.Is(err, services.ErrPathEscape) {
			logging.WarnWithContext(logging.WithContext(c.Request.Context(), s.logger), "rejected file request", "path_escape",
				logging.String("job", jobID),
				logging.String("filename", name),
				logging.String("client_ip", c.ClientIP()),
				logging.String(logging.FieldErrorHint, "request tried to leave its job directory"),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
		return
	}
	c.FileAttachment(path, name)
}

// bind decodes a JSON body. An empty body decodes to the zero request so
// missing fields get their specific validation message.
func (s *apiServer) bind(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return false
	}
	return true
}

func (s *apiServer) writeError(c *gin.Context, err error) {
	status, message, known := classify(err)
	log := logging.WithContext(c.Request.Context(), s.logger)
	attrs := []logging.Attr{
		logging.String("path", c.Request.URL.Path),
		logging.Int("status", status),
		logging.Error(err),
	}
	if output := services.ToolOutput(err); output != "" {
		attrs = append(attrs, logging.String("tool_output", output))
	}
	switch {
	case !known:
		logging.ErrorWithContext(log, "unexpected request failure", "request_unexpected_error", attrs...)
	case status >= http.StatusInternalServerError:
		logging.WarnWithContext(log, "request failed", "request_failed", attrs...)
	default:
		log.Debug("request rejected", logging.Args(attrs...)...)
	}
	c.JSON(status, gin.H{"error": message})
}
