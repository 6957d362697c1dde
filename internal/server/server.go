package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"vidfetch/internal/config"
	"vidfetch/internal/jobs"
	"vidfetch/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server runs the HTTP API and the retention sweeper for one download root.
type Server struct {
	cfg     *config.Config
	jobs    *jobs.Manager
	logger  *slog.Logger
	handler http.Handler

	lock    *flock.Flock
	running atomic.Bool
	addr    atomic.Value
}

// New constructs a Server. Run acquires the state directory lock.
func New(cfg *config.Config, manager *jobs.Manager, svc Services, logger *slog.Logger) (*Server, error) {
	if cfg == nil || manager == nil {
		return nil, errors.New("server requires config and job manager")
	}
	if svc.Resolver == nil || svc.Downloader == nil || svc.Captions == nil {
		return nil, errors.New("server requires resolver, downloader and caption services")
	}
	return &Server{
		cfg:     cfg,
		jobs:    manager,
		logger:  logging.NewComponentLogger(logger, "server"),
		handler: newRouter(cfg, manager, svc, logger),
		lock:    flock.New(cfg.LockPath()),
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound listener address once Run is serving.
func (s *Server) Addr() string {
	if v, ok := s.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Run serves until ctx is cancelled, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("server already running")
	}
	defer s.running.Store(false)

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another vidfetch server is already using %s", s.cfg.Paths.StateDir)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	if _, err := s.jobs.RecoverInterrupted(ctx); err != nil {
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	if ttl := s.cfg.JobTTL(); ttl > 0 {
		go s.jobs.RunSweeper(sweepCtx, s.cfg.SweepInterval())
		s.logger.Info("retention sweeper started",
			logging.Duration("ttl", ttl),
			logging.Duration("interval", s.cfg.SweepInterval()),
		)
	}

	listener, err := net.Listen("tcp", s.cfg.API.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.addr.Store(listener.Addr().String())

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()
	s.logger.Info("vidfetch server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("download_dir", s.cfg.Paths.DownloadDir),
		logging.String("lock", s.cfg.LockPath()),
	)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
	<-serveErr
	s.logger.Info("vidfetch server stopped")
	return nil
}
