package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"vidfetch/internal/logging"
	"vidfetch/internal/services"
	"vidfetch/internal/staging"
)

const maxErrorMessageLen = 2000

// Manager ties job rows to their directories under the download root.
type Manager struct {
	store  *Store
	root   string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a Manager. A ttl of zero disables Sweep.
func NewManager(store *Store, root string, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		root:   root,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "jobs"),
		now:    time.Now,
	}
}

// Store exposes the underlying job store.
func (m *Manager) Store() *Store {
	return m.store
}

// Root returns the download root.
func (m *Manager) Root() string {
	return m.root
}

// Begin allocates a fresh job directory, records the job, and marks it running.
func (m *Manager) Begin(ctx context.Context, kind Kind, sourceURL string) (*Job, error) {
	id, dir, err := staging.NewJobDir(m.root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "allocate directory", "", err)
	}
	job := &Job{
		ID:        id,
		Kind:      kind,
		Status:    StatusCreated,
		SourceURL: sourceURL,
		Dir:       dir,
	}
	if err := m.store.Create(ctx, job); err != nil {
		_ = os.RemoveAll(dir)
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "record job", "", err)
	}
	job.Status = StatusRunning
	if err := m.store.Update(ctx, job); err != nil {
		_ = os.RemoveAll(dir)
		_, _ = m.store.Delete(ctx, id)
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "start job", "", err)
	}
	logging.WithContext(services.WithJobID(ctx, id), m.logger).Info("job started",
		logging.String("kind", string(kind)),
		logging.String(logging.FieldEventType, "job_started"),
	)
	return job, nil
}

// Complete marks the job finished with the produced file.
func (m *Manager) Complete(ctx context.Context, job *Job, file string) error {
	job.Status = StatusComplete
	job.OutputFile = file
	job.ErrorMessage = ""
	if err := m.store.Update(ctx, job); err != nil {
		return services.Wrap(services.ErrConfiguration, "jobs", "complete job", "", err)
	}
	logging.WithContext(services.WithJobID(ctx, job.ID), m.logger).Info("job complete",
		logging.String("kind", string(job.Kind)),
		logging.String("file", file),
		logging.Duration("elapsed", job.UpdatedAt.Sub(job.CreatedAt).Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "job_complete"),
	)
	return nil
}

// Fail records cause on the job. Persisting the failure is best effort; the
// original cause is what callers report.
func (m *Manager) Fail(ctx context.Context, job *Job, cause error) {
	if job == nil {
		return
	}
	job.Status = StatusFailed
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	job.ErrorMessage = truncateMessage(msg, maxErrorMessageLen)
	logger := logging.WithContext(services.WithJobID(ctx, job.ID), m.logger)
	if err := m.store.Update(ctx, job); err != nil {
		logger.Error("failed to record job failure", logging.Error(err), logging.String(logging.FieldEventType, "job_update_failed"))
	}
	logger.Info("job failed",
		logging.String("kind", string(job.Kind)),
		logging.Error(cause),
		logging.String(logging.FieldEventType, "job_failed"),
	)
}

// Get returns the job with id, or services.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Job, error) {
	if !staging.ValidJobID(id) {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "get", fmt.Sprintf("job %q not found", id), nil)
	}
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "get", fmt.Sprintf("job %q not found", id), nil)
	}
	return job, nil
}

// Remove deletes a finished job's directory and row. Running jobs are
// rejected with services.ErrConflict.
func (m *Manager) Remove(ctx context.Context, id string) error {
	job, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if !job.Status.IsTerminal() {
		return services.Wrap(services.ErrConflict, "jobs", "remove", fmt.Sprintf("job %s is still %s", id, job.Status), nil)
	}
	return m.purge(ctx, job)
}

func (m *Manager) purge(ctx context.Context, job *Job) error {
	if err := os.RemoveAll(staging.JobDir(m.root, job.ID)); err != nil {
		return fmt.Errorf("remove job directory: %w", err)
	}
	if _, err := m.store.Delete(ctx, job.ID); err != nil {
		return err
	}
	return nil
}

// SweepResult summarizes one retention pass.
type SweepResult struct {
	Expired   int
	Abandoned int
	Orphans   int
	Errors    []error
}

// Sweep removes finished jobs older than the TTL, running jobs older than
// twice the TTL, and untracked directories older than the TTL.
func (m *Manager) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	if m.ttl <= 0 {
		return result, nil
	}
	now := m.now()

	expired, err := m.store.ListExpired(ctx, now.Add(-m.ttl), StatusComplete, StatusFailed)
	if err != nil {
		return result, err
	}
	for _, job := range expired {
		if err := m.purge(ctx, job); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Expired++
	}

	abandoned, err := m.store.ListExpired(ctx, now.Add(-2*m.ttl), StatusCreated, StatusRunning)
	if err != nil {
		return result, err
	}
	for _, job := range abandoned {
		if err := m.purge(ctx, job); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Abandoned++
	}

	ids, err := m.store.IDs(ctx)
	if err != nil {
		return result, err
	}
	cleaned := staging.CleanStale(ctx, m.root, m.ttl, ids, m.logger)
	result.Orphans = len(cleaned.Removed)
	for _, cerr := range cleaned.Errors {
		result.Errors = append(result.Errors, fmt.Errorf("%s: %w", cerr.Path, cerr.Error))
	}

	if result.Expired+result.Abandoned+result.Orphans > 0 || len(result.Errors) > 0 {
		m.logger.Info("retention sweep finished",
			logging.Int("expired", result.Expired),
			logging.Int("abandoned", result.Abandoned),
			logging.Int("orphans", result.Orphans),
			logging.Int("errors", len(result.Errors)),
			logging.String(logging.FieldEventType, "retention_sweep"),
		)
	}
	return result, errors.Join(result.Errors...)
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(m.logger, "retention sweep incomplete", "retention_sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check download_dir permissions"),
				logging.String(logging.FieldImpact, "expired files remain on disk"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RecoverInterrupted fails jobs a previous process left unfinished.
func (m *Manager) RecoverInterrupted(ctx context.Context) (int64, error) {
	n, err := m.store.FailRunning(ctx, ServerStopReason)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info("marked interrupted jobs failed",
			logging.Int64("count", n),
			logging.String(logging.FieldEventType, "job_recovery"),
		)
	}
	return n, nil
}

// DescribeError renders a stored error message for CLI display.
func DescribeError(job *Job) string {
	if job == nil {
		return ""
	}
	return strings.TrimSpace(job.ErrorMessage)
}

// truncateMessage cuts msg to at most limit bytes on a rune boundary.
func truncateMessage(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
