package jobs

import (
	"context"
	"fmt"
	"time"
)

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ListExpired returns jobs in the given statuses whose last update is before
// cutoff.
func (s *Store) ListExpired(ctx context.Context, cutoff time.Time, statuses ...Status) ([]*Job, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE updated_at < ? AND status IN (`
	args := []any{formatTime(cutoff)}
	for i, status := range statuses {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, string(status))
	}
	query += `) ORDER BY updated_at`
	return s.queryJobs(ctx, query, args...)
}

// FailRunning marks every created or running job failed with reason. It is
// used at startup, when no job from a previous process can still be running.
func (s *Store) FailRunning(ctx context.Context, reason string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE status IN (?, ?)`,
		string(StatusFailed),
		reason,
		formatTime(time.Now()),
		string(StatusCreated),
		string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("fail running jobs: %w", err)
	}
	return res.RowsAffected()
}

// IDs returns the set of known job identifiers.
func (s *Store) IDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("list job ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
