package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusCreated  Status = "created"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Kind identifies which pipeline produced a job.
type Kind string

const (
	KindVideo         Kind = "video"
	KindSubtitle      Kind = "subtitle"
	KindTranslation   Kind = "translation"
	KindTranscription Kind = "transcription"
)

// ServerStopReason is recorded on jobs still running when a new server starts.
const ServerStopReason = "Server stopped before the job finished"

var allStatuses = []Status{StatusCreated, StatusRunning, StatusComplete, StatusFailed}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a user-provided string to a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Job is one request's isolated unit of work and its directory.
type Job struct {
	ID           string    `json:"job_id"`
	Kind         Kind      `json:"kind"`
	Status       Status    `json:"status"`
	SourceURL    string    `json:"source_url"`
	Dir          string    `json:"-"`
	OutputFile   string    `json:"output_file,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
