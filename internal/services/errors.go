package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrParse         = errors.New("parse error")
	ErrAccessDenied  = errors.New("access denied")
	ErrUnsupported   = errors.New("unsupported url")
	ErrUnavailable   = errors.New("video unavailable")
	ErrNoCaptions    = errors.New("no captions for language")
	ErrNoOutput      = errors.New("no output produced")
	ErrPathEscape    = errors.New("path escapes job directory")
	ErrConflict      = errors.New("conflict")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ToolError records a failed external tool invocation together with the
// diagnostic output it produced.
type ToolError struct {
	Marker error
	Tool   string
	Op     string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	detail := buildDetail(e.Tool, e.Op, "")
	msg := detail
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", detail, e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = fmt.Sprintf("%s: %s", msg, out)
	}
	return msg
}

func (e *ToolError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Marker != nil {
		out = append(out, e.Marker)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// ToolFailure wraps a tool failure with its marker and captured diagnostics.
func ToolFailure(marker error, tool, op, output string, err error) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &ToolError{Marker: marker, Tool: tool, Op: op, Output: strings.TrimSpace(output), Err: err}
}

// ToolOutput returns the diagnostic output attached to err, if any.
func ToolOutput(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Output
	}
	return ""
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// PublicError attaches a client-facing message to err. The HTTP layer shows
// Message verbatim and classifies the response through the wrapped markers.
type PublicError struct {
	Message string
	Err     error
}

func (e *PublicError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *PublicError) Unwrap() error {
	return e.Err
}

// Public wraps err with a client-facing message. A nil err stays nil.
func Public(err error, message string) error {
	if err == nil {
		return nil
	}
	return &PublicError{Message: message, Err: err}
}

// PublicMessage returns the outermost client-facing message attached to err.
func PublicMessage(err error) (string, bool) {
	var pub *PublicError
	if errors.As(err, &pub) && strings.TrimSpace(pub.Message) != "" {
		return pub.Message, true
	}
	return "", false
}
