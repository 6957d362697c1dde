package staging

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"vidfetch/internal/services"
)

// MediaExtensions lists the container extensions a finished download may have.
var MediaExtensions = []string{"mp4", "mkv", "webm", "mov", "m4a", "mp3", "ogg", "opus", "flv", "3gp", "wav", "aac"}

// CaptionExtensions lists the caption formats the pipeline reads and writes.
var CaptionExtensions = []string{"vtt", "srt"}

var partialSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

// NewJobDir allocates a fresh random job identifier and creates its directory
// under root.
func NewJobDir(root string) (string, string, error) {
	id := uuid.New().String()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", "", fmt.Errorf("create download root: %w", err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create job directory: %w", err)
	}
	return id, dir, nil
}

// JobDir returns the directory for jobID without touching the filesystem.
func JobDir(root, jobID string) string {
	return filepath.Join(root, jobID)
}

// ServePrefix is the URL path under which job files are served.
const ServePrefix = "/api/serve/"

// ServePath returns the client-facing download path for a produced file.
func ServePath(jobID, name string) string {
	return ServePrefix + jobID + "/" + url.PathEscape(name)
}

// ValidJobID reports whether id has the canonical job identifier shape.
func ValidJobID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

// ResolveFile maps a client-supplied job id and file name to a path inside
// that job's directory. Anything that could resolve outside the directory is
// rejected with services.ErrPathEscape before the filesystem is consulted.
func ResolveFile(root, jobID, name string) (string, error) {
	if !ValidJobID(jobID) {
		return "", services.Wrap(services.ErrPathEscape, "serve", "resolve", fmt.Sprintf("invalid job id %q", jobID), nil)
	}
	if name == "" || name == "." || name == ".." || filepath.IsAbs(name) || strings.ContainsAny(name, "/\\\x00") {
		return "", services.Wrap(services.ErrPathEscape, "serve", "resolve", fmt.Sprintf("invalid file name %q", name), nil)
	}

	dir := filepath.Clean(JobDir(root, jobID))
	candidate := filepath.Clean(filepath.Join(dir, name))
	rel, err := filepath.Rel(dir, candidate)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", services.Wrap(services.ErrPathEscape, "serve", "resolve", fmt.Sprintf("file name %q escapes job directory", name), nil)
	}

	info, err := os.Lstat(candidate)
	if err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "serve", "resolve", "file not found", err)
		}
		return "", services.Wrap(services.ErrNotFound, "serve", "resolve", "stat file", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", services.Wrap(services.ErrPathEscape, "serve", "resolve", fmt.Sprintf("file %q is a symlink", name), nil)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrNotFound, "serve", "resolve", "not a regular file", nil)
	}
	return candidate, nil
}

// FindOutput returns the name of the produced file in dir whose extension is
// one of exts, ignoring partial download leftovers. When several match, the
// first in name order wins. A directory with no match yields
// services.ErrNoOutput.
func FindOutput(dir string, exts []string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", services.Wrap(services.ErrNoOutput, "output", "list job directory", "", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if hasPartialSuffix(name) {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if slices.Contains(exts, ext) {
			return name, nil
		}
	}
	return "", services.Wrap(services.ErrNoOutput, "output", "locate file", fmt.Sprintf("no %s file in %s", strings.Join(exts, "/"), filepath.Base(dir)), nil)
}

func hasPartialSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
