package services_test

import (
	"errors"
	"strings"
	"testing"

	"vidfetch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "download", "mux", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"download", "mux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestToolFailureCarriesOutput(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.ToolFailure(services.ErrAccessDenied, "yt-dlp", "download", "  ERROR: HTTP Error 403: Forbidden\n", base)
	wrapped := services.Wrap(services.ErrAccessDenied, "download", "fetch", "", err)

	if !errors.Is(wrapped, services.ErrAccessDenied) {
		t.Fatalf("expected access denied marker, got %v", wrapped)
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("expected base error in chain, got %v", wrapped)
	}
	if got := services.ToolOutput(wrapped); got != "ERROR: HTTP Error 403: Forbidden" {
		t.Fatalf("unexpected tool output %q", got)
	}
	if !strings.Contains(err.Error(), "yt-dlp: download") {
		t.Fatalf("expected tool and op in message, got %q", err.Error())
	}
}

func TestToolOutputWithoutToolError(t *testing.T) {
	if got := services.ToolOutput(errors.New("plain")); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestPublicMessageKeepsMarkers(t *testing.T) {
	cause := services.ToolFailure(services.ErrTimeout, "yt-dlp", "download", "", errors.New("timed out"))
	err := services.Public(cause, "Download timed out.")

	msg, ok := services.PublicMessage(err)
	if !ok || msg != "Download timed out." {
		t.Fatalf("unexpected public message %q (ok=%v)", msg, ok)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker through public wrapper, got %v", err)
	}
	if services.Public(nil, "ignored") != nil {
		t.Fatal("expected nil error to stay nil")
	}
	if _, ok := services.PublicMessage(cause); ok {
		t.Fatal("expected no public message on bare tool error")
	}
}
