package ytdlp

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"time"

	"vidfetch/internal/logging"
	"vidfetch/internal/services"
)

type recordedCall struct {
	name string
	args []string
}

func newTestClient(runner Runner) (*Client, *[]recordedCall) {
	calls := &[]recordedCall{}
	client := New(Config{
		Binary:          "yt-dlp-test",
		MetadataTimeout: time.Second,
		CaptionTimeout:  time.Second,
		AudioTimeout:    time.Second,
		DownloadTimeout: time.Second,
	}, logging.NewNop())
	client.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return runner(ctx, name, args...)
	})
	return client, calls
}

func TestDumpJSONArgs(t *testing.T) {
	client, calls := newTestClient(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte(`{"title":"x"}`), nil, nil
	})

	out, err := client.DumpJSON(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("DumpJSON returned error: %v", err)
	}
	if string(out) != `{"title":"x"}` {
		t.Fatalf("unexpected stdout %q", out)
	}
	call := (*calls)[0]
	if call.name != "yt-dlp-test" {
		t.Fatalf("unexpected binary %q", call.name)
	}
	for _, want := range []string{"--dump-json", "--skip-download", "--no-playlist"} {
		if !slices.Contains(call.args, want) {
			t.Fatalf("expected %s in args %v", want, call.args)
		}
	}
	if call.args[len(call.args)-1] != "https://youtu.be/abc" || call.args[len(call.args)-2] != "--" {
		t.Fatalf("expected url after option terminator, got %v", call.args)
	}
}

func TestRunTimeoutIsClassified(t *testing.T) {
	client, _ := newTestClient(func(ctx context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	})
	client.cfg.MetadataTimeout = 20 * time.Millisecond

	_, err := client.DumpJSON(context.Background(), "https://youtu.be/abc")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestRunIgnoresCallerCancellation(t *testing.T) {
	client, _ := newTestClient(func(ctx context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(30 * time.Millisecond):
			return []byte("{}"), nil, nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.DumpJSON(ctx, "https://youtu.be/abc"); err != nil {
		t.Fatalf("expected invocation to finish despite cancelled caller, got %v", err)
	}
}

func TestRunFailureCarriesStderr(t *testing.T) {
	tests := []struct {
		stderr string
		marker error
	}{
		{"ERROR: Unsupported URL: https://youtube.com/foo", services.ErrUnsupported},
		{"ERROR: [youtube] abc: Video unavailable", services.ErrUnavailable},
		{"ERROR: unable to download video data: HTTP Error 403: Forbidden", services.ErrAccessDenied},
		{"ERROR: [youtube] abc: Sign in to confirm your age", services.ErrAccessDenied},
		{"ERROR: something else broke", services.ErrExternalTool},
	}
	for _, tt := range tests {
		t.Run(tt.stderr, func(t *testing.T) {
			client, _ := newTestClient(func(context.Context, string, ...string) ([]byte, []byte, error) {
				return nil, []byte(tt.stderr + "\n"), errors.New("exit status 1")
			})
			err := client.Download(context.Background(), "https://youtu.be/abc", "22", "/tmp/x.%(ext)s")
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
			if services.ToolOutput(err) != tt.stderr {
				t.Fatalf("expected stderr to be attached, got %q", services.ToolOutput(err))
			}
		})
	}
}

func TestMissingBinaryIsConfigurationError(t *testing.T) {
	client, _ := newTestClient(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, nil, &exec.Error{Name: "yt-dlp-test", Err: exec.ErrNotFound}
	})
	if _, err := client.DumpJSON(context.Background(), "https://youtu.be/abc"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestFetchCaptionsArgs(t *testing.T) {
	client, calls := newTestClient(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte("[info] There are no subtitles for the requested languages\n"), nil, nil
	})

	diag, err := client.FetchCaptions(context.Background(), CaptionRequest{
		URL:            "https://youtu.be/abc",
		Lang:           "fr",
		Auto:           true,
		OutputTemplate: "/jobs/1/Clip.%(ext)s",
	})
	if err != nil {
		t.Fatalf("FetchCaptions returned error: %v", err)
	}
	if !MissingCaptions(diag) {
		t.Fatalf("expected missing-caption signature in %q", diag)
	}
	args := strings.Join((*calls)[0].args, " ")
	for _, want := range []string{"--write-auto-subs", "--sub-langs fr", "--sub-format vtt", "-o /jobs/1/Clip.%(ext)s", "--skip-download"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
	if strings.Contains(args, "--no-warnings") {
		t.Fatalf("caption fetch must keep warnings visible: %q", args)
	}
}

func TestFetchCaptionsMissingLanguageDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		stderr string
	}{
		{"info on stdout", "[youtube] abc: Downloading webpage\n[info] There are no subtitles for the requested languages\n", ""},
		{"warning on stderr", "[youtube] abc: Downloading webpage\n", "WARNING: xh subtitles not available for abc\n"},
		{"automatic captions", "[info] There are no automatic captions for the requested languages\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(func(context.Context, string, ...string) ([]byte, []byte, error) {
				return []byte(tt.stdout), []byte(tt.stderr), nil
			})
			diag, err := client.FetchCaptions(context.Background(), CaptionRequest{
				URL:            "https://youtu.be/abc",
				Lang:           "xh",
				OutputTemplate: "/jobs/1/Clip.%(ext)s",
			})
			if err != nil {
				t.Fatalf("FetchCaptions returned error: %v", err)
			}
			if !MissingCaptions(diag) {
				t.Fatalf("expected missing-caption signature in %q", diag)
			}
		})
	}
}

func TestFetchCaptionsUnrelatedOutputIsNotMissing(t *testing.T) {
	client, _ := newTestClient(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte("[youtube] abc: Downloading webpage\n"), []byte("WARNING: falling back to generic extractor\n"), nil
	})
	diag, err := client.FetchCaptions(context.Background(), CaptionRequest{URL: "https://youtu.be/abc", Lang: "en", OutputTemplate: "/jobs/1/Clip.%(ext)s"})
	if err != nil {
		t.Fatalf("FetchCaptions returned error: %v", err)
	}
	if MissingCaptions(diag) {
		t.Fatalf("unexpected missing-caption signature in %q", diag)
	}
	if !strings.Contains(diag, "Downloading webpage") || !strings.Contains(diag, "generic extractor") {
		t.Fatalf("expected both streams in diagnostics, got %q", diag)
	}
}

func TestDownloadArgs(t *testing.T) {
	client, calls := newTestClient(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, nil, nil
	})
	if err := client.Download(context.Background(), "https://x.com/u/status/1", FormatSelector("137", false), "/jobs/1/v.%(ext)s"); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	args := strings.Join((*calls)[0].args, " ")
	for _, want := range []string{"-f 137+bestaudio/137", "--merge-output-format mp4", "--no-playlist"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestFormatSelector(t *testing.T) {
	if got := FormatSelector("18", true); got != "18" {
		t.Fatalf("expected bare id for format with audio, got %q", got)
	}
	if got := FormatSelector("137", false); got != "137+bestaudio/137" {
		t.Fatalf("unexpected selector %q", got)
	}
}

func TestOutputTemplateEscapesPercent(t *testing.T) {
	got := OutputTemplate("/data/jobs/1", "100%_Real")
	if got != "/data/jobs/1/100%%_Real.%(ext)s" {
		t.Fatalf("unexpected template %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]error{
		"ERROR: Private video. Sign in if you've been granted access": services.ErrAccessDenied,
		"WARNING: No subtitles for language xx":                       services.ErrNoCaptions,
		"There are no automatic captions for this video":              services.ErrNoCaptions,
		"":                                                            services.ErrExternalTool,
	}
	for input, want := range tests {
		if got := Classify(input); got != want {
			t.Errorf("Classify(%q) = %v, want %v", input, got, want)
		}
	}
}
