package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	downloadDir string
	stateDir    string
}

func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("VIDFETCH_TRANSLATION_API_KEY", "")
	t.Setenv("PORT", "")

	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "config.toml"),
		downloadDir: filepath.Join(base, "downloads"),
		stateDir:    filepath.Join(base, "state"),
	}
	content := fmt.Sprintf("[paths]\ndownload_dir = %q\nstate_dir = %q\nlog_dir = %q\n\n[ytdlp]\nbinary = %q\n%s",
		env.downloadDir,
		env.stateDir,
		filepath.Join(base, "logs"),
		"vidfetch-test-missing-yt-dlp",
		extra,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
