package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	"vidfetch/internal/jobs"
	"vidfetch/internal/logging"
)

func newTestServer(t *testing.T) (*Server, *harness) {
	t.Helper()
	h := newHarness(t)
	h.cfg.API.Bind = "127.0.0.1:0"
	srv, err := New(h.cfg, h.jobs, Services{
		Resolver:   h.resolver,
		Downloader: h.download,
		Captions:   h.captions,
	}, logging.NewNop())
	require.NoError(t, err)
	return srv, h
}

func TestNewRequiresServices(t *testing.T) {
	h := newHarness(t)
	_, err := New(h.cfg, h.jobs, Services{Resolver: h.resolver}, logging.NewNop())
	require.Error(t, err)
}

func TestRunRefusesSecondInstance(t *testing.T) {
	srv, h := newTestServer(t)
	other := flock.New(h.cfg.LockPath())
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = other.Unlock() })

	err = srv.Run(context.Background())
	require.ErrorContains(t, err, "already using")
}

func TestRunServesAndRecoversInterruptedJobs(t *testing.T) {
	srv, h := newTestServer(t)
	stale, err := h.jobs.Begin(context.Background(), jobs.KindVideo, "https://youtu.be/abc")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, rootBanner, string(body))

	job, err := h.jobs.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	require.Equal(t, jobs.StatusFailed, job.Status)
	require.Equal(t, jobs.ServerStopReason, job.ErrorMessage)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
