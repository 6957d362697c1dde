package captions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vidfetch/internal/jobs"
	"vidfetch/internal/logging"
	"vidfetch/internal/services"
	"vidfetch/internal/services/whisperx"
	"vidfetch/internal/services/ytdlp"
)

const trackBody = "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n"

type fakeTracks struct {
	calls int
	req   ytdlp.CaptionRequest
	write bool
	diag  string
	err   error
}

func (f *fakeTracks) FetchCaptions(_ context.Context, req ytdlp.CaptionRequest) (string, error) {
	f.calls++
	f.req = req
	if f.write {
		stem := strings.TrimSuffix(req.OutputTemplate, ".%(ext)s")
		if err := os.WriteFile(stem+"."+req.Lang+".vtt", []byte(trackBody), 0o644); err != nil {
			return "", err
		}
	}
	return f.diag, f.err
}

type fakeAudio struct {
	ext string
	err error
}

func (f *fakeAudio) FetchAudio(_ context.Context, _, outputTemplate string) error {
	if f.err != nil {
		return f.err
	}
	stem := strings.TrimSuffix(outputTemplate, ".%(ext)s")
	return os.WriteFile(stem+"."+f.ext, []byte("audio"), 0o644)
}

type fakeTranscriber struct {
	language string
	source   string
	err      error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, source, outputDir string) (whisperx.Result, error) {
	f.source = source
	if f.err != nil {
		return whisperx.Result{}, f.err
	}
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	vtt := filepath.Join(outputDir, stem+".vtt")
	if err := os.WriteFile(vtt, []byte(trackBody), 0o644); err != nil {
		return whisperx.Result{}, err
	}
	return whisperx.Result{VTTPath: vtt, Language: f.language}, nil
}

type fixedTranslator struct{ text string }

func (f fixedTranslator) Translate(context.Context, string, string, string) (string, error) {
	return f.text, nil
}

func newPipeline(t *testing.T, backends Backends) (*Pipeline, *jobs.Manager) {
	t.Helper()
	store, err := jobs.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	manager := jobs.NewManager(store, t.TempDir(), 0, logging.NewNop())
	return NewPipeline(backends, manager, logging.NewNop()), manager
}

func readJobFile(t *testing.T, manager *jobs.Manager, res *Result) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(manager.Root(), res.JobID, res.FileName))
	require.NoError(t, err)
	return string(data)
}

func TestFetchTrackWritesVTT(t *testing.T) {
	tracks := &fakeTracks{write: true}
	p, manager := newPipeline(t, Backends{Tracks: tracks})

	res, err := p.FetchTrack(context.Background(), TrackRequest{URL: "https://youtu.be/abc", Lang: "en", Auto: true, Title: "My Talk"})
	require.NoError(t, err)
	require.Equal(t, "My_Talk.en.vtt", res.FileName)
	require.Equal(t, "/api/serve/"+res.JobID+"/My_Talk.en.vtt", res.DownloadURL)
	require.True(t, tracks.req.Auto)
	require.Equal(t, trackBody, readJobFile(t, manager, res))

	job, err := manager.Get(context.Background(), res.JobID)
	require.NoError(t, err)
	require.Equal(t, jobs.KindSubtitle, job.Kind)
	require.Equal(t, jobs.StatusComplete, job.Status)
}

func TestFetchTrackMissingLanguageIsNotFound(t *testing.T) {
	tracks := &fakeTracks{diag: "WARNING: [youtube] abc: There are no subtitles for the requested languages"}
	p, manager := newPipeline(t, Backends{Tracks: tracks})

	_, err := p.FetchTrack(context.Background(), TrackRequest{URL: "https://youtu.be/abc", Lang: "xh"})
	require.ErrorIs(t, err, services.ErrNoCaptions)
	msg, _ := services.PublicMessage(err)
	require.Equal(t, "No subtitles available for language: xh", msg)

	failed, err := manager.Store().List(context.Background(), jobs.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
}

func TestFetchTrackMissingLanguageFromYtdlpOutput(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		stderr string
	}{
		{"info line on stdout", "[info] There are no subtitles for the requested languages\n", ""},
		{"per-language warning", "", "WARNING: xh subtitles not available for abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := ytdlp.New(ytdlp.Config{Binary: "yt-dlp-test"}, logging.NewNop())
			client.WithRunner(func(context.Context, string, ...string) ([]byte, []byte, error) {
				return []byte(tt.stdout), []byte(tt.stderr), nil
			})
			p, _ := newPipeline(t, Backends{Tracks: client})

			_, err := p.FetchTrack(context.Background(), TrackRequest{URL: "https://youtu.be/abc", Lang: "xh"})
			require.ErrorIs(t, err, services.ErrNoCaptions)
			msg, _ := services.PublicMessage(err)
			require.Equal(t, "No subtitles available for language: xh", msg)
		})
	}
}

func TestFetchTrackNoFileWithoutSignature(t *testing.T) {
	p, _ := newPipeline(t, Backends{Tracks: &fakeTracks{}})

	_, err := p.FetchTrack(context.Background(), TrackRequest{URL: "https://youtu.be/abc", Lang: "en"})
	require.ErrorIs(t, err, services.ErrNoOutput)
	msg, _ := services.PublicMessage(err)
	require.Equal(t, "Subtitle download failed, no file found.", msg)
}

func TestFetchTrackTimeout(t *testing.T) {
	tracks := &fakeTracks{err: services.ToolFailure(services.ErrTimeout, "yt-dlp", "captions", "", errors.New("timed out"))}
	p, _ := newPipeline(t, Backends{Tracks: tracks})

	_, err := p.FetchTrack(context.Background(), TrackRequest{URL: "https://youtu.be/abc", Lang: "en"})
	require.ErrorIs(t, err, services.ErrTimeout)
	msg, _ := services.PublicMessage(err)
	require.Equal(t, "Subtitle download timed out.", msg)
}

func TestFetchTrackValidation(t *testing.T) {
	tracks := &fakeTracks{}
	p, _ := newPipeline(t, Backends{Tracks: tracks})

	for _, req := range []TrackRequest{
		{URL: "https://youtu.be/abc"},
		{URL: "https://youtu.be/abc", Lang: "../../etc"},
		{URL: "https://example.com/abc", Lang: "en"},
	} {
		_, err := p.FetchTrack(context.Background(), req)
		require.ErrorIs(t, err, services.ErrValidation)
	}
	require.Zero(t, tracks.calls)
}

func TestTranslateTrackWritesPairNamedFile(t *testing.T) {
	tracks := &fakeTracks{write: true}
	p, manager := newPipeline(t, Backends{Tracks: tracks, Translator: fixedTranslator{text: "Hola"}})

	res, err := p.TranslateTrack(context.Background(), TranslateRequest{
		URL: "https://youtu.be/abc", SourceLang: "en", TargetLang: "es", Title: "Clip",
	})
	require.NoError(t, err)
	require.Equal(t, "Clip.en-es.vtt", res.FileName)
	require.Equal(t, "en", res.SourceLang)
	require.Equal(t, 1, res.Stats.Translated)
	require.Equal(t, strings.Replace(trackBody, "Hello", "Hola", 1), readJobFile(t, manager, res))

	job, err := manager.Get(context.Background(), res.JobID)
	require.NoError(t, err)
	require.Equal(t, jobs.KindTranslation, job.Kind)
	require.Equal(t, "Clip.en-es.vtt", job.OutputFile)
}

func TestTranslationRequiresTranslator(t *testing.T) {
	tracks := &fakeTracks{write: true}
	p, _ := newPipeline(t, Backends{Tracks: tracks})
	require.False(t, p.TranslationEnabled())

	_, err := p.TranslateTrack(context.Background(), TranslateRequest{URL: "https://youtu.be/abc", SourceLang: "en", TargetLang: "es"})
	require.ErrorIs(t, err, services.ErrConfiguration)
	_, err = p.GenerateTranslation(context.Background(), GenerateRequest{URL: "https://youtu.be/abc", TargetLang: "es"})
	require.ErrorIs(t, err, services.ErrConfiguration)
	_, err = p.TranslateFile(context.Background(), "/nonexistent.vtt", "en", "es")
	require.ErrorIs(t, err, services.ErrConfiguration)
	require.Zero(t, tracks.calls)
}

func TestGenerateTranslationUsesDetectedLanguage(t *testing.T) {
	transcriber := &fakeTranscriber{language: "ja"}
	p, manager := newPipeline(t, Backends{
		Audio:       &fakeAudio{ext: "webm"},
		Transcriber: transcriber,
		Translator:  fixedTranslator{text: "Hello"},
	})

	res, err := p.GenerateTranslation(context.Background(), GenerateRequest{URL: "https://youtu.be/abc", TargetLang: "en", Title: "Talk"})
	require.NoError(t, err)
	require.Equal(t, "Talk.ja-en.vtt", res.FileName)
	require.Equal(t, "ja", res.SourceLang)
	require.Equal(t, "Talk.webm", filepath.Base(transcriber.source))
	require.Contains(t, readJobFile(t, manager, res), "\nHello\n")
}

func TestGenerateTranslationUnknownLanguageIsAuto(t *testing.T) {
	p, _ := newPipeline(t, Backends{
		Audio:       &fakeAudio{ext: "m4a"},
		Transcriber: &fakeTranscriber{},
		Translator:  fixedTranslator{text: "Hello"},
	})

	res, err := p.GenerateTranslation(context.Background(), GenerateRequest{URL: "https://youtu.be/abc", TargetLang: "en"})
	require.NoError(t, err)
	require.Equal(t, "subtitle.auto-en.vtt", res.FileName)
}

func TestGenerateTranslationFailures(t *testing.T) {
	tests := []struct {
		name     string
		backends Backends
		marker   error
		msg      string
	}{
		{
			name:     "audio timeout",
			backends: Backends{Audio: &fakeAudio{err: services.ToolFailure(services.ErrTimeout, "yt-dlp", "audio", "", errors.New("t"))}, Transcriber: &fakeTranscriber{}},
			marker:   services.ErrTimeout,
			msg:      "Audio download timed out.",
		},
		{
			name:     "transcription empty",
			backends: Backends{Audio: &fakeAudio{ext: "m4a"}, Transcriber: &fakeTranscriber{err: services.Wrap(services.ErrNoOutput, "transcription", "locate output", "", nil)}},
			marker:   services.ErrNoOutput,
			msg:      "Transcription produced no output.",
		},
		{
			name:     "transcription timeout",
			backends: Backends{Audio: &fakeAudio{ext: "m4a"}, Transcriber: &fakeTranscriber{err: services.ToolFailure(services.ErrTimeout, "uvx", "transcribe", "", errors.New("t"))}},
			marker:   services.ErrTimeout,
			msg:      "Transcription timed out.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.backends.Translator = fixedTranslator{text: "x"}
			p, manager := newPipeline(t, tt.backends)

			_, err := p.GenerateTranslation(context.Background(), GenerateRequest{URL: "https://youtu.be/abc", TargetLang: "en"})
			require.ErrorIs(t, err, tt.marker)
			msg, _ := services.PublicMessage(err)
			require.Equal(t, tt.msg, msg)

			stats, err := manager.Store().Stats(context.Background())
			require.NoError(t, err)
			require.Equal(t, 1, stats[jobs.StatusFailed])
		})
	}
}

func TestTranslateFileWritesNextToInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lecture.fr.srt")
	input := "1\r\n00:00:01,000 --> 00:00:02,000\r\nBonjour\r\n"
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	p, _ := newPipeline(t, Backends{Translator: fixedTranslator{text: "Hello"}})
	name, err := p.TranslateFile(context.Background(), path, "fr", "en")
	require.NoError(t, err)
	require.Equal(t, "lecture.fr-en.srt", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "1\r\n00:00:01,000 --> 00:00:02,000\r\nHello\r\n", string(data))
}

func TestTranslatedName(t *testing.T) {
	require.Equal(t, "a.en-fr.vtt", TranslatedName("a.en.vtt", "en", "fr"))
	require.Equal(t, "a.auto-fr.vtt", TranslatedName("a.vtt", "auto", "fr"))
	require.Equal(t, "subtitle.en-fr.vtt", TranslatedName(".en.vtt", "en", "fr"))
}
