package captions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vidfetch/internal/logging"
)

type recordingTranslator struct {
	seen  []string
	reply func(text string) (string, error)
}

func (r *recordingTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	r.seen = append(r.seen, text)
	if r.reply != nil {
		return r.reply(text)
	}
	return strings.ToUpper(text), nil
}

func TestTranslateDocumentFourLineScenario(t *testing.T) {
	input := "1\n00:00:01.000 --> 00:00:02.000\nGood morning\n"
	tr := &recordingTranslator{reply: func(string) (string, error) { return "Bonjour", nil }}

	out, stats := TranslateDocument(context.Background(), Parse(input), tr, "en", "fr", logging.NewNop())

	lines := strings.Split(out.String(), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "00:00:01.000 --> 00:00:02.000", lines[1])
	require.Equal(t, "Bonjour", lines[2])
	require.Equal(t, []string{"Good morning"}, tr.seen)
	require.Equal(t, Stats{Lines: 4, Content: 1, Translated: 1}, stats)
}

func TestTranslateDocumentNeverSendsStructuralLines(t *testing.T) {
	tr := &recordingTranslator{}
	out, _ := TranslateDocument(context.Background(), Parse(sampleVTT), tr, "en", "de", logging.NewNop())

	for _, text := range tr.seen {
		require.NotContains(t, text, "-->")
		require.False(t, isCueIndex(strings.TrimSpace(text)), "cue index %q sent", text)
		require.False(t, strings.HasPrefix(text, "WEBVTT") || strings.HasPrefix(text, "Kind:"), "header %q sent", text)
	}
	require.Equal(t, []string{"Hello there", "General Kenobi", "[music]"}, tr.seen)

	in := Parse(sampleVTT)
	require.Len(t, out.Lines, len(in.Lines))
	for i := range in.Lines {
		if in.Lines[i].Kind == Structural {
			require.Equal(t, in.Lines[i].Text, out.Lines[i].Text)
		}
	}
	require.Equal(t, "  GENERAL KENOBI  ", out.Lines[7].Text)
}

func TestTranslateDocumentFallbackIsLocal(t *testing.T) {
	input := "1\r\n00:00:01,000 --> 00:00:02,000\r\nfirst\r\nsecond\r\nthird\r\n"
	tr := &recordingTranslator{reply: func(text string) (string, error) {
		switch text {
		case "second":
			return "", errors.New("backend exploded")
		case "third":
			return "   ", nil
		default:
			return "PREMIER\nLIGNE", nil
		}
	}}

	out, stats := TranslateDocument(context.Background(), Parse(input), tr, "en", "fr", logging.NewNop())

	require.Equal(t, "1\r\n00:00:01,000 --> 00:00:02,000\r\nPREMIER LIGNE\r\nsecond\r\nthird\r\n", out.String())
	require.Equal(t, 2, stats.Fallback)
	require.Equal(t, 1, stats.Translated)
	require.Equal(t, strings.Count(input, "\n"), strings.Count(out.String(), "\n"))
}
