package captions

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"vidfetch/internal/logging"
)

// Translator renders one span of text in the target language.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Stats summarizes a document translation.
type Stats struct {
	Lines      int `json:"lines"`
	Content    int `json:"content"`
	Translated int `json:"translated"`
	Fallback   int `json:"fallback"`
}

var lineBreaks = regexp.MustCompile(`[ \t]*[\r\n]+[ \t]*`)

// TranslateDocument translates every content line of doc in order. A line
// whose translation fails or comes back empty keeps its original text, so the
// result always has the same lines, in the same order, as doc.
func TranslateDocument(ctx context.Context, doc Document, translator Translator, source, target string, logger *slog.Logger) (Document, Stats) {
	out := Document{Lines: make([]Line, len(doc.Lines))}
	stats := Stats{Lines: len(doc.Lines)}
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "captions"))

	for i, line := range doc.Lines {
		out.Lines[i] = line
		if line.Kind != Content {
			continue
		}
		stats.Content++

		lead, payload, trail := splitPadding(line.Text)
		if payload == "" {
			continue
		}
		translated, err := translator.Translate(ctx, payload, source, target)
		translated = strings.TrimSpace(lineBreaks.ReplaceAllString(translated, " "))
		if err != nil || translated == "" {
			stats.Fallback++
			attrs := []logging.Attr{
				logging.Int("line", i+1),
				logging.String("source", source),
				logging.String("target", target),
				logging.String(logging.FieldErrorHint, "check the translation backend"),
				logging.String(logging.FieldImpact, "line kept untranslated"),
			}
			if err != nil {
				attrs = append(attrs, logging.Error(err))
			}
			logging.WarnWithContext(logger, "caption line translation failed", "translation_fallback", attrs...)
			continue
		}
		out.Lines[i].Text = lead + translated + trail
		stats.Translated++
	}
	return out, stats
}
