package captions

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LineKind tells whether a caption line is translated.
type LineKind int

const (
	// Structural lines (blank, cue index, timing, WebVTT header) are kept byte for byte.
	Structural LineKind = iota
	// Content lines carry spoken text and are the unit of translation.
	Content
)

func (k LineKind) String() string {
	if k == Content {
		return "content"
	}
	return "structural"
}

// Line is one line of a caption file. Text excludes the '\n' separator but
// keeps a trailing '\r', so CRLF input round-trips unchanged.
type Line struct {
	Text string
	Kind LineKind
}

// Document is the ordered list of lines of a caption file.
type Document struct {
	Lines []Line
}

const (
	timingArrow = "-->"
	vttMagic    = "WEBVTT"
	byteOrder   = "\ufeff"
)

// Parse splits text on '\n' and classifies every line. The WebVTT header
// block (the WEBVTT line and any metadata lines before the first blank or
// timing line) is structural.
func Parse(text string) Document {
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	inHeader := len(raw) > 0 && strings.HasPrefix(strings.TrimPrefix(raw[0], byteOrder), vttMagic)
	for i, text := range raw {
		kind := Classify(text)
		if inHeader {
			if kind == Structural {
				inHeader = false
			}
			kind = Structural
		}
		lines[i] = Line{Text: text, Kind: kind}
	}
	return Document{Lines: lines}
}

// Classify reports the kind of a single line outside the WebVTT header.
func Classify(line string) LineKind {
	line = strings.TrimSuffix(line, "\r")
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Structural
	case strings.Contains(line, timingArrow):
		return Structural
	case isCueIndex(trimmed):
		return Structural
	default:
		return Content
	}
}

func isCueIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// String joins the lines with '\n'.
func (d Document) String() string {
	var b strings.Builder
	for i, line := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Text)
	}
	return b.String()
}

// ContentLines returns the number of content lines.
func (d Document) ContentLines() int {
	n := 0
	for _, line := range d.Lines {
		if line.Kind == Content {
			n++
		}
	}
	return n
}

// splitPadding separates a line into leading whitespace, payload, and
// trailing whitespace (which includes any '\r').
func splitPadding(line string) (lead, payload, trail string) {
	start := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) })
	if start < 0 {
		return line, "", ""
	}
	end := strings.LastIndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) })
	_, size := utf8.DecodeRuneInString(line[end:])
	return line[:start], line[start : end+size], line[end+size:]
}
