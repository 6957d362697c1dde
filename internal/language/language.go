package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto marks a source language the backend should detect itself.
const Auto = "auto"

var englishNames = display.English.Languages()

// Normalize validates a caption language code as reported by yt-dlp and
// returns it in canonical form. The base subtag must be a known ISO 639 code
// and is lower-cased; remaining subtags (regions, scripts, and yt-dlp
// variants such as "orig") keep their original casing.
func Normalize(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 35 {
		return "", false
	}
	parts := strings.Split(strings.ReplaceAll(code, "_", "-"), "-")
	base, err := language.ParseBase(strings.ToLower(parts[0]))
	if err != nil {
		return "", false
	}
	for _, sub := range parts[1:] {
		if !validSubtag(sub) {
			return "", false
		}
	}
	parts[0] = strings.ToLower(parts[0])
	if base.String() == "und" {
		return "", false
	}
	return strings.Join(parts, "-"), true
}

// Base returns the lower-cased primary subtag of code ("pt" for "pt-BR").
func Base(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}

// DisplayName returns the English name for a language code, or "" when the
// code is not recognized. Regional tags resolve to their regional name
// ("pt-BR" → "Brazilian Portuguese"); yt-dlp variants fall back to the base.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, Auto) {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		if name := englishNames.Name(tag); name != "" {
			return name
		}
	}
	base, err := language.ParseBase(Base(code))
	if err != nil {
		return ""
	}
	return englishNames.Name(base)
}

// Describe returns DisplayName when known and the raw code otherwise.
func Describe(code string) string {
	if name := DisplayName(code); name != "" {
		return name
	}
	return strings.TrimSpace(code)
}

func validSubtag(sub string) bool {
	if sub == "" || len(sub) > 8 {
		return false
	}
	for _, r := range sub {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
