package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameRunes bounds the length of a sanitized file name stem.
const MaxFileNameRunes = 100

// SanitizeFileName turns a user-supplied title into a safe file name stem.
// Characters unsafe on common filesystems (\ / * ? " < > | :) and control
// characters are removed, each whitespace run becomes a single underscore,
// leading and trailing underscores and dots are trimmed, and the result is cut
// to MaxFileNameRunes runes.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSpace := false
	for _, r := range name {
		switch {
		case r == utf8.RuneError:
			continue
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		case isUnsafeFileRune(r), unicode.IsControl(r):
			continue
		}
		if pendingSpace {
			b.WriteByte('_')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_.")
	if utf8.RuneCountInString(out) > MaxFileNameRunes {
		runes := []rune(out)
		out = strings.TrimRight(string(runes[:MaxFileNameRunes]), "_.")
	}
	return out
}

// SanitizeOr sanitizes name and returns fallback when nothing survives.
func SanitizeOr(name, fallback string) string {
	if safe := SanitizeFileName(name); safe != "" {
		return safe
	}
	return fallback
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

func isUnsafeFileRune(r rune) bool {
	switch r {
	case '\\', '/', '*', '?', '"', '<', '>', '|', ':':
		return true
	}
	return false
}
