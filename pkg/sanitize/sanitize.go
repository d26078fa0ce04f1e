package sanitize

import (
	"strings"
)

// DefaultMaxLen is the default maximum length of a sanitized segment,
// counted in Unicode code points.
const DefaultMaxLen = 120

// reservedNames are device names Windows refuses as file names,
// matched case-insensitively against the whole segment.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Segment turns an arbitrary title into a single filesystem-safe path
// segment. It removes control and invisible formatting characters, replaces
// characters Windows forbids in file names, collapses whitespace, truncates
// to maxLen code points and guards against Windows reserved device names.
// The result is never empty; "untitled" substitutes for anything that
// sanitizes away completely.
func Segment(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case isInvisible(r):
			// dropped entirely
		case isForbidden(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	s := strings.Join(strings.Fields(b.String()), " ")
	if s == "" {
		return "untitled"
	}

	runes := []rune(s)
	if len(runes) > maxLen {
		s = strings.TrimSpace(string(runes[:maxLen]))
	}

	// Windows rejects names ending in dots or spaces.
	s = strings.TrimRight(s, ". ")
	if s == "" {
		return "untitled"
	}

	if reservedNames[strings.ToUpper(s)] {
		s += "_"
	}

	return s
}

// Path sanitizes a slash-separated relative path, cleaning each segment
// independently. Empty segments are dropped, so repeated or leading slashes
// collapse. Slash is the only separator; sanitized segments never contain
// one.
func Path(pathLike string) string {
	parts := strings.Split(pathLike, "/")
	out := parts[:0]
	for _, seg := range parts {
		if seg == "" {
			continue
		}
		out = append(out, Segment(seg, DefaultMaxLen))
	}
	return strings.Join(out, "/")
}

// isInvisible reports whether r is a control character, zero-width
// character, bidi control, or byte-order mark. These render invisibly but
// make Windows or the browser reject the file name.
func isInvisible(r rune) bool {
	switch {
	case r <= 0x1f:
		return true
	case r >= 0x7f && r <= 0x9f:
		return true
	case r >= 0x200b && r <= 0x200f:
		return true
	case r >= 0x202a && r <= 0x202e:
		return true
	case r >= 0x2066 && r <= 0x2069:
		return true
	case r == 0xfeff:
		return true
	}
	return false
}

// isForbidden reports whether r is reserved by Windows file systems.
func isForbidden(r rune) bool {
	switch r {
	case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
		return true
	}
	return false
}
