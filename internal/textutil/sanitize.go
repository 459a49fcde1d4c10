package textutil

import (
	"strings"
	"unicode"
)

// segmentReplacer replaces characters that are unsafe inside one path segment.
var segmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeSegment makes value safe to substitute into a single path segment.
// Separators, colons, and asterisks become dashes; other unsafe characters
// are removed. Surrounding whitespace is trimmed.
func SanitizeSegment(value string) string {
	return strings.TrimSpace(segmentReplacer.Replace(strings.TrimSpace(value)))
}

// CollapseWhitespace replaces every maximal run of whitespace in s with repl.
func CollapseWhitespace(s, repl string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteString(repl)
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
