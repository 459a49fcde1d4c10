package tagblock

import (
	"fmt"
	"strings"
)

// BookkeepingPrefix marks keys that carry pipeline metadata instead of tags.
const BookkeepingPrefix = "__"

// Field is a single key=value pair from a tag block.
type Field struct {
	Key   string
	Value string
}

// IsBookkeeping reports whether key is internal pipeline metadata that must
// never be written back to a file.
func IsBookkeeping(key string) bool {
	return strings.HasPrefix(key, BookkeepingPrefix)
}

// Parse splits a tag block into fields in the order they appear. Each line is
// split on its first '=' only, so values may contain '='. Blank lines are
// ignored. Repeated keys are returned as-is; callers apply last-wins.
func Parse(block string) ([]Field, error) {
	trimmed := strings.TrimSpace(block)
	if trimmed == "" {
		return nil, nil
	}
	lines := strings.Split(trimmed, "\n")
	fields := make([]Field, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("tag block line %d: missing '=' in %q", i+1, line)
		}
		if key == "" {
			return nil, fmt.Errorf("tag block line %d: empty key", i+1)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	return fields, nil
}

// Format renders fields as newline separated key=value lines with a trailing
// newline. Bookkeeping keys are skipped. An empty field set yields "".
func Format(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		if IsBookkeeping(f.Key) {
			continue
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
