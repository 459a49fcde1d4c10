package registry

import (
	"strconv"
	"strings"
)

// Value is a tag value as seen by the pipeline. Text is always the literal
// cell or tag content; Int carries the integer reading when IsInt is set.
type Value struct {
	Text  string
	Int   int64
	IsInt bool
}

// StringValue wraps text without attempting integer coercion.
func StringValue(text string) Value {
	return Value{Text: text}
}

// ParseValue trims cell and tries to read it as a base-10 integer. On failure
// the trimmed text is kept as a plain string value.
func ParseValue(cell string) Value {
	text := strings.TrimSpace(cell)
	n, ok := tryParseInt(text)
	if !ok {
		return Value{Text: text}
	}
	return Value{Text: text, Int: n, IsInt: true}
}

func tryParseInt(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the literal text of the value.
func (v Value) String() string {
	return v.Text
}

// Equal compares values by their text.
func (v Value) Equal(other Value) bool {
	return v.Text == other.Text
}
