package renamer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"viflac/internal/registry"
	"viflac/internal/textutil"
)

var (
	// ErrMissingPlaceholder reports a placeholder naming a tag the record lacks.
	ErrMissingPlaceholder = errors.New("placeholder has no matching tag")
	// ErrBadTemplate reports unbalanced braces or an unusable format spec.
	ErrBadTemplate = errors.New("malformed path template")
)

// Expand substitutes every {KEY} placeholder in template with the text of
// the tag KEY.
func Expand(template string, tags *registry.Tags) (string, error) {
	return expand(template, tags, nil)
}

// NormalizeWhitespace replaces every run of whitespace with one underscore.
func NormalizeWhitespace(s string) string {
	return textutil.CollapseWhitespace(s, "_")
}

func expand(template string, tags *registry.Tags, transform func(string) string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		ch := template[i]
		switch ch {
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("%w: stray '}' at offset %d in %q", ErrBadTemplate, i, template)
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated '{' at offset %d in %q", ErrBadTemplate, i, template)
			}
			field := template[i+1 : i+1+end]
			if strings.ContainsRune(field, '{') {
				return "", fmt.Errorf("%w: nested '{' in %q", ErrBadTemplate, template)
			}
			out, err := substitute(field, tags, transform)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			i += end + 2
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String(), nil
}

func substitute(field string, tags *registry.Tags, transform func(string) string) (string, error) {
	key, spec, _ := strings.Cut(field, ":")
	if key == "" {
		return "", fmt.Errorf("%w: empty placeholder", ErrBadTemplate)
	}
	value, ok := tags.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: {%s}", ErrMissingPlaceholder, key)
	}
	if transform != nil {
		value.Text = transform(value.Text)
	}
	if spec == "" {
		return value.Text, nil
	}
	fs, err := parseSpec(spec)
	if err != nil {
		return "", err
	}
	return fs.apply(key, value)
}

type formatSpec struct {
	fill    rune
	hasFill bool
	align   byte
	zero    bool
	width   int
	verb    byte
}

// parseSpec reads [[fill]align][0][width][d|s].
func parseSpec(spec string) (formatSpec, error) {
	fs := formatSpec{fill: ' '}
	rest := spec
	if r, size := utf8.DecodeRuneInString(rest); size > 0 && size < len(rest) && isAlign(rest[size]) {
		fs.fill = r
		fs.hasFill = true
		fs.align = rest[size]
		rest = rest[size+1:]
	} else if rest != "" && isAlign(rest[0]) {
		fs.align = rest[0]
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "0") {
		fs.zero = true
		rest = rest[1:]
	}
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		fs.width, _ = strconv.Atoi(rest[:digits])
		rest = rest[digits:]
	}
	switch rest {
	case "":
	case "d", "s":
		fs.verb = rest[0]
	default:
		return fs, fmt.Errorf("%w: unsupported format spec %q", ErrBadTemplate, spec)
	}
	return fs, nil
}

func isAlign(c byte) bool {
	return c == '<' || c == '>' || c == '^'
}

func (fs formatSpec) apply(key string, value registry.Value) (string, error) {
	numeric := fs.verb == 'd' || (fs.zero && fs.verb != 's')
	if numeric && !value.IsInt {
		value = registry.ParseValue(value.Text)
		if !value.IsInt {
			return "", fmt.Errorf("%w: {%s} needs an integer value, got %q", ErrBadTemplate, key, value.Text)
		}
	}
	fill := fs.fill
	if fs.zero && !fs.hasFill {
		fill = '0'
	}

	text := value.Text
	align := fs.align
	if numeric {
		text = strconv.FormatInt(value.Int, 10)
		if align == 0 {
			align = '>'
		}
		if fs.zero && fs.align == 0 {
			return zeroPad(text, fs.width), nil
		}
	} else if align == 0 {
		align = '<'
		if value.IsInt && fs.verb == 0 {
			align = '>'
		}
	}
	return pad(text, fs.width, fill, align), nil
}

func zeroPad(digits string, width int) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if n := width - len(sign) - len(digits); n > 0 {
		digits = strings.Repeat("0", n) + digits
	}
	return sign + digits
}

func pad(text string, width int, fill rune, align byte) string {
	n := width - utf8.RuneCountInString(text)
	if n <= 0 {
		return text
	}
	filler := string(fill)
	switch align {
	case '>':
		return strings.Repeat(filler, n) + text
	case '^':
		left := n / 2
		return strings.Repeat(filler, left) + text + strings.Repeat(filler, n-left)
	default:
		return text + strings.Repeat(filler, n)
	}
}
