package tagblock_test

import (
	"strings"
	"testing"

	"viflac/internal/tagblock"
)

func TestParseSplitsOnFirstEquals(t *testing.T) {
	fields, err := tagblock.Parse("ARTIST=A\nCOMMENT=a=b\n\nTITLE=\n")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := []tagblock.Field{
		{Key: "ARTIST", Value: "A"},
		{Key: "COMMENT", Value: "a=b"},
		{Key: "TITLE", Value: ""},
	}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d (%v)", len(want), len(fields), fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("field %d: got %+v want %+v", i, fields[i], want[i])
		}
	}
}

func TestParseEmptyBlock(t *testing.T) {
	fields, err := tagblock.Parse("  \n")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
}

func TestParseRejectsLineWithoutSeparator(t *testing.T) {
	_, err := tagblock.Parse("ARTIST=A\ngarbage\n")
	if err == nil {
		t.Fatal("expected error for line without '='")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestParseHandlesCRLF(t *testing.T) {
	fields, err := tagblock.Parse("ARTIST=A\r\nTITLE=X\r\n")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if fields[0].Value != "A" || fields[1].Value != "X" {
		t.Fatalf("unexpected values: %v", fields)
	}
}

func TestFormatSkipsBookkeeping(t *testing.T) {
	got := tagblock.Format([]tagblock.Field{
		{Key: "ARTIST", Value: "A"},
		{Key: "__metaflac", Value: "ignored"},
	})
	if got != "ARTIST=A\n" {
		t.Fatalf("unexpected block %q", got)
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := tagblock.Format(nil); got != "" {
		t.Fatalf("expected empty block, got %q", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	in := []tagblock.Field{{Key: "ALBUM", Value: "x = y"}, {Key: "DATE", Value: "1999"}}
	out, err := tagblock.Parse(tagblock.Format(in))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %v", out)
	}
}
