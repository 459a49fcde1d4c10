package metaflac_test

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"viflac/internal/services"
	"viflac/internal/services/metaflac"
	"viflac/internal/tagblock"
)

type stubExecutor struct {
	output []byte
	err    error
	binary string
	args   [][]string
	stdin  []string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error) {
	s.binary = binary
	s.args = append(s.args, append([]string(nil), args...))
	if stdin != nil {
		data, _ := io.ReadAll(stdin)
		s.stdin = append(s.stdin, string(data))
	}
	return s.output, s.err
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := metaflac.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestReadTagsParsesExport(t *testing.T) {
	exec := &stubExecutor{output: []byte("ARTIST=A\nTITLE=X\n")}
	client, err := metaflac.New("metaflac", metaflac.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	fields, err := client.ReadTags(context.Background(), "/music/a.flac")
	if err != nil {
		t.Fatalf("ReadTags returned error: %v", err)
	}
	want := []tagblock.Field{{Key: "ARTIST", Value: "A"}, {Key: "TITLE", Value: "X"}}
	if !reflect.DeepEqual(fields, want) {
		t.Fatalf("unexpected fields %v", fields)
	}
	wantArgs := []string{"--export-tags-to=-", "--no-utf8-convert", "/music/a.flac"}
	if !reflect.DeepEqual(exec.args[0], wantArgs) {
		t.Fatalf("unexpected args %v", exec.args[0])
	}
}

func TestReadTagsWrapsFailure(t *testing.T) {
	exec := &stubExecutor{err: errors.New("exit status 1")}
	client, _ := metaflac.New("metaflac", metaflac.WithExecutor(exec))
	_, err := client.ReadTags(context.Background(), "a.flac")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestReadTagsRejectsMalformedOutput(t *testing.T) {
	exec := &stubExecutor{output: []byte("no separator\n")}
	client, _ := metaflac.New("metaflac", metaflac.WithExecutor(exec))
	if _, err := client.ReadTags(context.Background(), "a.flac"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWriteTagsPipesBlock(t *testing.T) {
	exec := &stubExecutor{}
	client, _ := metaflac.New("metaflac", metaflac.WithExecutor(exec), metaflac.WithUTF8Convert(true))
	if err := client.WriteTags(context.Background(), "a.flac", "ARTIST=A\n"); err != nil {
		t.Fatalf("WriteTags returned error: %v", err)
	}
	wantArgs := []string{"--remove-all-tags", "--import-tags-from=-", "a.flac"}
	if !reflect.DeepEqual(exec.args[0], wantArgs) {
		t.Fatalf("unexpected args %v", exec.args[0])
	}
	if len(exec.stdin) != 1 || exec.stdin[0] != "ARTIST=A\n" {
		t.Fatalf("unexpected stdin %v", exec.stdin)
	}
}

func TestWriteTagsWrapsFailure(t *testing.T) {
	client, _ := metaflac.New("metaflac", metaflac.WithExecutor(&stubExecutor{err: errors.New("boom")}))
	if err := client.WriteTags(context.Background(), "a.flac", ""); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
