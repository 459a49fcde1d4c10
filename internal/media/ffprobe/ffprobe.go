package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"viflac/internal/services"
	"viflac/internal/tagblock"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, runner Executor, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	if runner == nil {
		runner = commandExecutor{}
	}

	output, err := runner.Output(ctx, binary, []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// Fields returns the container tags as fields sorted by key.
func (r Result) Fields() []tagblock.Field {
	keys := make([]string, 0, len(r.Format.Tags))
	for key := range r.Format.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]tagblock.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, tagblock.Field{Key: key, Value: r.Format.Tags[key]})
	}
	return fields
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) ReaderOption {
	return func(r *Reader) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// Reader reads tags through ffprobe.
type Reader struct {
	binary string
	exec   Executor
}

// NewReader constructs a Reader for binary.
func NewReader(binary string, opts ...ReaderOption) *Reader {
	r := &Reader{binary: strings.TrimSpace(binary), exec: commandExecutor{}}
	if r.binary == "" {
		r.binary = "ffprobe"
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binary returns the configured executable name.
func (r *Reader) Binary() string {
	return r.binary
}

// ReadTags returns the container tags of path. A file without an audio
// stream is an error.
func (r *Reader) ReadTags(ctx context.Context, path string) ([]tagblock.Field, error) {
	result, err := Inspect(ctx, r.exec, r.binary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "collect", "ffprobe", fmt.Sprintf("read tags of %s", path), err)
	}
	if result.AudioStreamCount() == 0 {
		return nil, services.Wrap(services.ErrValidation, "collect", "ffprobe", fmt.Sprintf("%s has no audio stream", path), nil)
	}
	return result.Fields(), nil
}
