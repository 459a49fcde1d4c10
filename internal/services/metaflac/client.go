package metaflac

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"viflac/internal/services"
	"viflac/internal/tagblock"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithUTF8Convert toggles metaflac's locale conversion of tag text. The
// default passes --no-utf8-convert so bytes round-trip untouched.
func WithUTF8Convert(enabled bool) Option {
	return func(c *Client) {
		c.utf8Convert = enabled
	}
}

// Client wraps metaflac tag export and import.
type Client struct {
	binary      string
	utf8Convert bool
	exec        Executor
}

// New constructs a metaflac client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("metaflac binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable name.
func (c *Client) Binary() string {
	return c.binary
}

// ReadTags exports the Vorbis comments of path as ordered fields.
func (c *Client) ReadTags(ctx context.Context, path string) ([]tagblock.Field, error) {
	args := append([]string{"--export-tags-to=-"}, c.conversionArgs()...)
	args = append(args, path)
	output, err := c.exec.Run(ctx, c.binary, args, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "collect", "metaflac export", fmt.Sprintf("read tags of %s", path), err)
	}
	fields, err := tagblock.Parse(string(output))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "collect", "metaflac export", fmt.Sprintf("parse tags of %s", path), err)
	}
	return fields, nil
}

// WriteTags replaces every tag of path with the contents of block.
func (c *Client) WriteTags(ctx context.Context, path, block string) error {
	args := append([]string{"--remove-all-tags", "--import-tags-from=-"}, c.conversionArgs()...)
	args = append(args, path)
	if _, err := c.exec.Run(ctx, c.binary, args, strings.NewReader(block)); err != nil {
		return services.Wrap(services.ErrExternalTool, "write_tags", "metaflac import", fmt.Sprintf("write tags of %s", path), err)
	}
	return nil
}

func (c *Client) conversionArgs() []string {
	if c.utf8Convert {
		return nil
	}
	return []string{"--no-utf8-convert"}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, detail)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}
