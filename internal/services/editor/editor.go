package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"

	"viflac/internal/logging"
	"viflac/internal/services"
)

// EnvVar is the environment variable consulted for the editor command.
const EnvVar = "EDITOR"

// DefaultCommand is used when neither configuration nor environment name an
// editor.
const DefaultCommand = "nano"

// Resolve picks the editor command line: the configured command when set,
// otherwise $EDITOR, otherwise DefaultCommand. The result is split on
// whitespace so values like "code --wait" work.
func Resolve(configured string, lookupEnv func(string) (string, bool)) []string {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if fields := strings.Fields(configured); len(fields) > 0 {
		return fields
	}
	if value, ok := lookupEnv(EnvVar); ok {
		if fields := strings.Fields(value); len(fields) > 0 {
			return fields
		}
	}
	return []string{DefaultCommand}
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithStdio overrides the streams attached to the editor process.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Launcher runs an interactive editor on a file and blocks until it exits.
type Launcher struct {
	command []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// New builds a launcher for the given command line.
func New(command []string, opts ...Option) (*Launcher, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("editor command required")
	}
	l := &Launcher{
		command: append([]string(nil), command...),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewComponentLogger(l.logger, "editor")
	return l, nil
}

// Command returns the resolved command line.
func (l *Launcher) Command() []string {
	return append([]string(nil), l.command...)
}

// Edit opens path in the editor. There is no timeout; the call returns when
// the editor exits or ctx is cancelled.
func (l *Launcher) Edit(ctx context.Context, path string) error {
	logger := logging.WithContext(ctx, l.logger)
	if f, ok := l.stdin.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		logging.WarnWithContext(logger, "stdin is not a terminal", "editor_no_tty",
			logging.String("editor", l.command[0]),
			logging.String(logging.FieldImpact, "interactive editors may fail to start"),
		)
	}

	args := append(l.command[1:len(l.command):len(l.command)], path)
	cmd := exec.CommandContext(ctx, l.command[0], args...) //nolint:gosec
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	logger.Info("launching editor", logging.String("editor", strings.Join(l.command, " ")), logging.String("table_path", path))
	if err := cmd.Run(); err != nil {
		return services.Wrap(services.ErrExternalTool, "edit", "launch editor", fmt.Sprintf("%s exited with an error", l.command[0]), err)
	}
	return nil
}
