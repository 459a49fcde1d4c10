package collector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"viflac/internal/logging"
	"viflac/internal/registry"
	"viflac/internal/services"
	"viflac/internal/tagblock"
)

// DefaultExtension is used when no suffix is configured.
const DefaultExtension = ".flac"

// TagReader returns the tags stored in one audio file.
type TagReader interface {
	ReadTags(ctx context.Context, path string) ([]tagblock.Field, error)
}

// Option configures a Collector.
type Option func(*Collector)

// WithExtension sets the file name suffix that qualifies a file.
func WithExtension(ext string) Option {
	return func(c *Collector) {
		if ext = strings.TrimSpace(ext); ext != "" {
			c.extension = ext
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logging.NewComponentLogger(logger, "collector")
	}
}

// Collector walks paths and feeds qualifying files into a registry.
type Collector struct {
	reader    TagReader
	extension string
	logger    *slog.Logger
}

// New constructs a Collector around reader.
func New(reader TagReader, opts ...Option) (*Collector, error) {
	if reader == nil {
		return nil, errors.New("collector: tag reader required")
	}
	c := &Collector{
		reader:    reader,
		extension: DefaultExtension,
		logger:    logging.NewComponentLogger(nil, "collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Extension returns the configured suffix.
func (c *Collector) Extension() string {
	return c.extension
}

// Collect visits each path in order and adds a record for every qualifying
// file. It returns the number of records added.
func (c *Collector) Collect(ctx context.Context, reg *registry.Registry, paths ...string) (int, error) {
	if reg == nil {
		return 0, errors.New("collector: registry required")
	}
	before := reg.Len()
	w := &walk{
		Collector: c,
		reg:       reg,
		dirs:      make(map[string]struct{}),
		files:     make(map[string]string),
	}
	for _, path := range paths {
		if err := w.visit(ctx, path, true); err != nil {
			return reg.Len() - before, err
		}
	}
	return reg.Len() - before, nil
}

// walk carries the state of one Collect call. dirs holds resolved directory
// paths already entered so symlink cycles are walked once. files maps each
// resolved file path to the path it was first collected under, so
// overlapping arguments yield one record per file.
type walk struct {
	*Collector
	reg   *registry.Registry
	dirs  map[string]struct{}
	files map[string]string
}

func (c *walk) visit(ctx context.Context, path string, explicit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if explicit && errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(c.logger, "path does not exist; skipping", "collect_missing_path",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "check the path spelling"),
			)
			return nil
		}
		return services.Wrap(services.ErrFilesystem, "collect", "stat", fmt.Sprintf("inspect %s", path), err)
	}

	switch {
	case info.IsDir():
		return c.walkDir(ctx, path)
	case !info.Mode().IsRegular():
		c.logger.Debug("skipping non-regular file", logging.String("path", path))
		return nil
	case !strings.HasSuffix(info.Name(), c.extension):
		if explicit {
			logging.WarnWithContext(c.logger, "file does not match extension; skipping", "collect_extension_mismatch",
				logging.String("path", path),
				logging.String("extension", c.extension),
			)
		}
		return nil
	}
	return c.addFile(ctx, path)
}

func (c *walk) walkDir(ctx context.Context, dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "collect", "resolve dir", fmt.Sprintf("resolve %s", dir), err)
	}
	if _, ok := c.dirs[resolved]; ok {
		c.logger.Debug("directory already visited", logging.String("path", dir))
		return nil
	}
	c.dirs[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "collect", "read dir", fmt.Sprintf("list %s", dir), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.visit(ctx, filepath.Join(dir, name), false); err != nil {
			return err
		}
	}
	return nil
}

func (c *walk) addFile(ctx context.Context, path string) error {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "collect", "resolve file", fmt.Sprintf("resolve %s", path), err)
	}
	if first, ok := c.files[resolved]; ok {
		c.logger.Debug("file already collected",
			logging.String("path", path),
			logging.String("first_path", first),
		)
		return nil
	}
	c.files[resolved] = path

	fields, err := c.reader.ReadTags(ctx, path)
	if err != nil {
		return err
	}
	rec := c.reg.Add(path, fields)
	c.logger.Debug("collected file",
		logging.Int(logging.FieldRecordID, rec.ID),
		logging.String("path", path),
		logging.Int("tag_count", rec.Tags.Len()),
	)
	return nil
}
