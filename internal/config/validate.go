package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReadOnlyReader reports a tag reader that cannot feed an edit run.
var ErrReadOnlyReader = errors.New("tag reader is read-only")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTags(); err != nil {
		return err
	}
	if err := c.validateRename(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTags() error {
	switch c.Tags.Reader {
	case ReaderMetaflac, ReaderFFprobe:
	default:
		return fmt.Errorf("tags.reader: unsupported value %q (want %q or %q)", c.Tags.Reader, ReaderMetaflac, ReaderFFprobe)
	}
	if strings.ContainsAny(c.Tags.Extension, `/\`) {
		return fmt.Errorf("tags.extension: must be a file name suffix, got %q", c.Tags.Extension)
	}
	return nil
}

func (c *Config) validateRename() error {
	switch c.Rename.OnCollision {
	case CollisionFail, CollisionOverwrite:
		return nil
	default:
		return fmt.Errorf("rename.on_collision: unsupported value %q (want %q or %q)", c.Rename.OnCollision, CollisionFail, CollisionOverwrite)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// ValidateEditRun checks the settings an editing session needs beyond
// Validate. ffprobe reports tags under ffmpeg's names (TRACKNUMBER becomes
// track) with repeated keys joined, so writing its view back through metaflac
// would replace the file's own keys. It is accepted for listing only.
func (c *Config) ValidateEditRun() error {
	if c.Tags.Reader == ReaderFFprobe {
		return fmt.Errorf("tags.reader: %w: %q can be used with viflac show but not to edit; set tags.reader = %q",
			ErrReadOnlyReader, ReaderFFprobe, ReaderMetaflac)
	}
	return nil
}
