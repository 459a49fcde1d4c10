package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTags()
	c.Editor.Command = strings.TrimSpace(c.Editor.Command)
	c.Rename.OnCollision = strings.ToLower(strings.TrimSpace(c.Rename.OnCollision))
	if c.Rename.OnCollision == "" {
		c.Rename.OnCollision = defaultOnCollision
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.TableDir, err = expandPath(strings.TrimSpace(c.Paths.TableDir)); err != nil {
		return fmt.Errorf("paths.table_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTags() {
	c.Tags.Extension = strings.TrimSpace(c.Tags.Extension)
	if c.Tags.Extension == "" {
		c.Tags.Extension = defaultExtension
	}
	c.Tags.Reader = strings.ToLower(strings.TrimSpace(c.Tags.Reader))
	if c.Tags.Reader == "" {
		c.Tags.Reader = defaultReader
	}
	c.Tags.MetaflacBinary = strings.TrimSpace(c.Tags.MetaflacBinary)
	if c.Tags.MetaflacBinary == "" {
		c.Tags.MetaflacBinary = defaultMetaflacBinary
	}
	c.Tags.FFprobeBinary = strings.TrimSpace(c.Tags.FFprobeBinary)
	if c.Tags.FFprobeBinary == "" {
		c.Tags.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
