package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"viflac/internal/config"
	"viflac/internal/logging"
)

// runOverrides carries command-line values that take precedence over the
// configuration file.
type runOverrides struct {
	editor       string
	dryRun       bool
	strictHeader bool
	onCollision  string
	logLevel     string
}

type commandContext struct {
	configFlag *string
	overrides  *runOverrides

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, overrides *runOverrides) *commandContext {
	if overrides == nil {
		overrides = &runOverrides{}
	}
	return &commandContext{
		configFlag: configFlag,
		overrides:  overrides,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyOverrides(cfg); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cfg *config.Config) error {
	o := c.overrides
	if value := strings.TrimSpace(o.editor); value != "" {
		cfg.Editor.Command = value
	}
	if o.strictHeader {
		cfg.Table.StrictHeader = true
	}
	if value := strings.TrimSpace(o.onCollision); value != "" {
		cfg.Rename.OnCollision = strings.ToLower(value)
	}
	if value := strings.TrimSpace(o.logLevel); value != "" {
		cfg.Logging.Level = strings.ToLower(value)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
