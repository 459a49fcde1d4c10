package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"viflac/internal/deps"
	"viflac/internal/preflight"
	"viflac/internal/services/editor"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify external tools and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(stdout, line)
			}
			configDetail := ctx.configPath
			if !ctx.configExists {
				configDetail += " (not found; defaults in use)"
			}
			fmt.Fprintln(stdout, renderStatusLine("Config file", statusInfo, configDetail, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Tag reader", statusInfo, cfg.Tags.Reader, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Collision policy", statusInfo, cfg.Rename.OnCollision, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Journal", statusInfo, yesNo(cfg.Journal.Enabled), colorize))
			fmt.Fprintln(stdout)

			command := editor.Resolve(cfg.Editor.Command, os.LookupEnv)
			statuses := preflight.CheckSystemDeps(cfg, command)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, status := range statuses {
				version := ""
				if status.Available && status.Name != "Editor" {
					version = preflight.ToolVersion(cmd.Context(), status.Path)
				}
				fmt.Fprintln(stdout, dependencyLine(status, version, colorize))
			}
			fmt.Fprintln(stdout)

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, line := range renderSectionHeader("Directories", colorize) {
				fmt.Fprintln(stdout, line)
			}
			var failed []string
			for _, result := range results {
				fmt.Fprintln(stdout, preflightLine(result, colorize))
				if !result.Passed {
					failed = append(failed, result.Name)
				}
			}

			if !deps.AllSatisfied(statuses) {
				for _, status := range statuses {
					if !status.Satisfied() {
						failed = append(failed, status.Name)
					}
				}
			}
			if len(failed) > 0 {
				return errors.New("preflight failed: " + strings.Join(failed, ", "))
			}
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, "All checks passed")
			return nil
		},
	}
}
