package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var overrides runOverrides

	ctx := newCommandContext(&configFlag, &overrides)

	rootCmd := &cobra.Command{
		Use:   "viflac [flags] FILE...",
		Short: "Edit FLAC tags and file names in a text editor",
		Long: "viflac collects the tags of the given files and directories into a\n" +
			"column-aligned table, opens it in your editor, then writes the edited\n" +
			"tags back and renames files from the edited __filename column.\n\n" +
			"A file or directory named like a subcommand (check, config, history,\n" +
			"show) must be given with a path prefix, for example ./history.",
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, ctx, args)
		},
	}
	rootCmd.SetVersionTemplate("viflac version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&overrides.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&overrides.editor, "editor", "", "Editor command (overrides editor.command and $EDITOR)")
	rootCmd.Flags().BoolVar(&overrides.dryRun, "dry-run", false, "Show planned tag writes and renames without changing files")
	rootCmd.Flags().BoolVar(&overrides.strictHeader, "strict-header", false, "Fail when the first table line is not the column header")
	rootCmd.Flags().StringVar(&overrides.onCollision, "on-collision", "", "Rename collision policy (fail or overwrite)")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
