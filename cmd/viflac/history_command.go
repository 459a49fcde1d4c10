package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"viflac/internal/config"
	"viflac/internal/journal"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(ctx, func(store *journal.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRuns(runs))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and the files it changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(ctx, func(store *journal.Store) error {
				run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				events, err := store.Events(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				printRun(cmd.OutOrStdout(), run, events)
				return nil
			})
		},
	})

	return historyCmd
}

func withJournal(ctx *commandContext, fn func(*journal.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return fmt.Errorf("journal is disabled (set journal.enabled in %s)", configLabel(ctx))
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func configLabel(ctx *commandContext) string {
	if ctx.configPath != "" {
		return ctx.configPath
	}
	if path, err := config.DefaultConfigPath(); err == nil {
		return path
	}
	return "the config file"
}

func renderRuns(runs []journal.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(historyTimeLayout),
			string(run.Status),
			run.Stage,
			strconv.Itoa(run.RecordCount),
			formatDuration(run),
			run.ErrorKind,
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Status", "Stage", "Files", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func printRun(out io.Writer, run journal.Run, events []journal.Event) {
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Stage:    %s\n", run.Stage)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	if run.Finished() {
		fmt.Fprintf(out, "Finished: %s (%s)\n", run.FinishedAt.Local().Format(historyTimeLayout), formatDuration(run))
	}
	fmt.Fprintf(out, "Files:    %d\n", run.RecordCount)
	if run.TablePath != "" {
		fmt.Fprintf(out, "Table:    %s\n", run.TablePath)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s (%s)\n", run.Error, run.ErrorKind)
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "No files changed")
		return
	}

	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			strconv.Itoa(event.RecordID),
			string(event.Kind),
			event.SourcePath,
			event.TargetPath,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Change", "Source", "Target"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(run journal.Run) string {
	if !run.Finished() {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}
