package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"viflac/internal/collector"
	"viflac/internal/config"
	"viflac/internal/journal"
	"viflac/internal/logging"
	"viflac/internal/media/ffprobe"
	"viflac/internal/reconcile"
	"viflac/internal/renamer"
	"viflac/internal/services/editor"
	"viflac/internal/services/metaflac"
	"viflac/internal/session"
	"viflac/internal/tablecodec"
)

func runSession(cmd *cobra.Command, ctx *commandContext, paths []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateEditRun(); err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	writer, err := metaflac.New(cfg.Tags.MetaflacBinary, metaflac.WithUTF8Convert(cfg.Tags.UTF8Convert))
	if err != nil {
		return err
	}
	coll, err := newCollector(cfg, writer, logger)
	if err != nil {
		return err
	}
	launcher, err := editor.New(
		editor.Resolve(cfg.Editor.Command, os.LookupEnv),
		editor.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
		editor.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	deps := session.Dependencies{
		Collector: coll,
		Codec:     tablecodec.New(tablecodec.WithStrictHeader(cfg.Table.StrictHeader), tablecodec.WithLogger(logger)),
		Editor:    launcher,
		Writer:    writer,
		Renamer:   renamer.New(renameOptions(cfg), logger),
		Logger:    logger,
	}
	if store := openJournal(cfg, logger); store != nil {
		defer store.Close()
		deps.Journal = store
	}

	sess, err := session.New(deps, session.Options{
		LockPath: cfg.LockPath(),
		TableDir: cfg.TableDirectory(),
		DryRun:   ctx.overrides.dryRun,
	})
	if err != nil {
		return err
	}

	result, err := sess.Run(cmd.Context(), paths)
	if err != nil {
		if result != nil && result.TablePath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Table kept at %s\n", result.TablePath)
		}
		return err
	}
	printRunResult(cmd.OutOrStdout(), result)
	return nil
}

// openJournal returns nil when the journal is disabled or cannot be opened.
// The run then records nothing; history is never a reason to stop an edit.
func openJournal(cfg *config.Config, logger *slog.Logger) *journal.Store {
	if !cfg.Journal.Enabled {
		return nil
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logging.WarnWithContext(logger, "journal unavailable; run will not be recorded", "journal_open_failed",
			logging.String("journal", cfg.JournalPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "viflac history will not list this run"),
			logging.String(logging.FieldErrorHint, "run viflac check"),
		)
		return nil
	}
	return store
}

// newCollector wires the configured tag reader. Writing always goes through
// metaflac so the metaflac client doubles as the default reader. The ffprobe
// reader only reaches here from show; edit runs reject it in ValidateEditRun.
func newCollector(cfg *config.Config, fallback collector.TagReader, logger *slog.Logger) (*collector.Collector, error) {
	reader := fallback
	if cfg.Tags.Reader == config.ReaderFFprobe {
		reader = ffprobe.NewReader(cfg.Tags.FFprobeBinary)
	}
	return collector.New(reader,
		collector.WithExtension(cfg.Tags.Extension),
		collector.WithLogger(logger),
	)
}

func renameOptions(cfg *config.Config) renamer.Options {
	return renamer.Options{
		Policy:         renamer.Policy(cfg.Rename.OnCollision),
		SanitizeValues: cfg.Rename.SanitizeValues,
		UnicodeNFC:     cfg.Rename.UnicodeNFC,
	}
}

func printRunResult(out io.Writer, result *session.Result) {
	if result.Records == 0 {
		fmt.Fprintln(out, "No matching files found; nothing to edit")
		return
	}
	fmt.Fprintf(out, "Run %s\n", result.RunID)
	fmt.Fprintf(out, "Table: %s\n", result.TablePath)
	fmt.Fprintf(out, "Edited: %s\n", formatSummary(result.Summary))

	if result.DryRun {
		fmt.Fprintln(out, "Dry run: no tags written, no files moved")
		if len(result.Moves) > 0 {
			fmt.Fprintln(out, renderPlan(result.Moves))
		}
		return
	}
	fmt.Fprintf(out, "Tags written: %d\n", result.TagsWritten)
	fmt.Fprintf(out, "Files moved: %d\n", result.FilesMoved)
}

func formatSummary(s reconcile.Summary) string {
	if !s.Changed() {
		return fmt.Sprintf("%d rows, no changes", s.Rows)
	}
	return fmt.Sprintf("%d rows, %d tags changed, %d tags added, %d names changed",
		s.Rows, s.ChangedTags, s.AddedTags, s.ChangedTemplates)
}

func renderPlan(moves []renamer.Move) string {
	rows := make([][]string, 0, len(moves))
	for _, move := range moves {
		action := "rename"
		switch {
		case move.NoOp:
			action = "keep"
		case move.Replaces:
			action = "replace"
		}
		rows = append(rows, []string{
			strconv.Itoa(move.RecordID),
			action,
			move.Source,
			displayTarget(move),
		})
	}
	return renderTable(
		[]string{"ID", "Action", "Source", "Target"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func displayTarget(move renamer.Move) string {
	if move.NoOp {
		return "-"
	}
	if filepath.Dir(move.Target) == filepath.Dir(move.Source) {
		return filepath.Base(move.Target)
	}
	return move.Target
}
