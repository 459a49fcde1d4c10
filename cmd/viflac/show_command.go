package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"viflac/internal/registry"
	"viflac/internal/services/metaflac"
	"viflac/internal/tablecodec"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE...",
		Short: "Print the tags of files without editing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := metaflac.New(cfg.Tags.MetaflacBinary, metaflac.WithUTF8Convert(cfg.Tags.UTF8Convert))
			if err != nil {
				return err
			}
			coll, err := newCollector(cfg, client, logger)
			if err != nil {
				return err
			}

			reg := registry.New()
			n, err := coll.Collect(cmd.Context(), reg, args...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if n == 0 {
				fmt.Fprintln(out, "No matching files found")
				return nil
			}
			fmt.Fprintln(out, renderRegistry(reg))
			return nil
		},
	}
}

func renderRegistry(reg *registry.Registry) string {
	columns := reg.Columns()
	headers := append([]string{tablecodec.IDColumn, tablecodec.PathColumn}, columns...)
	aligns := make([]columnAlignment, len(headers))
	aligns[0] = alignRight

	rows := make([][]string, 0, reg.Len())
	for _, rec := range reg.Records() {
		row := make([]string, 0, len(headers))
		row = append(row, strconv.Itoa(rec.ID), rec.SourcePath)
		for _, col := range columns {
			row = append(row, rec.TagText(col))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}
