package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"viflac/internal/logging"
	"viflac/internal/registry"
	"viflac/internal/services"
	"viflac/internal/tablecodec"
	"viflac/internal/tagblock"
)

// ErrUnknownRecord reports a table row whose id matches no record.
var ErrUnknownRecord = errors.New("unknown record id")

// Summary counts what Apply changed.
type Summary struct {
	Rows             int
	ChangedTags      int
	AddedTags        int
	ChangedTemplates int
}

// Changed reports whether Apply modified anything.
func (s Summary) Changed() bool {
	return s.ChangedTags+s.AddedTags+s.ChangedTemplates > 0
}

// Apply writes every parsed row into the record with the same id. The path
// column replaces the record's template; every other column replaces that
// tag. Columns missing from the edit leave tags untouched, and an empty cell
// never creates a tag the record did not already have.
func Apply(reg *registry.Registry, edit *tablecodec.Edit) (Summary, error) {
	var summary Summary
	if edit == nil {
		return summary, nil
	}
	for _, row := range edit.Rows {
		rec, ok := reg.Record(row.ID)
		if !ok {
			return summary, fmt.Errorf("%w: %d", ErrUnknownRecord, row.ID)
		}
		summary.Rows++
		for _, cell := range row.Cells {
			if cell.Column == tablecodec.PathColumn {
				if rec.PathTemplate != cell.Value.Text {
					rec.PathTemplate = cell.Value.Text
					summary.ChangedTemplates++
				}
				continue
			}
			_, existed := rec.Tags.Get(cell.Column)
			if !existed && cell.Value.Text == "" {
				continue
			}
			changed, err := reg.SetTag(rec.ID, cell.Column, cell.Value)
			if err != nil {
				return summary, err
			}
			switch {
			case !existed:
				summary.AddedTags++
			case changed:
				summary.ChangedTags++
			}
		}
	}
	return summary, nil
}

// Block is the tag text destined for one file.
type Block struct {
	RecordID int
	Path     string
	Text     string
}

// Export renders one tag block per record in ascending id order. Bookkeeping
// keys are never exported and a record without tags yields an empty block.
func Export(reg *registry.Registry) []Block {
	records := reg.Records()
	blocks := make([]Block, 0, len(records))
	for _, rec := range records {
		blocks = append(blocks, Block{
			RecordID: rec.ID,
			Path:     rec.SourcePath,
			Text:     tagblock.Format(rec.Fields()),
		})
	}
	return blocks
}

// TagWriter replaces every tag of the file at path with block.
type TagWriter interface {
	WriteTags(ctx context.Context, path, block string) error
}

// Observer is notified after each block is written.
type Observer func(ctx context.Context, block Block)

// Write hands blocks to writer in order and returns at the first failure.
// It returns the number of files written.
func Write(ctx context.Context, writer TagWriter, blocks []Block, logger *slog.Logger, observe Observer) (int, error) {
	logger = logging.NewComponentLogger(logger, "reconcile")
	written := 0
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		blockCtx := services.WithRecordID(ctx, block.RecordID)
		logger.Debug("writing tags", logging.Args(append(logging.ContextFields(blockCtx),
			logging.String("path", block.Path),
			logging.String("block", block.Text),
		)...)...)
		if err := writer.WriteTags(blockCtx, block.Path, block.Text); err != nil {
			return written, err
		}
		written++
		if observe != nil {
			observe(blockCtx, block)
		}
	}
	return written, nil
}
