package renamer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"viflac/internal/fileutil"
	"viflac/internal/logging"
	"viflac/internal/registry"
	"viflac/internal/services"
	"viflac/internal/textutil"
)

// ErrCollision reports a target path that is already taken.
var ErrCollision = errors.New("rename target collision")

// Policy decides what happens when a target path already exists.
type Policy string

const (
	// PolicyFail refuses to replace an existing file.
	PolicyFail Policy = "fail"
	// PolicyOverwrite replaces an existing file that no record owns.
	PolicyOverwrite Policy = "overwrite"
)

// Options configures target computation.
type Options struct {
	Policy         Policy
	SanitizeValues bool
	UnicodeNFC     bool
}

// Move is one planned rename.
type Move struct {
	RecordID int
	Source   string
	Target   string
	// NoOp is set when the target is the source itself.
	NoOp bool
	// Replaces is set when the target exists and will be overwritten.
	Replaces bool
}

// Renamer computes rename targets from records and applies them.
type Renamer struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Renamer. An empty policy means PolicyFail.
func New(opts Options, logger *slog.Logger) *Renamer {
	if opts.Policy == "" {
		opts.Policy = PolicyFail
	}
	return &Renamer{opts: opts, logger: logging.NewComponentLogger(logger, "renamer")}
}

// Target returns the cleaned target path for rec.
func (r *Renamer) Target(rec *registry.Record) (string, error) {
	var transform func(string) string
	if r.opts.SanitizeValues {
		transform = textutil.SanitizeSegment
	}
	expanded, err := expand(rec.PathTemplate, rec.Tags, transform)
	if err != nil {
		return "", fmt.Errorf("record %d: %w", rec.ID, err)
	}
	target := NormalizeWhitespace(expanded)
	if r.opts.UnicodeNFC {
		target = norm.NFC.String(target)
	}
	if target == "" {
		return "", fmt.Errorf("record %d: %w: template expands to an empty path", rec.ID, ErrBadTemplate)
	}
	return filepath.Clean(target), nil
}

// Plan computes a Move for every record before anything is touched.
func (r *Renamer) Plan(reg *registry.Registry) ([]Move, error) {
	records := reg.Records()
	moves := make([]Move, 0, len(records))
	sources := make(map[string]int, len(records))
	for _, rec := range records {
		sources[filepath.Clean(rec.SourcePath)] = rec.ID
	}
	claimed := make(map[string]int, len(records))

	for _, rec := range records {
		target, err := r.Target(rec)
		if err != nil {
			return nil, err
		}
		source := filepath.Clean(rec.SourcePath)
		move := Move{RecordID: rec.ID, Source: source, Target: target}
		if owner, ok := claimed[target]; ok {
			return nil, fmt.Errorf("%w: records %d and %d both map to %s", ErrCollision, owner, rec.ID, target)
		}
		claimed[target] = rec.ID

		if target == source {
			move.NoOp = true
			moves = append(moves, move)
			continue
		}
		if owner, ok := sources[target]; ok {
			return nil, fmt.Errorf("%w: record %d targets %s, the file of record %d", ErrCollision, rec.ID, target, owner)
		}
		same, exists, err := sameFile(source, target)
		if err != nil {
			return nil, err
		}
		switch {
		case same && filepath.Base(source) == filepath.Base(target):
			move.NoOp = true
		case same:
			// Case-only rename on a case-insensitive filesystem.
		case exists && r.opts.Policy != PolicyOverwrite:
			return nil, fmt.Errorf("%w: %s already exists (record %d)", ErrCollision, target, rec.ID)
		case exists:
			move.Replaces = true
		}
		moves = append(moves, move)
	}
	return moves, nil
}

func sameFile(source, target string) (same, exists bool, err error) {
	targetInfo, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, false, nil
		}
		return false, false, services.Wrap(services.ErrFilesystem, "rename", "stat target", target, err)
	}
	sourceInfo, err := os.Stat(source)
	if err != nil {
		return false, true, services.Wrap(services.ErrFilesystem, "rename", "stat source", source, err)
	}
	return os.SameFile(sourceInfo, targetInfo), true, nil
}

// Observer is notified after each completed move.
type Observer func(ctx context.Context, move Move)

// Execute applies moves in order and returns the number of files moved. It
// stops at the first failure.
func (r *Renamer) Execute(ctx context.Context, moves []Move, observe Observer) (int, error) {
	moved := 0
	for _, move := range moves {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		if move.NoOp {
			r.logger.Debug("path unchanged", logging.Int(logging.FieldRecordID, move.RecordID), logging.String("path", move.Source))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(move.Target), 0o755); err != nil {
			return moved, services.Wrap(services.ErrFilesystem, "rename", "create directory", filepath.Dir(move.Target), err)
		}
		if err := fileutil.MoveFile(move.Source, move.Target); err != nil {
			return moved, services.Wrap(services.ErrFilesystem, "rename", "move", fmt.Sprintf("%s -> %s", move.Source, move.Target), err)
		}
		moved++
		r.logger.Info("renamed file",
			logging.Int(logging.FieldRecordID, move.RecordID),
			logging.String("source", move.Source),
			logging.String("target", move.Target),
			logging.Bool("replaced", move.Replaces),
		)
		if observe != nil {
			observe(services.WithRecordID(ctx, move.RecordID), move)
		}
	}
	return moved, nil
}
