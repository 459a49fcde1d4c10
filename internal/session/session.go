package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"viflac/internal/journal"
	"viflac/internal/logging"
	"viflac/internal/reconcile"
	"viflac/internal/registry"
	"viflac/internal/renamer"
	"viflac/internal/services"
	"viflac/internal/tablecodec"
)

// Stage names one step of a run.
type Stage string

const (
	StageCollect   Stage = "collect"
	StageRender    Stage = "render"
	StageEdit      Stage = "edit"
	StageParse     Stage = "parse"
	StageExport    Stage = "export"
	StageWriteTags Stage = "write_tags"
	StageRename    Stage = "rename"
	StageDone      Stage = "done"
)

// ErrLocked reports that another session holds the run lock.
var ErrLocked = errors.New("another viflac session is running")

// Collector loads files into a registry.
type Collector interface {
	Collect(ctx context.Context, reg *registry.Registry, paths ...string) (int, error)
}

// Editor blocks while the user edits the file at path.
type Editor interface {
	Edit(ctx context.Context, path string) error
}

// Journal records run history.
type Journal interface {
	BeginRun(ctx context.Context, runID string) error
	MarkStage(ctx context.Context, runID, stage string) error
	SetArtifact(ctx context.Context, runID, tablePath string, recordCount int) error
	RecordEvent(ctx context.Context, event journal.Event) error
	FinishRun(ctx context.Context, runID string, status journal.Status, runErr error) error
}

// Dependencies are the collaborators of a Session.
type Dependencies struct {
	Collector Collector
	Codec     *tablecodec.Codec
	Editor    Editor
	Writer    reconcile.TagWriter
	Renamer   *renamer.Renamer
	Journal   Journal
	Logger    *slog.Logger
}

// Options tune a Session.
type Options struct {
	// LockPath is the run lock file. Blank disables locking.
	LockPath string
	// TableDir receives the table file. Blank uses the system temp directory.
	TableDir string
	// DryRun stops after export and reports the plan.
	DryRun bool
	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Result describes what a run did. It is returned, possibly partial, even
// when Run fails.
type Result struct {
	RunID       string
	Stage       Stage
	TablePath   string
	Records     int
	Summary     reconcile.Summary
	Blocks      []reconcile.Block
	Moves       []renamer.Move
	TagsWritten int
	FilesMoved  int
	DryRun      bool
}

// Session executes runs.
type Session struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
}

// New validates deps and constructs a Session.
func New(deps Dependencies, opts Options) (*Session, error) {
	var missing []string
	if deps.Collector == nil {
		missing = append(missing, "collector")
	}
	if deps.Editor == nil {
		missing = append(missing, "editor")
	}
	if deps.Writer == nil {
		missing = append(missing, "tag writer")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("session: missing %s", strings.Join(missing, ", "))
	}
	if deps.Codec == nil {
		deps.Codec = tablecodec.New(tablecodec.WithLogger(deps.Logger))
	}
	if deps.Renamer == nil {
		deps.Renamer = renamer.New(renamer.Options{}, deps.Logger)
	}
	if deps.Journal == nil {
		deps.Journal = journal.Discard{}
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Session{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "session"),
	}, nil
}

// Run executes every stage over paths.
func (s *Session) Run(ctx context.Context, paths []string) (*Result, error) {
	unlock, err := s.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &Result{RunID: s.opts.NewRunID(), DryRun: s.opts.DryRun}
	ctx = services.WithRunID(ctx, result.RunID)
	s.record(ctx, "begin run", s.deps.Journal.BeginRun(ctx, result.RunID))

	status, err := s.run(ctx, result, paths)
	if err != nil {
		status = journal.StatusFailed
		logging.ErrorWithContext(logging.WithContext(services.WithStage(ctx, string(result.Stage)), s.logger),
			"run failed", "session_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
	}
	s.record(ctx, "finish run", s.deps.Journal.FinishRun(ctx, result.RunID, status, err))
	return result, err
}

func (s *Session) run(ctx context.Context, result *Result, paths []string) (journal.Status, error) {
	reg := registry.New()

	stageCtx := s.enter(ctx, result, StageCollect)
	n, err := s.deps.Collector.Collect(stageCtx, reg, paths...)
	if err != nil {
		return "", err
	}
	result.Records = n
	if n == 0 {
		logging.WarnWithContext(logging.WithContext(stageCtx, s.logger), "no files collected; nothing to edit", "session_empty",
			logging.Strings("paths", paths),
			logging.String(logging.FieldImpact, "editor not launched"),
		)
		return journal.StatusEmpty, nil
	}

	stageCtx = s.enter(ctx, result, StageRender)
	if result.TablePath, err = s.renderTable(result.RunID, reg); err != nil {
		return "", err
	}
	s.record(stageCtx, "set artifact", s.deps.Journal.SetArtifact(stageCtx, result.RunID, result.TablePath, n))
	logging.WithContext(stageCtx, s.logger).Info("table written",
		logging.String("table_path", result.TablePath),
		logging.Int("records", n),
		logging.Int("columns", len(reg.Columns())),
	)

	stageCtx = s.enter(ctx, result, StageEdit)
	if err := s.deps.Editor.Edit(stageCtx, result.TablePath); err != nil {
		return "", err
	}

	stageCtx = s.enter(ctx, result, StageParse)
	edit, err := s.parseTable(result.TablePath)
	if err != nil {
		return "", err
	}
	if result.Summary, err = reconcile.Apply(reg, edit); err != nil {
		return "", services.Wrap(services.ErrValidation, string(StageParse), "apply edit", "", err)
	}
	logging.WithContext(stageCtx, s.logger).Info("edit applied",
		logging.Int("rows", result.Summary.Rows),
		logging.Int("changed_tags", result.Summary.ChangedTags),
		logging.Int("added_tags", result.Summary.AddedTags),
		logging.Int("changed_templates", result.Summary.ChangedTemplates),
	)

	stageCtx = s.enter(ctx, result, StageExport)
	result.Blocks = reconcile.Export(reg)
	for _, block := range result.Blocks {
		logging.WithContext(services.WithRecordID(stageCtx, block.RecordID), s.logger).Debug("tag block",
			logging.String("path", block.Path),
			logging.String("block", block.Text),
		)
	}
	if result.Moves, err = s.deps.Renamer.Plan(reg); err != nil {
		return "", services.Wrap(services.ErrValidation, string(StageExport), "plan renames", "", err)
	}
	if s.opts.DryRun {
		logging.WithContext(stageCtx, s.logger).Info("dry run; no files written",
			logging.Int("blocks", len(result.Blocks)),
			logging.Int("moves", pendingMoves(result.Moves)),
		)
		return journal.StatusDryRun, nil
	}

	stageCtx = s.enter(ctx, result, StageWriteTags)
	result.TagsWritten, err = reconcile.Write(stageCtx, s.deps.Writer, result.Blocks, s.deps.Logger, func(ctx context.Context, block reconcile.Block) {
		s.record(ctx, "record retag", s.deps.Journal.RecordEvent(ctx, journal.Event{
			RunID:      result.RunID,
			RecordID:   block.RecordID,
			Kind:       journal.EventRetag,
			SourcePath: block.Path,
		}))
	})
	if err != nil {
		return "", err
	}

	stageCtx = s.enter(ctx, result, StageRename)
	result.FilesMoved, err = s.deps.Renamer.Execute(stageCtx, result.Moves, func(ctx context.Context, move renamer.Move) {
		s.record(ctx, "record rename", s.deps.Journal.RecordEvent(ctx, journal.Event{
			RunID:      result.RunID,
			RecordID:   move.RecordID,
			Kind:       journal.EventRename,
			SourcePath: move.Source,
			TargetPath: move.Target,
		}))
	})
	if err != nil {
		return "", err
	}

	stageCtx = s.enter(ctx, result, StageDone)
	logging.WithContext(stageCtx, s.logger).Info("run complete",
		logging.Int("tags_written", result.TagsWritten),
		logging.Int("files_moved", result.FilesMoved),
	)
	return journal.StatusSucceeded, nil
}

func (s *Session) enter(ctx context.Context, result *Result, stage Stage) context.Context {
	result.Stage = stage
	stageCtx := services.WithStage(ctx, string(stage))
	logging.WithContext(stageCtx, s.logger).Debug("entering stage")
	s.record(stageCtx, "mark stage", s.deps.Journal.MarkStage(stageCtx, result.RunID, string(stage)))
	return stageCtx
}

func (s *Session) renderTable(runID string, reg *registry.Registry) (string, error) {
	prefix := runID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	if err := tablecodec.Validate(reg); err != nil {
		return "", services.Wrap(services.ErrValidation, string(StageRender), "check table", "", err)
	}
	dir := s.opts.TableDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", services.Wrap(services.ErrFilesystem, string(StageRender), "create table dir", dir, err)
		}
	}
	file, err := os.CreateTemp(dir, "viflac-"+prefix+"-*.txt")
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, string(StageRender), "create table file", dir, err)
	}
	path := file.Name()
	if err := s.deps.Codec.Render(file, reg); err != nil {
		_ = file.Close()
		return path, services.Wrap(services.ErrFilesystem, string(StageRender), "write table", path, err)
	}
	if err := file.Close(); err != nil {
		return path, services.Wrap(services.ErrFilesystem, string(StageRender), "close table", path, err)
	}
	return path, nil
}

func (s *Session) parseTable(path string) (*tablecodec.Edit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, string(StageParse), "open table", path, err)
	}
	defer file.Close()
	edit, err := s.deps.Codec.Parse(file)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, string(StageParse), "parse table", path, err)
	}
	return edit, nil
}

func (s *Session) acquireLock() (func(), error) {
	if s.opts.LockPath == "" {
		return func() {}, nil
	}
	lock := flock.New(s.opts.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "", "acquire lock", s.opts.LockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, s.opts.LockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release run lock", logging.String("lock", s.opts.LockPath), logging.Error(err))
		}
	}, nil
}

// record logs a failed journal write. History is best effort and never
// fails a run.
func (s *Session) record(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "journal write failed", "journal_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldImpact, "run history incomplete"),
	)
}

func pendingMoves(moves []renamer.Move) int {
	n := 0
	for _, m := range moves {
		if !m.NoOp {
			n++
		}
	}
	return n
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, renamer.ErrCollision):
		return "change the __filename templates so every target is unique, or set rename.on_collision"
	case errors.Is(err, renamer.ErrMissingPlaceholder):
		return "every {KEY} in __filename must name a tag of that row"
	case errors.Is(err, reconcile.ErrUnknownRecord), errors.Is(err, tablecodec.ErrInvalidRowID):
		return "do not change the __id column"
	case errors.Is(err, tablecodec.ErrUnsafeColumn), errors.Is(err, tablecodec.ErrUnsafeCell):
		return "fix the tag with metaflac first; keys and values may not contain | or line breaks"
	case errors.Is(err, services.ErrExternalTool):
		return "check that the tag tool and editor are installed (viflac check)"
	default:
		return "check logs for details"
	}
}
