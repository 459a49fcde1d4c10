package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"viflac/internal/journal"
	"viflac/internal/registry"
	"viflac/internal/renamer"
	"viflac/internal/session"
	"viflac/internal/tablecodec"
	"viflac/internal/tagblock"
)

type fakeFile struct {
	path   string
	fields []tagblock.Field
}

type fakeCollector struct {
	files []fakeFile
	err   error
}

func (c *fakeCollector) Collect(_ context.Context, reg *registry.Registry, _ ...string) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	for _, f := range c.files {
		reg.Add(f.path, f.fields)
	}
	return len(c.files), nil
}

type fakeEditor struct {
	edit   func(string) string
	calls  int
	err    error
	before string
}

func (e *fakeEditor) Edit(_ context.Context, path string) error {
	e.calls++
	if e.err != nil {
		return e.err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	e.before = string(data)
	if e.edit == nil {
		return nil
	}
	return os.WriteFile(path, []byte(e.edit(string(data))), 0o644)
}

type fakeWriter struct {
	blocks map[string]string
	failOn string
}

func (w *fakeWriter) WriteTags(_ context.Context, path, block string) error {
	if path == w.failOn {
		return errors.New("metaflac: exit status 1")
	}
	if w.blocks == nil {
		w.blocks = make(map[string]string)
	}
	w.blocks[path] = block
	return nil
}

type fakeJournal struct {
	stages []string
	events []journal.Event
	status journal.Status
	err    error
	table  string
}

func (j *fakeJournal) BeginRun(context.Context, string) error { return nil }

func (j *fakeJournal) MarkStage(_ context.Context, _ string, stage string) error {
	j.stages = append(j.stages, stage)
	return nil
}

func (j *fakeJournal) SetArtifact(_ context.Context, _ string, path string, _ int) error {
	j.table = path
	return nil
}

func (j *fakeJournal) RecordEvent(_ context.Context, event journal.Event) error {
	j.events = append(j.events, event)
	return nil
}

func (j *fakeJournal) FinishRun(_ context.Context, _ string, status journal.Status, runErr error) error {
	j.status = status
	j.err = runErr
	return nil
}

type fixture struct {
	dir       string
	collector *fakeCollector
	editor    *fakeEditor
	writer    *fakeWriter
	journal   *fakeJournal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.flac")
	b := filepath.Join(dir, "b.flac")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &fixture{
		dir: dir,
		collector: &fakeCollector{files: []fakeFile{
			{path: a, fields: []tagblock.Field{{Key: "ARTIST", Value: "A"}, {Key: "TITLE", Value: "X"}}},
			{path: b, fields: []tagblock.Field{{Key: "ARTIST", Value: "B"}, {Key: "TITLE", Value: "Y"}}},
		}},
		editor:  &fakeEditor{},
		writer:  &fakeWriter{},
		journal: &fakeJournal{},
	}
}

func (f *fixture) session(t *testing.T, opts session.Options) *session.Session {
	t.Helper()
	if opts.TableDir == "" {
		opts.TableDir = filepath.Join(f.dir, "tables")
	}
	if opts.NewRunID == nil {
		opts.NewRunID = func() string { return "0123456789abcdef" }
	}
	s, err := session.New(session.Dependencies{
		Collector: f.collector,
		Editor:    f.editor,
		Writer:    f.writer,
		Journal:   f.journal,
		Renamer:   renamer.New(renamer.Options{}, nil),
		Codec:     tablecodec.New(),
	}, opts)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s
}

func TestRunRetagsAndRenames(t *testing.T) {
	f := newFixture(t)
	a := filepath.Join(f.dir, "a.flac")
	b := filepath.Join(f.dir, "b.flac")
	f.editor.edit = func(table string) string {
		lines := strings.Split(table, "\n")
		lines[1] = "1|" + filepath.Join(f.dir, "{ARTIST} - {TITLE}.flac") + "|A|Z"
		return strings.Join(lines, "\n")
	}

	result, err := f.session(t, session.Options{}).Run(context.Background(), []string{f.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Stage != session.StageDone || result.Records != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.HasPrefix(filepath.Base(result.TablePath), "viflac-01234567-") {
		t.Fatalf("unexpected table name %q", result.TablePath)
	}
	if _, err := os.Stat(result.TablePath); err != nil {
		t.Fatalf("expected table file to be kept: %v", err)
	}
	if !strings.HasPrefix(f.editor.before, "__id|__filename") {
		t.Fatalf("editor saw unexpected table:\n%s", f.editor.before)
	}

	if got := f.writer.blocks[a]; got != "ARTIST=A\nTITLE=Z\n" {
		t.Fatalf("unexpected block for a: %q", got)
	}
	if got := f.writer.blocks[b]; got != "ARTIST=B\nTITLE=Y\n" {
		t.Fatalf("unexpected block for b: %q", got)
	}
	if result.TagsWritten != 2 || result.FilesMoved != 1 {
		t.Fatalf("expected 2 writes and 1 move, got %+v", result)
	}
	renamed := filepath.Join(f.dir, "A_-_Z.flac")
	if data, err := os.ReadFile(renamed); err != nil || string(data) != "a.flac" {
		t.Fatalf("expected a.flac moved to %s: %v", renamed, err)
	}
	if _, err := os.Stat(b); err != nil {
		t.Fatalf("expected b.flac untouched: %v", err)
	}

	wantStages := []string{"collect", "render", "edit", "parse", "export", "write_tags", "rename", "done"}
	if strings.Join(f.journal.stages, ",") != strings.Join(wantStages, ",") {
		t.Fatalf("unexpected stages %v", f.journal.stages)
	}
	if f.journal.status != journal.StatusSucceeded || f.journal.table != result.TablePath {
		t.Fatalf("unexpected journal state %+v", f.journal)
	}
	var retags, renames int
	for _, e := range f.journal.events {
		switch e.Kind {
		case journal.EventRetag:
			retags++
		case journal.EventRename:
			renames++
			if e.TargetPath != renamed {
				t.Fatalf("unexpected rename event %+v", e)
			}
		}
	}
	if retags != 2 || renames != 1 {
		t.Fatalf("expected 2 retag and 1 rename events, got %d and %d", retags, renames)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.editor.edit = func(table string) string {
		return strings.Replace(table, "|X", "|Q", 1)
	}
	result, err := f.session(t, session.Options{DryRun: true}).Run(context.Background(), []string{f.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.DryRun || result.Stage != session.StageExport {
		t.Fatalf("expected dry run to stop after export, got %+v", result)
	}
	if len(f.writer.blocks) != 0 {
		t.Fatalf("expected no tag writes, got %v", f.writer.blocks)
	}
	if result.Summary.ChangedTags != 1 || len(result.Blocks) != 2 || len(result.Moves) != 2 {
		t.Fatalf("expected plan to be reported, got %+v", result)
	}
	if f.journal.status != journal.StatusDryRun {
		t.Fatalf("unexpected status %q", f.journal.status)
	}
}

func TestRunWithNoFilesSkipsEditor(t *testing.T) {
	f := newFixture(t)
	f.collector.files = nil
	result, err := f.session(t, session.Options{}).Run(context.Background(), []string{f.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.editor.calls != 0 || result.TablePath != "" {
		t.Fatalf("expected no editor launch and no table, got calls=%d table=%q", f.editor.calls, result.TablePath)
	}
	if f.journal.status != journal.StatusEmpty {
		t.Fatalf("unexpected status %q", f.journal.status)
	}
}

func TestRunStopsAtFirstWriteFailure(t *testing.T) {
	f := newFixture(t)
	f.writer.failOn = filepath.Join(f.dir, "a.flac")
	result, err := f.session(t, session.Options{}).Run(context.Background(), []string{f.dir})
	if err == nil {
		t.Fatal("expected write failure")
	}
	if result.Stage != session.StageWriteTags || result.TagsWritten != 0 {
		t.Fatalf("unexpected partial result %+v", result)
	}
	if len(f.writer.blocks) != 0 {
		t.Fatalf("expected no later files written, got %v", f.writer.blocks)
	}
	if f.journal.status != journal.StatusFailed || f.journal.err == nil {
		t.Fatalf("expected failed journal entry, got %+v", f.journal)
	}
}

func TestRunRejectsPlanBeforeWriting(t *testing.T) {
	f := newFixture(t)
	f.editor.edit = func(table string) string {
		lines := strings.Split(table, "\n")
		lines[1] = "1|{ALBUM}.flac|A|X"
		return strings.Join(lines, "\n")
	}
	result, err := f.session(t, session.Options{}).Run(context.Background(), []string{f.dir})
	if !errors.Is(err, renamer.ErrMissingPlaceholder) {
		t.Fatalf("expected ErrMissingPlaceholder, got %v", err)
	}
	if result.Stage != session.StageExport || len(f.writer.blocks) != 0 {
		t.Fatalf("expected failure before any write, got stage %s writes %d", result.Stage, len(f.writer.blocks))
	}
}

func TestRunRejectsUnsafeTagKeyBeforeEditing(t *testing.T) {
	f := newFixture(t)
	f.collector.files[0].fields = append(f.collector.files[0].fields, tagblock.Field{Key: "A|B", Value: "1"})

	result, err := f.session(t, session.Options{}).Run(context.Background(), []string{f.dir})
	if !errors.Is(err, tablecodec.ErrUnsafeColumn) {
		t.Fatalf("expected ErrUnsafeColumn, got %v", err)
	}
	if result.Stage != session.StageRender || result.TablePath != "" {
		t.Fatalf("expected render failure without a table, got stage=%s table=%q", result.Stage, result.TablePath)
	}
	if f.editor.calls != 0 || len(f.writer.blocks) != 0 {
		t.Fatalf("expected no edit and no writes, got calls=%d writes=%d", f.editor.calls, len(f.writer.blocks))
	}
	if f.journal.status != journal.StatusFailed {
		t.Fatalf("expected failed run, got %s", f.journal.status)
	}
}

func TestRunFailsOnEditorError(t *testing.T) {
	f := newFixture(t)
	f.editor.err = errors.New("editor exited 1")
	result, err := f.session(t, session.Options{}).Run(context.Background(), []string{f.dir})
	if err == nil || result.Stage != session.StageEdit {
		t.Fatalf("expected edit failure, got stage=%s err=%v", result.Stage, err)
	}
}

func TestRunFailsWhenLocked(t *testing.T) {
	f := newFixture(t)
	lockPath := filepath.Join(f.dir, "viflac.lock")
	held := flock.New(lockPath)
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err = f.session(t, session.Options{LockPath: lockPath}).Run(context.Background(), []string{f.dir})
	if !errors.Is(err, session.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if f.editor.calls != 0 {
		t.Fatal("editor must not run without the lock")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := session.New(session.Dependencies{}, session.Options{}); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}
