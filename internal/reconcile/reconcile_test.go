package reconcile_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"viflac/internal/reconcile"
	"viflac/internal/registry"
	"viflac/internal/tablecodec"
	"viflac/internal/tagblock"
)

func parse(t *testing.T, text string) *tablecodec.Edit {
	t.Helper()
	edit, err := tablecodec.New().Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return edit
}

func TestApplyTwoFileEdit(t *testing.T) {
	reg := registry.New()
	reg.Add("/m/a.flac", []tagblock.Field{{Key: "ARTIST", Value: "A"}, {Key: "TITLE", Value: "X"}})
	reg.Add("/m/b.flac", []tagblock.Field{{Key: "ARTIST", Value: "B"}, {Key: "TITLE", Value: "Y"}})

	edit := parse(t, "__id|__filename|ARTIST|TITLE\n1|/m/a.flac|A|Z\n2|/m/b.flac|B|Y\n")
	summary, err := reconcile.Apply(reg, edit)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if summary.ChangedTags != 1 || summary.AddedTags != 0 || summary.ChangedTemplates != 0 || summary.Rows != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	blocks := reconcile.Export(reg)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "ARTIST=A\nTITLE=Z\n" {
		t.Fatalf("unexpected first block %q", blocks[0].Text)
	}
	if blocks[1].Text != "ARTIST=B\nTITLE=Y\n" {
		t.Fatalf("unexpected second block %q", blocks[1].Text)
	}
}

func TestApplyUpdatesTemplateAndAddsColumns(t *testing.T) {
	reg := registry.New()
	reg.Add("/m/a.flac", []tagblock.Field{{Key: "TITLE", Value: "X"}})

	edit := parse(t, "__id|__filename|TITLE|GENRE\n1|{TITLE}.flac|X|Rock\n")
	summary, err := reconcile.Apply(reg, edit)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if summary.ChangedTemplates != 1 || summary.AddedTags != 1 || !summary.Changed() {
		t.Fatalf("unexpected summary %+v", summary)
	}
	rec, _ := reg.Record(1)
	if rec.PathTemplate != "{TITLE}.flac" {
		t.Fatalf("unexpected template %q", rec.PathTemplate)
	}
	if got := reg.Columns(); !reflect.DeepEqual(got, []string{"TITLE", "GENRE"}) {
		t.Fatalf("expected GENRE column, got %v", got)
	}
}

func TestApplyLeavesMissingColumnsAndEmptyCells(t *testing.T) {
	reg := registry.New()
	reg.Add("/m/a.flac", []tagblock.Field{{Key: "ARTIST", Value: "A"}, {Key: "TITLE", Value: "T"}})
	reg.Add("/m/b.flac", []tagblock.Field{{Key: "ARTIST", Value: "B"}})

	edit := parse(t, "__id|__filename|TITLE\n1|/m/a.flac|\n2|/m/b.flac|\n")
	summary, err := reconcile.Apply(reg, edit)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	first, _ := reg.Record(1)
	if first.TagText("ARTIST") != "A" {
		t.Fatal("expected ARTIST to survive its column being deleted")
	}
	if v, ok := first.Tags.Get("TITLE"); !ok || v.Text != "" {
		t.Fatalf("expected TITLE to be blanked, got %+v ok=%v", v, ok)
	}
	second, _ := reg.Record(2)
	if _, ok := second.Tags.Get("TITLE"); ok {
		t.Fatal("expected empty cell not to create a TITLE tag")
	}
	if summary.ChangedTags != 1 || summary.AddedTags != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestApplyRejectsUnknownRecord(t *testing.T) {
	reg := registry.New()
	reg.Add("/m/a.flac", nil)
	_, err := reconcile.Apply(reg, parse(t, "__id|TITLE\n7|X\n"))
	if !errors.Is(err, reconcile.ErrUnknownRecord) {
		t.Fatalf("expected ErrUnknownRecord, got %v", err)
	}
}

func TestExportSkipsBookkeepingKeys(t *testing.T) {
	reg := registry.New()
	reg.Add("/m/a.flac", []tagblock.Field{{Key: "ARTIST", Value: "A"}, {Key: "__path", Value: "/m/a.flac"}})
	reg.Add("/m/b.flac", nil)

	blocks := reconcile.Export(reg)
	if blocks[0].Text != "ARTIST=A\n" {
		t.Fatalf("unexpected block %q", blocks[0].Text)
	}
	if blocks[1].Text != "" {
		t.Fatalf("expected empty block for record without tags, got %q", blocks[1].Text)
	}
	if blocks[0].Path != "/m/a.flac" || blocks[0].RecordID != 1 {
		t.Fatalf("unexpected block identity %+v", blocks[0])
	}
}

func TestExportKeepsOriginalDigits(t *testing.T) {
	reg := registry.New()
	reg.Add("/m/a.flac", []tagblock.Field{{Key: "TRACKNUMBER", Value: "01"}})
	if _, err := reconcile.Apply(reg, parse(t, "__id|TRACKNUMBER\n1|01\n")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := reconcile.Export(reg)[0].Text; got != "TRACKNUMBER=01\n" {
		t.Fatalf("expected zero padding to survive, got %q", got)
	}
}

type recordingWriter struct {
	paths  []string
	blocks []string
	failOn string
}

func (w *recordingWriter) WriteTags(_ context.Context, path, block string) error {
	if path == w.failOn {
		return errors.New("metaflac failed")
	}
	w.paths = append(w.paths, path)
	w.blocks = append(w.blocks, block)
	return nil
}

func TestWriteStopsAtFirstFailure(t *testing.T) {
	blocks := []reconcile.Block{
		{RecordID: 1, Path: "a", Text: "A=1\n"},
		{RecordID: 2, Path: "b", Text: "B=2\n"},
		{RecordID: 3, Path: "c", Text: "C=3\n"},
	}
	writer := &recordingWriter{failOn: "b"}
	var observed []int
	n, err := reconcile.Write(context.Background(), writer, blocks, nil, func(_ context.Context, b reconcile.Block) {
		observed = append(observed, b.RecordID)
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if n != 1 || !reflect.DeepEqual(writer.paths, []string{"a"}) || !reflect.DeepEqual(observed, []int{1}) {
		t.Fatalf("expected only first block written, n=%d paths=%v observed=%v", n, writer.paths, observed)
	}

	writer = &recordingWriter{}
	n, err = reconcile.Write(context.Background(), writer, blocks, nil, nil)
	if err != nil || n != 3 {
		t.Fatalf("expected all blocks written, n=%d err=%v", n, err)
	}
	if writer.blocks[2] != "C=3\n" {
		t.Fatalf("expected blocks passed verbatim, got %q", writer.blocks[2])
	}
}
