package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"viflac/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "viflac")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.TableDir != "" {
		t.Fatalf("expected blank table dir, got %q", cfg.Paths.TableDir)
	}
	if cfg.TableDirectory() != os.TempDir() {
		t.Fatalf("expected temp dir fallback, got %q", cfg.TableDirectory())
	}
	if cfg.Tags.Extension != ".flac" || cfg.Tags.Reader != config.ReaderMetaflac {
		t.Fatalf("unexpected tag defaults: %+v", cfg.Tags)
	}
	if cfg.Tags.UTF8Convert {
		t.Fatal("expected utf8 conversion disabled by default")
	}
	if cfg.Rename.OnCollision != config.CollisionFail {
		t.Fatalf("unexpected collision policy %q", cfg.Rename.OnCollision)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("expected journal enabled by default")
	}
	if cfg.Table.StrictHeader {
		t.Fatal("expected lenient header parsing by default")
	}
	if cfg.LockPath() != filepath.Join(wantState, "viflac.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
	if cfg.JournalPath() != filepath.Join(wantState, "journal.db") {
		t.Fatalf("unexpected journal path %q", cfg.JournalPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "custom.toml")
	type pathsPayload struct {
		StateDir string `toml:"state_dir"`
		TableDir string `toml:"table_dir"`
	}
	type tagsPayload struct {
		Extension string `toml:"extension"`
		Reader    string `toml:"reader"`
	}
	type renamePayload struct {
		OnCollision string `toml:"on_collision"`
	}
	type loggingPayload struct {
		Format string `toml:"format"`
		Level  string `toml:"level"`
	}
	payload := struct {
		Paths   pathsPayload   `toml:"paths"`
		Tags    tagsPayload    `toml:"tags"`
		Rename  renamePayload  `toml:"rename"`
		Logging loggingPayload `toml:"logging"`
	}{
		Paths:   pathsPayload{StateDir: "~/state", TableDir: "~/tables"},
		Tags:    tagsPayload{Extension: ".FLAC", Reader: " FFprobe "},
		Rename:  renamePayload{OnCollision: "Overwrite"},
		Logging: loggingPayload{Format: "JSON", Level: "Debug"},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir %q", cfg.Paths.StateDir)
	}
	if cfg.TableDirectory() != filepath.Join(tempHome, "tables") {
		t.Fatalf("unexpected table dir %q", cfg.TableDirectory())
	}
	if cfg.Tags.Extension != ".FLAC" {
		t.Fatalf("expected extension to keep its case, got %q", cfg.Tags.Extension)
	}
	if cfg.Tags.Reader != config.ReaderFFprobe {
		t.Fatalf("expected ffprobe reader, got %q", cfg.Tags.Reader)
	}
	if cfg.Rename.OnCollision != config.CollisionOverwrite {
		t.Fatalf("unexpected collision policy %q", cfg.Rename.OnCollision)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Tags.MetaflacBinary != "metaflac" {
		t.Fatalf("expected default metaflac binary, got %q", cfg.Tags.MetaflacBinary)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.TableDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(configPath, []byte("[tags]\nsuffix = \".flac\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "on_collision") {
		t.Fatalf("sample config missing rename section: %s", contents)
	}

	var raw config.Config
	if err := toml.Unmarshal(contents, &raw); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(raw.Paths.StateDir, "viflac") {
		t.Fatalf("expected state dir to contain viflac, got %q", raw.Paths.StateDir)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to be found")
	}
	defaults := config.Default()
	if cfg.Tags.Extension != defaults.Tags.Extension || cfg.Rename.OnCollision != defaults.Rename.OnCollision {
		t.Fatalf("sample diverges from defaults: %+v", cfg)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Tags.Reader = "mutagen"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "tags.reader") {
		t.Fatalf("expected tags.reader error, got %v", err)
	}

	cfg = config.Default()
	cfg.Tags.Extension = "a/b"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for extension containing a separator")
	}

	cfg = config.Default()
	cfg.Rename.OnCollision = "skip"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "rename.on_collision") {
		t.Fatalf("expected rename.on_collision error, got %v", err)
	}

	cfg = config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for logging format")
	}

	cfg = config.Default()
	cfg.Logging.Level = "trace"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for logging level")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateEditRunRejectsFFprobeReader(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateEditRun(); err != nil {
		t.Fatalf("expected metaflac reader to pass, got %v", err)
	}

	cfg.Tags.Reader = config.ReaderFFprobe
	if err := cfg.Validate(); err != nil {
		t.Fatalf("ffprobe reader should stay valid for listing: %v", err)
	}
	err := cfg.ValidateEditRun()
	if !errors.Is(err, config.ErrReadOnlyReader) {
		t.Fatalf("expected ErrReadOnlyReader, got %v", err)
	}
	if !strings.Contains(err.Error(), "tags.reader") {
		t.Fatalf("expected error to name the key, got %v", err)
	}
}
