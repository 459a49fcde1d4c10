package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"viflac/internal/config"
	"viflac/internal/testsupport"
)

// stubMetaflac keeps each file's tags in a "<file>.tags" sidecar.
const stubMetaflac = `#!/bin/sh
for last; do :; done
case "$1" in
--export-tags-to=-)
	[ -f "$last.tags" ] && cat "$last.tags"
	exit 0
	;;
--remove-all-tags)
	cat > "$last.tags"
	exit 0
	;;
--version)
	echo "metaflac 1.4.3"
	exit 0
	;;
esac
exit 1
`

// stubFFprobe reports ffmpeg-style keys for every file.
const stubFFprobe = `#!/bin/sh
echo '{"streams":[{"index":0,"codec_type":"audio"}],"format":{"tags":{"track":"1","TITLE":"Song"}}}'
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	musicDir   string
	binDir     string
}

func setupCLITestEnv(t *testing.T, sedExprs ...string) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("EDITOR", "")

	binDir := filepath.Join(base, "bin")
	testsupport.WriteExecutable(t, filepath.Join(binDir, "metaflac"), stubMetaflac)
	testsupport.PrependPath(t, binDir)

	editorPath := filepath.Join(binDir, "fake-editor")
	testsupport.WriteExecutable(t, editorPath, editorScript(sedExprs))
	cfg.Editor.Command = editorPath

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(homeDir, ".config", "viflac", "config.toml"),
		musicDir:   filepath.Join(base, "music"),
		binDir:     binDir,
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

// editorScript edits the table in place with sed, or leaves it untouched
// when no expressions are given.
func editorScript(sedExprs []string) string {
	if len(sedExprs) == 0 {
		return "#!/bin/sh\nexit 0\n"
	}
	args := make([]string, 0, len(sedExprs))
	for _, expr := range sedExprs {
		args = append(args, "-e '"+expr+"'")
	}
	return fmt.Sprintf("#!/bin/sh\nsed %s \"$1\" > \"$1.tmp\" && mv \"$1.tmp\" \"$1\"\n", strings.Join(args, " "))
}

func (e *cliTestEnv) addTrack(t *testing.T, name, tags string) string {
	t.Helper()
	path := filepath.Join(e.musicDir, name)
	testsupport.WriteFile(t, path, "fLaC")
	testsupport.WriteFile(t, path+".tags", tags)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\ntable_dir = %q\n\n[tags]\nreader = %q\n\n[editor]\ncommand = %q\n\n[journal]\nenabled = %t\n\n[logging]\nlevel = %q\n",
		cfg.Paths.StateDir,
		cfg.Paths.TableDir,
		cfg.Tags.Reader,
		cfg.Editor.Command,
		cfg.Journal.Enabled,
		cfg.Logging.Level,
	)
	testsupport.WriteFile(t, path, content)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
