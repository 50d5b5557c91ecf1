package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binary-install/shassemble/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := executeCommand(t, "init")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.DefaultPathYML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "lib/functions.sh", cfg.Library)
	require.Len(t, cfg.Artifacts, 2)
	assert.Equal(t, "install", cfg.Artifacts[0].Name)
	assert.Equal(t, "uninstall", cfg.Artifacts[1].Name)

	// without --scaffold no library is created
	assert.NoFileExists(t, filepath.Join(dir, "lib", "functions.sh"))
}

func TestInitCommandScaffoldBuilds(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := executeCommand(t, "init", "--scaffold")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "lib", "functions.sh"))
	assert.FileExists(t, filepath.Join(dir, "templates", "install.sh.in"))
	assert.FileExists(t, filepath.Join(dir, "templates", "uninstall.sh.in"))

	out, err := executeCommand(t, "check")
	require.NoError(t, err)
	assert.NotContains(t, out, statusFailed)

	_, err = executeCommand(t, "gen")
	require.NoError(t, err)
	install, err := os.ReadFile(filepath.Join(dir, "dist", "install.sh"))
	require.NoError(t, err)
	assert.Contains(t, string(install), "PROG=$(basename \"$0\")\nlog_info() {")
	assert.True(t, strings.HasSuffix(string(install), "do_install \"$@\"\n"))
}

func TestInitCommandOverwrite(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		answer    string
		wantWrite bool
	}{
		{name: "declined", answer: "n\n", wantWrite: false},
		{name: "confirmed", answer: "yes\n", wantWrite: true},
		{name: "forced", args: []string{"--force"}, wantWrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			path := filepath.Join(dir, config.DefaultPathYML)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte("# keep me\n"), 0644))

			old := stdin
			stdin = strings.NewReader(tt.answer)
			t.Cleanup(func() { stdin = old })

			_, err := executeCommand(t, append([]string{"init"}, tt.args...)...)
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			if tt.wantWrite {
				assert.Contains(t, string(data), "artifacts:")
			} else {
				assert.Equal(t, "# keep me\n", string(data))
			}
		})
	}
}
