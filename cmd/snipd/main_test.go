package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMatches = `matches:
  - trigger: ":greet"
    replace: "Hello {{name}}"
    vars:
      - name: name
        type: echo
        params:
          echo: "$1$"
`

func isolate(t *testing.T) (configDir, matchDir string) {
	t.Helper()
	configDir = t.TempDir()
	matchDir = filepath.Join(configDir, "match")
	require.NoError(t, os.MkdirAll(matchDir, 0o700))

	t.Setenv("SNIPD_CONFIG_DIR", configDir)
	t.Setenv("SNIPD_MATCH_DIR", matchDir)
	t.Setenv("SNIPD_HISTORY_PATH", filepath.Join(configDir, "history.db"))
	t.Setenv("SNIPD_LOCK_PATH", filepath.Join(configDir, "snipd.lock"))
	t.Setenv("SNIPD_LOG_LEVEL", "error")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(configDir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return configDir, matchDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, logLevel, renderDir, renderNoRecord = "", "", "", false
	configForce, historyStats, historyTrigger, historyLimit = false, false, "", 20
	loader, cfg, logger = nil, nil, nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "snipd version "+Version)
}

func TestConfigInitAndPath(t *testing.T) {
	dir, _ := isolate(t)

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml")+"\n", out)

	_, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))

	_, err = execute(t, "config", "init")
	assert.Error(t, err)

	_, err = execute(t, "config", "init", "--force")
	assert.NoError(t, err)

	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[render]")
}

func TestRenderAndValidate(t *testing.T) {
	_, matchDir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(matchDir, "base.yml"), []byte(testMatches), 0o600))

	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "1 files, 1 triggers OK")

	out, err = execute(t, "render", ":greet", "world")
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", out)

	_, err = execute(t, "render", ":missing")
	assert.Error(t, err)
}

func TestRenderRecordsHistory(t *testing.T) {
	_, matchDir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(matchDir, "base.yml"), []byte(testMatches), 0o600))

	_, err := execute(t, "render", ":greet", "world")
	require.NoError(t, err)
	_, err = execute(t, "render", "--no-record", ":greet", "again")
	require.NoError(t, err)

	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, ":greet")
	assert.Contains(t, out, "cli:")
	assert.Equal(t, 1, strings.Count(out, ":greet"))

	out, err = execute(t, "history", "--stats")
	require.NoError(t, err)
	assert.Regexp(t, `:greet\s+1\s+0`, out)
}

func TestValidateRejectsUnknownExtension(t *testing.T) {
	_, matchDir := isolate(t)
	bad := `matches:
  - trigger: ":x"
    replace: "{{v}}"
    vars:
      - name: v
        type: nosuch
`
	require.NoError(t, os.WriteFile(filepath.Join(matchDir, "bad.yml"), []byte(bad), 0o600))

	_, err := execute(t, "validate")
	assert.ErrorContains(t, err, "validation failed")
}

func TestHistoryEmpty(t *testing.T) {
	isolate(t)
	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "TRIGGER")

	out, err = execute(t, "history", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "FAILURES")
}
