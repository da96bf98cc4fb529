package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("PROOFLINE_CONFIG_DIR", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1500*time.Millisecond, cfg.Analysis.Debounce.Duration)
	assert.Equal(t, 5, cfg.Analysis.MinChars)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROOFLINE_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[languagetool]
url = "http://lt.internal:8010"
disabled_rules = ["WHITESPACE_RULE"]

[harper]
command = ["proofline", "harper-worker"]
timeout = "2s"

[analysis]
debounce = "750ms"
eager = false

[prefs]
backend = "redis"
`), 0o644))

	t.Setenv("PROOFLINE_LANGUAGE", "de-DE")
	t.Setenv("PROOFLINE_MIN_CHARS", "12")
	t.Setenv("PROOFLINE_DEBOUNCE", "bogus")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://lt.internal:8010", cfg.LanguageTool.URL)
	assert.Equal(t, "de-DE", cfg.LanguageTool.Language)
	assert.Equal(t, []string{"WHITESPACE_RULE"}, cfg.LanguageTool.DisabledRules)
	assert.Equal(t, []string{"proofline", "harper-worker"}, cfg.Harper.Command)
	assert.Equal(t, 2*time.Second, cfg.Harper.Timeout.Duration)
	assert.Equal(t, 750*time.Millisecond, cfg.Analysis.Debounce.Duration)
	assert.False(t, cfg.Analysis.Eager)
	assert.Equal(t, 12, cfg.Analysis.MinChars)
	assert.Equal(t, "redis", cfg.Prefs.Backend)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[prefs]\nbackend = \"sqlite\"\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoggerLevels(t *testing.T) {
	assert.Equal(t, "DEBUG", Log{Level: "Debug"}.SlogLevel().String())
	assert.Equal(t, "INFO", Log{}.SlogLevel().String())

	var buf bytes.Buffer
	log, closer, err := Log{Level: "warn"}.NewLogger(&buf)
	require.NoError(t, err)
	defer closer.Close()
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "proofline.log")
	log, closer, err := Log{File: path}.NewLogger(nil)
	require.NoError(t, err)
	log.Info("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
