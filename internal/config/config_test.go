package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("dialect: postgres\ndsn: postgres://localhost/db\nlog_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "postgres://localhost/db", cfg.DSN)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		message string
	}{
		{name: "unknown dialect", src: "dialect: oracle\n", message: "Dialect"},
		{name: "unknown format", src: "format: xml\n", message: "Format"},
		{name: "unknown level", src: "log_level: trace\n", message: "LogLevel"},
		{name: "unknown key", src: "dialekt: mysql\n", message: "dialekt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestLoad_ResolvesSchemaDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "querykit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema: ./schema\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "schema"), cfg.Schema)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadOptional_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadOptional("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Format: "json", LogLevel: "info"}

	logger := cfg.Logger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
