package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "condarun.yaml", `
mode: rest
api_root: http://localhost:8080/api
socket_url: ws://localhost:8080/api_ws/
log_level: debug
env:
  CONDA_PKGS_DIRS: /tmp/pkgs
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeREST, cfg.Mode)
	assert.Equal(t, "http://localhost:8080/api", cfg.APIRoot)
	assert.Equal(t, "ws://localhost:8080/api_ws/", cfg.SocketURL)
	assert.Equal(t, "conda", cfg.Executable) // default kept
	assert.Equal(t, map[string]string{"CONDA_PKGS_DIRS": "/tmp/pkgs"}, cfg.Env)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_JSONC(t *testing.T) {
	path := writeFile(t, "condarun.jsonc", `{
  // local development install
  "mode": "local",
  "executable": "/opt/miniconda/bin/conda",
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, "/opt/miniconda/bin/conda", cfg.Executable)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"bad_yaml", "c.yaml", "mode: [unterminated"},
		{"bad_json", "c.json", `{"mode": }`},
		{"bad_url", "c.yaml", "api_root: not a url"},
		{"bad_level", "c.yaml", "log_level: chatty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_UnknownModeAccepted(t *testing.T) {
	cfg, err := Load(writeFile(t, "c.yaml", "mode: carrier-pigeon"))
	require.NoError(t, err)
	assert.Equal(t, "carrier-pigeon", cfg.Mode)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	t.Setenv(EnvVar, writeFile(t, "c.yml", "mode: socket\nsocket_url: ws://h/api_ws/\n"))
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ModeSocket, cfg.Mode)
}
