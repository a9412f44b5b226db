package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKDESK_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Poll.AdminInterval)
	require.Equal(t, 5*time.Minute, cfg.Poll.UserInterval)
	require.Equal(t, 3*time.Second, cfg.Poll.BannerTTL)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "taskdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://file.example/api
  timeout: 5s
session:
  path: ":memory:"
poll:
  admin_interval: 10s
log:
  level: debug
`), 0o600))

	t.Setenv("TASKDESK_CONFIG_PATH", path)
	t.Setenv("TASKDESK_API_URL", "http://env.example/api")
	t.Setenv("TASKDESK_USER_POLL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://env.example/api", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, ":memory:", cfg.Session.Path)
	require.Equal(t, 10*time.Second, cfg.Poll.AdminInterval)
	require.Equal(t, time.Minute, cfg.Poll.UserInterval)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKDESK_LOG_LEVEL=warn\n"), 0o600))
	t.Setenv("TASKDESK_CONFIG_PATH", "")
	// godotenv never overrides variables that are already set, so make sure
	// the key starts out unset and is cleaned up afterwards.
	t.Setenv("TASKDESK_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("TASKDESK_LOG_LEVEL"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKDESK_ADMIN_POLL", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "TASKDESK_ADMIN_POLL")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Poll.UserInterval = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.API.BaseURL = ""
	require.Error(t, cfg.Validate())
}
