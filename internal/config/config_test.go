package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "api_url: http://api.local/agendamentos/\nweek_start: friday\nlog_level: LOUD\nrequest_timeout_seconds: -3\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.local/agendamentos", cfg.APIURL)
	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.RequestTimeoutSeconds)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Empty(t, cfg.RefreshCron)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.RefreshCron = "*/5 * * * *"
	cfg.WeekStart = "monday"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SISVEI_API_URL":   "https://frota.example/api/",
		"SISVEI_LOG_LEVEL": "debug",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "https://frota.example/api", cfg.APIURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, defaultListen, cfg.Listen)
}

func TestDerivedValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Sunday, cfg.Weekday())
	assert.Zero(t, cfg.RequestTimeout())

	cfg.WeekStart = "monday"
	cfg.RequestTimeoutSeconds = 15
	assert.Equal(t, time.Monday, cfg.Weekday())
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	cfg.Timezone = "Mars/Olympus_Mons"
	loc, err = cfg.Location()
	assert.Error(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestSaveIsOwnerOnlyAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.LogLevel = "LOUD"
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.yaml", entries[0].Name())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", loaded.LogLevel)
}
