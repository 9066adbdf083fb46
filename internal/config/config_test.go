package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/config"
)

func TestLoad_FallsBackToDefaultsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().WorkerPoolSize, cfg.WorkerPoolSize)
	assert.Equal(t, config.Defaults().HTTPAddr, cfg.HTTPAddr)
}

func TestLoad_ReadsExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("worker_pool_size: 42\nhttp_addr: \":9999\"\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.WorkerPoolSize)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv("TX_WORKER_POOL_SIZE", "7")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.WorkerPoolSize)
}

func TestDefaults_TranscriptRootsIncludesDataDir(t *testing.T) {
	cfg := config.Defaults()
	assert.Contains(t, cfg.TranscriptRoots, ".tx")
}

func TestDurationHelpers(t *testing.T) {
	cfg := config.Defaults()
	assert.Equal(t, cfg.ReconcileIntervalSeconds, int(cfg.ReconcileInterval().Seconds()))
	assert.Equal(t, cfg.HeartbeatIntervalSeconds, int(cfg.HeartbeatInterval().Seconds()))
	assert.Equal(t, cfg.LeaseDurationMinutes, int(cfg.LeaseDuration().Minutes()))
}
