package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Orchestrator.TickInterval)
	assert.Equal(t, "connectord", cfg.Orchestrator.WorkerHostname)
	assert.Equal(t, []string{"jira", "filesystem"}, cfg.Orchestrator.NativeServiceTypes)
	assert.Equal(t, "memory", cfg.Gateway.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connectord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orchestrator:
  tick_interval: 30s
  worker_hostname: worker-1
gateway:
  backend: sqlite
  sqlite_path: /var/lib/connectord/db.sqlite
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Orchestrator.TickInterval)
	assert.Equal(t, "worker-1", cfg.Orchestrator.WorkerHostname)
	assert.Equal(t, "sqlite", cfg.Gateway.Backend)
	assert.Equal(t, "/var/lib/connectord/db.sqlite", cfg.Gateway.SQLitePath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingConfigFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
}

func TestLoad_EnvVarOverride(t *testing.T) {
	t.Setenv("CONNECTORD_ORCHESTRATOR_WORKER_HOSTNAME", "env-worker")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-worker", cfg.Orchestrator.WorkerHostname)
}

func TestLoad_InvalidGatewayBackendFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connectord.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  backend: postgres\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_SqliteBackendRequiresPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connectord.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  backend: sqlite\n  sqlite_path: \"\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_RejectsEmptyWorkerHostname(t *testing.T) {
	cfg := &Config{
		Orchestrator: OrchestratorConfig{TickInterval: time.Minute, WorkerHostname: ""},
		Gateway:      GatewayConfig{Backend: "memory"},
		Log:          LogConfig{Level: "info"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveTickInterval(t *testing.T) {
	cfg := &Config{
		Orchestrator: OrchestratorConfig{TickInterval: 0, WorkerHostname: "w"},
		Gateway:      GatewayConfig{Backend: "memory"},
		Log:          LogConfig{Level: "info"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := &Config{
		Orchestrator: OrchestratorConfig{TickInterval: time.Minute, WorkerHostname: "w"},
		Gateway:      GatewayConfig{Backend: "memory"},
		Log:          LogConfig{Level: "info"},
	}
	assert.NoError(t, cfg.Validate())
}
