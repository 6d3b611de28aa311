package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
storage_path: "postgres://localhost/dashboard"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "localhost:8080", cfg.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, "dashboard:events", cfg.Channel)
	assert.Equal(t, 10, cfg.MaxReconnectAttempts)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.False(t, cfg.PatientIncludeZeroCapacity)
}

func TestLoadReadsNestedSections(t *testing.T) {
	path := writeConfig(t, `
storage_path: "postgres://localhost/dashboard"
redis_addr: "redis:6379"
realtime:
  channel: "clinic:push"
  reconnect_delay: 500ms
  max_reconnect_attempts: 3
availability:
  patient_include_zero_capacity: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "clinic:push", cfg.Channel)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, 3, cfg.MaxReconnectAttempts)
	assert.True(t, cfg.PatientIncludeZeroCapacity)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRequiresStoragePath(t *testing.T) {
	path := writeConfig(t, `env: "local"`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEnvIncludesZeroCapacity(t *testing.T) {
	path := writeConfig(t, `storage_path: "postgres://localhost/dashboard"`)
	t.Setenv("PATIENT_INCLUDE_ZERO_CAPACITY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.PatientIncludeZeroCapacity)
}
