package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
service:
  name: myhub
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "myhub", cfg.Service.Name)
	assert.Equal(t, "INFO", cfg.Service.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Service.HeartbeatInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.Journal.Retention)
	assert.Equal(t, 256, cfg.Executor.QueueSize)
	assert.Equal(t, "drain", cfg.Executor.StopPolicy)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, "127.0.0.1:8787", cfg.API.Listen)
	assert.Equal(t, 256, cfg.API.FeedCapacity)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  name: hub-prod
  log_level: DEBUG
  heartbeat_interval: 10s
journal:
  retention: 48h
executor:
  queue_size: 1024
  stop_policy: discard
api:
  enabled: true
  listen: "0.0.0.0:9000"
  feed_capacity: 512
  auth:
    api_key: super-secret
    tokens:
      - token: reader
        scopes: [signals:ro, journal:ro]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Service.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Service.HeartbeatInterval)
	assert.Equal(t, 48*time.Hour, cfg.Journal.Retention)
	assert.Equal(t, 1024, cfg.Executor.QueueSize)
	assert.Equal(t, "discard", cfg.Executor.StopPolicy)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.API.Listen)
	assert.Equal(t, 512, cfg.API.FeedCapacity)
	assert.Equal(t, "super-secret", cfg.API.Auth.APIKey)
	require.Len(t, cfg.API.Auth.Tokens, 1)
	assert.Equal(t, []string{"signals:ro", "journal:ro"}, cfg.API.Auth.Tokens[0].Scopes)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDirectoryFallsBackToConfigYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("service:\n  name: from-dir\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dir", cfg.Service.Name)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "service: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadStopPolicy(t *testing.T) {
	path := writeConfig(t, `
executor:
  stop_policy: flush
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop_policy")
}

func TestValidateRejectsAPIWithoutAuth(t *testing.T) {
	path := writeConfig(t, `
api:
  enabled: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.auth")
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	path := writeConfig(t, `
api:
  enabled: true
  auth:
    tokens:
      - token: ""
        scopes: [signals:ro]
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDiscoverConfigPathEnvOverride(t *testing.T) {
	path := writeConfig(t, "service:\n  name: via-env\n")
	t.Setenv("SIGNALHUB_CONFIG", path)

	found, err := DiscoverConfigPath()
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestParseSkipsIntegrityCheck(t *testing.T) {
	path := writeConfig(t, "service:\n  name: locked\n")
	_, err := WriteChecksum(path)
	require.NoError(t, err)

	// Tamper after locking.
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: edited\n"), 0o644))

	_, err = Load(path)
	require.Error(t, err, "Load enforces the checksum")

	cfg, err := Parse(path)
	require.NoError(t, err, "Parse ignores the checksum")
	assert.Equal(t, "edited", cfg.Service.Name)
}
