package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
remote:
  base_url: "http://admin.local/api"
`))
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.HttpListenAddr)
	assert.Equal(t, 10*time.Second, cfg.Remote.PushTimeout)
	assert.Equal(t, 5*time.Second, cfg.Remote.HealthTimeout)
	assert.Equal(t, []int{400, 422}, cfg.Remote.RejectStatuses)
	assert.Equal(t, 5*time.Minute, cfg.Reconciler.Interval)
	assert.False(t, cfg.Reconciler.RunOnStart)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.False(t, cfg.KafkaProducer.Enabled())
	assert.Equal(t, 100, cfg.KafkaProducer.BatchSize)
	assert.Equal(t, "reqsync", cfg.Telemetry.ServiceName)
}

func TestParse_ExplicitValues(t *testing.T) {
	cfg, err := Parse([]byte(`
http_listen_addr: ":8080"
remote:
  base_url: "https://admin.example.com/api"
  push_timeout: 2s
  reject_statuses: [400]
reconciler:
  interval: 30s
  run_on_start: true
storage:
  backend: pebble
  pebble:
    dir: "/var/lib/reqsync"
kafka_producer:
  brokers: ["kafka:9092"]
`))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Remote.PushTimeout)
	assert.Equal(t, []int{400}, cfg.Remote.RejectStatuses)
	assert.Equal(t, 30*time.Second, cfg.Reconciler.Interval)
	assert.True(t, cfg.Reconciler.RunOnStart)
	assert.Equal(t, "/var/lib/reqsync", cfg.Storage.Pebble.Dir)
	assert.True(t, cfg.KafkaProducer.Enabled())
	assert.Equal(t, "reqsync.record-events", cfg.KafkaProducer.Topic)
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing base url", `reconciler: {interval: 1m}`, "base_url is required"},
		{"relative base url", `remote: {base_url: "admin/api"}`, "not an absolute URL"},
		{"non 4xx reject status", `remote: {base_url: "http://a/api", reject_statuses: [500]}`, "must be 4xx"},
		{"unknown backend", "remote: {base_url: \"http://a/api\"}\nstorage: {backend: redis}", "unsupported backend"},
		{"postgres without dsn", "remote: {base_url: \"http://a/api\"}\nstorage: {backend: postgres}", "DSN is required"},
		{"negative interval", "remote: {base_url: \"http://a/api\"}\nreconciler: {interval: -1s}", "interval must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqsync.yml")
	require.NoError(t, os.WriteFile(path, []byte(`remote: {base_url: "http://admin/api"}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://admin/api", cfg.Remote.BaseURL)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadConfig_ShippedDefaults(t *testing.T) {
	cfg, err := LoadConfig("reqsync.defaults.yml")
	require.NoError(t, err)
	assert.Equal(t, BackendPebble, cfg.Storage.Backend)
	assert.Equal(t, ":3002", cfg.GrpcListenAddr)
}

func TestResolvePath(t *testing.T) {
	t.Setenv("REQSYNC_CONFIG", "")
	assert.Equal(t, DefaultPath, ResolvePath(""))

	t.Setenv("REQSYNC_CONFIG", "/etc/reqsync.yml")
	assert.Equal(t, "/etc/reqsync.yml", ResolvePath(""))
	assert.Equal(t, "custom.yml", ResolvePath("custom.yml"))
}
