package config_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "10s", cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File)
	assert.Equal(t, "1s", cfg.Alert.Tick)
	assert.Equal(t, "webhook", cfg.Channels.Primary.Backend)
	assert.False(t, cfg.Channels.Risky.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "safetyring/ring/trigger", cfg.MQTT.TriggerTopic)
	assert.Equal(t, "15s", cfg.Connectivity.Interval)
	assert.Equal(t, "10m", cfg.Geocoder.CacheTTL)
	assert.Contains(t, cfg.Storage.Path, "safetyring.db")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  path: /tmp/test.db
server:
  listen: ":9090"
logging:
  level: debug
  file: /tmp/safetyring.log
channels:
  primary:
    backend: slack
    url: https://hooks.slack.com/services/T/B/X
  risky:
    enabled: true
    homeserver: https://matrix.example.org
    rooms:
      - handle: "+33611111111"
        room: "!family:example.org"
      - handle: "@Bob:matrix.org"
        room: "!bob:matrix.org"
mqtt:
  enabled: true
  broker: tcp://broker:1883
`)
	err := os.WriteFile(cfgPath, data, 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/safetyring.log", cfg.Logging.File)
	assert.Equal(t, "slack", cfg.Channels.Primary.Backend)
	assert.True(t, cfg.Channels.Risky.Enabled)
	rooms := cfg.Channels.Risky.RoomMap()
	assert.Equal(t, "!family:example.org", rooms["+33611111111"])
	assert.Equal(t, "!bob:matrix.org", rooms["@Bob:matrix.org"])
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "safetyring/ring/cmd", cfg.MQTT.CommandTopic)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SR_LOGGING_LEVEL", "error")
	t.Setenv("SR_SERVER_LISTEN", ":7070")
	t.Setenv("SR_CHANNELS_PRIMARY_URL", "https://sms.example.com/send")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, "https://sms.example.com/send", cfg.Channels.Primary.URL)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2s", 2 * time.Second},
		{"", time.Minute},
		{"soon", time.Minute},
		{"-1s", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, config.Duration(tt.in, time.Minute))
		})
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safetyring.log")
	logger, closer := config.NewLogger(config.LoggingConfig{Level: "debug", Format: "text", File: path, MaxSizeMB: 1})
	logger.Debug("ring connected", "broker", "tcp://localhost:1883")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ring connected")
	assert.Contains(t, string(data), "level=DEBUG")
}

func TestNewLogger_Level(t *testing.T) {
	logger, closer := config.NewLogger(config.LoggingConfig{Level: "warn"})
	defer closer.Close()

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
