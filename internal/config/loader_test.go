package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
mqtt:
  broker_url: tcp://localhost:1883
broker:
  kafka:
    brokers:
      - localhost:9092
database:
  postgres:
    host: localhost
    port: 5432
    user: test
    password: test
    dbname: test
    sslmode: disable
  redis:
    host: localhost
    port: 6379
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "stream.telemetry", cfg.Broker.Kafka.Topics.Telemetry)
	assert.Equal(t, "stream.dlq", cfg.Broker.Kafka.Topics.DLQ)
	assert.Equal(t, 60, cfg.Pipeline.RateLimit.MessagesPerWindow)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.RateLimit.Window)
	assert.Equal(t, 100, cfg.Pipeline.Batch.Size)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.Batch.FlushInterval)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.Validator.MaxFutureSkew)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1, cfg.MQTT.QoS)
}

func TestLoadConfigRequiresMQTTBroker(t *testing.T) {
	content := `
broker:
  kafka:
    brokers:
      - localhost:9092
database:
  postgres:
    host: localhost
  redis:
    host: localhost
`
	_, err := LoadConfig(writeConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt.broker_url")
}

func TestLoadConfigRejectsBadSeeds(t *testing.T) {
	content := minimalConfig + `
pipeline:
  roadnet:
    segments:
      - segment_id: SEG_001
        speed_limit: 0
        road_type: urban
`
	_, err := LoadConfig(writeConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speed_limit")
}

func TestKafkaBrokersEnvOverride(t *testing.T) {
	t.Setenv("BROKER_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.Kafka.Brokers)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
