package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Zero(t, cfg.StageDelay)
	assert.Empty(t, cfg.SourceURL)
	assert.Equal(t, 5*time.Second, cfg.SourceTimeout)
	assert.Empty(t, cfg.FixturePath)
	assert.False(t, cfg.FixtureWatch)
	assert.Empty(t, cfg.RefreshSchedule)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "building-energy", cfg.KafkaSinkTopic)
	assert.Equal(t, 10, cfg.ChartTopN)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("STAGE_DELAY", "250ms")
	t.Setenv("SOURCE_URL", "http://energy.local/buildings")
	t.Setenv("SOURCE_TIMEOUT", "2s")
	t.Setenv("FIXTURE_PATH", "/data/buildings.json")
	t.Setenv("FIXTURE_WATCH", "true")
	t.Setenv("REFRESH_SCHEDULE", "0 */5 * * * *")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("CHART_TOP_N", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.StageDelay)
	assert.Equal(t, "http://energy.local/buildings", cfg.SourceURL)
	assert.Equal(t, 2*time.Second, cfg.SourceTimeout)
	assert.Equal(t, "/data/buildings.json", cfg.FixturePath)
	assert.True(t, cfg.FixtureWatch)
	assert.Equal(t, "0 */5 * * * *", cfg.RefreshSchedule)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, 5, cfg.ChartTopN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"stage delay", map[string]string{"STAGE_DELAY": "soon"}, "STAGE_DELAY"},
		{"negative stage delay", map[string]string{"STAGE_DELAY": "-1s"}, "STAGE_DELAY"},
		{"source timeout", map[string]string{"SOURCE_TIMEOUT": "bad"}, "SOURCE_TIMEOUT"},
		{"zero source timeout", map[string]string{"SOURCE_TIMEOUT": "0s"}, "SOURCE_TIMEOUT"},
		{"chart top n", map[string]string{"CHART_TOP_N": "0"}, "CHART_TOP_N"},
		{"chart top n not a number", map[string]string{"CHART_TOP_N": "ten"}, "CHART_TOP_N"},
		{"watch without path", map[string]string{"FIXTURE_WATCH": "true"}, "FIXTURE_PATH"},
		{"schedule", map[string]string{"REFRESH_SCHEDULE": "every minute"}, "REFRESH_SCHEDULE"},
		{"schedule without seconds", map[string]string{"REFRESH_SCHEDULE": "*/5 * * * *"}, "REFRESH_SCHEDULE"},
		{"kafka without brokers", map[string]string{"KAFKA_ENABLED": "true", "KAFKA_BROKERS": " , "}, "KAFKA_BROKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ScheduleDescriptor(t *testing.T) {
	t.Setenv("REFRESH_SCHEDULE", "@every 1m")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@every 1m", cfg.RefreshSchedule)
}

func TestLoad_BrokersIgnoredWhenKafkaDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.KafkaBrokers)
}
