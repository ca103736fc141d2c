package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// ScheduleParser parses REFRESH_SCHEDULE. Specs carry a leading seconds field.
var ScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// StageDelay pauses before each pipeline stage.
	StageDelay time.Duration

	// Source selection: SourceURL wins over FixturePath, which wins over the
	// embedded fixture.
	SourceURL     string
	SourceTimeout time.Duration
	FixturePath   string
	FixtureWatch  bool

	RefreshSchedule string

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	ChartTopN int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	stageDelay, err := time.ParseDuration(sharedcfg.EnvOrDefault("STAGE_DELAY", "0s"))
	if err != nil || stageDelay < 0 {
		return nil, errors.New("invalid STAGE_DELAY: must be a non-negative duration")
	}

	sourceTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SOURCE_TIMEOUT", "5s"))
	if err != nil || sourceTimeout <= 0 {
		return nil, errors.New("invalid SOURCE_TIMEOUT")
	}

	topN, err := strconv.Atoi(sharedcfg.EnvOrDefault("CHART_TOP_N", "10"))
	if err != nil || topN <= 0 {
		return nil, errors.New("invalid CHART_TOP_N: must be a positive integer")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		StageDelay:      stageDelay,
		SourceURL:       os.Getenv("SOURCE_URL"),
		SourceTimeout:   sourceTimeout,
		FixturePath:     os.Getenv("FIXTURE_PATH"),
		FixtureWatch:    os.Getenv("FIXTURE_WATCH") == "true",
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "building-energy"),
		ChartTopN:       topN,
	}

	if cfg.FixtureWatch && cfg.FixturePath == "" {
		return nil, errors.New("FIXTURE_WATCH is true but FIXTURE_PATH is not set")
	}
	if cfg.RefreshSchedule != "" {
		if _, err := ScheduleParser.Parse(cfg.RefreshSchedule); err != nil {
			return nil, fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
		}
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}
