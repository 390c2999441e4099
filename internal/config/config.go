package config

import (
	"os"
	"strconv"
)

// Config holds runtime settings for the debezium-server worker.
type Config struct {
	Environment string
	Logging     LoggingConfig
	Telemetry   TelemetryConfig
	Source      SourceConfig
	Kinesis     KinesisConfig
}

type LoggingConfig struct {
	Level string
}

type TelemetryConfig struct {
	ServiceName string
}

type SourceConfig struct {
	Path        string
	Destination string
	BatchSize   int
}

// KinesisConfig mirrors the sink connection surface: region is required,
// endpoint and credentials profile are optional overrides, and NullKey
// partitions key-less records. Batch capacity, attempt bound, and retry
// interval are fixed in the sink, not configured here.
type KinesisConfig struct {
	Region             string
	Endpoint           string
	CredentialsProfile string
	NullKey            string
}

// Load loads config from environment.
func Load(_ string) (*Config, error) {
	cfg := &Config{
		Environment: getenv("DEBEZIUM_ENV", "dev"),
		Logging: LoggingConfig{
			Level: getenv("DEBEZIUM_LOG_LEVEL", "info"),
		},
		Telemetry: TelemetryConfig{
			ServiceName: getenv("DEBEZIUM_OTEL_SERVICE", "debezium-server"),
		},
		Source: SourceConfig{
			Path:        getenv("DEBEZIUM_SOURCE_PATH", ""),
			Destination: getenv("DEBEZIUM_SOURCE_DESTINATION", ""),
			BatchSize:   getenvInt("DEBEZIUM_SOURCE_BATCH_SIZE", 0),
		},
		Kinesis: KinesisConfig{
			Region:             getenv("DEBEZIUM_SINK_KINESIS_REGION", ""),
			Endpoint:           getenv("DEBEZIUM_SINK_KINESIS_ENDPOINT", ""),
			CredentialsProfile: getenv("DEBEZIUM_SINK_KINESIS_CREDENTIALS_PROFILE", ""),
			NullKey:            getenv("DEBEZIUM_SINK_KINESIS_NULL_KEY", ""),
		},
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
