// Package config centralises environment configuration for the oura streaming pipeline.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration shared by the producer and consumer processes.
type Config struct {
	KafkaBrokers           []string
	Topic                  string
	ConsumerGroupID        string
	IntervalSeconds        int    // pause between published records
	DataFile               string // jsonl replay source
	ChartAddress           string
	ProducerMetricsAddress string
	ConsumerMetricsAddress string
}

// Load resolves configuration from a .env file (if present) and the environment,
// applying the documented defaults for local dev.
func Load() Config {
	// Missing .env is fine; real environment variables win either way.
	_ = godotenv.Load()

	cfg := Config{
		Topic:                  getEnv("OURA_TOPIC", "unknown_topic"),
		ConsumerGroupID:        getEnv("OURA_CONSUMER_GROUP_ID", "default_group"),
		IntervalSeconds:        getIntEnv("OURA_INTERVAL_SECONDS", 1),
		DataFile:               getEnv("OURA_DATA_FILE", "data/oura.jsonl"),
		ChartAddress:           getEnv("CHART_ADDRESS", ":8080"),
		ProducerMetricsAddress: getEnv("PRODUCER_METRICS_ADDRESS", ":9091"),
		ConsumerMetricsAddress: getEnv("CONSUMER_METRICS_ADDRESS", ":9092"),
	}
	if cfg.IntervalSeconds < 0 {
		cfg.IntervalSeconds = 1
	}

	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092"))
	return cfg
}

// Validate reports configuration that cannot start a process, such as a
// broker list that resolved to nothing.
func (c Config) Validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	if c.Topic == "" {
		return errors.New("empty topic")
	}
	if c.ConsumerGroupID == "" {
		return errors.New("empty consumer group id")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
