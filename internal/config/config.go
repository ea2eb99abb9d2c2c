package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr         string
	NearestBaseURL   string
	OccupancyBaseURL string
	StaticDir        string
	LogLevel         string
	LogFormat        string
	UpstreamTimeout  time.Duration
	ShutdownTimeout  time.Duration

	// Optional assessment event sink.
	KafkaBrokers          []string
	KafkaAssessmentsTopic string
	KafkaEnabled          bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":12300"),
		NearestBaseURL:   strings.TrimRight(envOrDefault("NEAREST_BASE_URL", "http://127.0.0.1:8001"), "/"),
		OccupancyBaseURL: strings.TrimRight(envOrDefault("OCCUPANCY_BASE_URL", "http://127.0.0.1:5000"), "/"),
		StaticDir:        envOrDefault("STATIC_DIR", "./public"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		UpstreamTimeout:  upstreamTimeout,
		ShutdownTimeout:  shutdownTimeout,

		KafkaBrokers:          brokers,
		KafkaAssessmentsTopic: envOrDefault("KAFKA_ASSESSMENTS_TOPIC", "parking-assessments"),
		KafkaEnabled:          kafkaEnabled,
	}

	if cfg.NearestBaseURL == "" {
		return nil, errors.New("NEAREST_BASE_URL is required")
	}
	if cfg.OccupancyBaseURL == "" {
		return nil, errors.New("OCCUPANCY_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
