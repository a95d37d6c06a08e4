// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	StreamLimits  StreamLimitsConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds service identity and HTTP settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	CatalogPath string
	StaticDir   string
}

// STTConfig holds speech provider settings.
type STTConfig struct {
	Provider       string // "deepgram", "google", or "mock"
	DeepgramAPIKey string
	Model          string
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
}

// StreamLimitsConfig holds per-stream safety limits.
type StreamLimitsConfig struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicTranscript string
	TopicSection    string
	Principal       string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Load builds a Config from environment variables, falling back to
// defaults for unset or invalid values.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-patient-intake")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			CatalogPath: envOrDefault("CATALOG_PATH", "static/patient_history.json"),
			StaticDir:   envOrDefault("STATIC_DIR", "static"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "deepgram"),
			DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
			Model:          envOrDefault("STT_MODEL", "nova-3"),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			InterimResults: envOrDefaultBool("STT_INTERIM_RESULTS", true),
			AudioEncoding:  envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
		},
		StreamLimits: StreamLimitsConfig{
			MaxAudioBytes: envOrDefaultInt64("STREAM_MAX_AUDIO_BYTES", 50*1024*1024),
			MaxDuration:   envOrDefaultDuration("STREAM_MAX_DURATION", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         envOrDefaultSlice("KAFKA_BROKERS", nil),
			TopicTranscript: envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "intake.transcript.final"),
			TopicSection:    envOrDefault("KAFKA_TOPIC_SECTION", "intake.section.updated"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
