// Package config loads service configuration from the process environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration holds all runtime settings for the service.
type Configuration struct {
	Service       ServiceConfig
	Upload        UploadConfig
	STT           STTConfig
	Classifier    ClassifierConfig
	LLM           LLMConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds listener and identity settings.
type ServiceConfig struct {
	Principal       string
	HTTPPort        string
	MetricsPort     string
	ShutdownTimeout time.Duration
}

// UploadConfig controls where uploads land and how they are transcoded.
type UploadConfig struct {
	Dir          string
	MaxBytes     int64
	FFmpegPath   string
	SampleRateHz int
}

// STTConfig selects and configures the speech-to-text provider.
type STTConfig struct {
	Provider        string // google, mock
	LanguageCode    string
	AudioEncoding   string
	SampleRateHz    int // 0 lets the provider read it from the WAV header
	CredentialsFile string
	Timeout         time.Duration
}

// ClassifierConfig points at the model bundle used for risk scoring.
type ClassifierConfig struct {
	ModelPath        string
	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingAPIKey  string
	EmbeddingTimeout time.Duration
	CacheRedisAddr   string
	CacheTTL         time.Duration
}

// LLMConfig configures the secondary verification call.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// KafkaConfig configures analysis event publishing.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicAnalysis string
	Principal     string
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables. Values that fail
// to parse fall back to their defaults.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-vishing-detector")

	return &Configuration{
		Service: ServiceConfig{
			Principal:       principal,
			HTTPPort:        envOrDefault("HTTP_PORT", "5000"),
			MetricsPort:     envOrDefault("METRICS_PORT", "9090"),
			ShutdownTimeout: envOrDefaultDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Upload: UploadConfig{
			Dir:          envOrDefault("UPLOAD_DIR", os.TempDir()),
			MaxBytes:     envOrDefaultInt64("UPLOAD_MAX_BYTES", 25*1024*1024),
			FFmpegPath:   envOrDefault("FFMPEG_PATH", "ffmpeg"),
			SampleRateHz: envOrDefaultInt("TRANSCODE_SAMPLE_RATE_HZ", 16000),
		},
		STT: STTConfig{
			Provider:        envOrDefault("STT_PROVIDER", "google"),
			LanguageCode:    envOrDefault("STT_LANGUAGE_CODE", "ko-KR"),
			AudioEncoding:   envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
			SampleRateHz:    envOrDefaultInt("STT_SAMPLE_RATE_HZ", 0),
			CredentialsFile: os.Getenv("STT_CREDENTIALS_FILE"),
			Timeout:         envOrDefaultDuration("STT_TIMEOUT", 30*time.Second),
		},
		Classifier: ClassifierConfig{
			ModelPath:        envOrDefault("CLASSIFIER_MODEL_PATH", "sbert_classifier.json"),
			EmbeddingBaseURL: envOrDefault("EMBEDDING_BASE_URL", "http://localhost:8081/v1"),
			EmbeddingModel:   envOrDefault("EMBEDDING_MODEL", "paraphrase-multilingual-MiniLM-L12-v2"),
			EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
			EmbeddingTimeout: envOrDefaultDuration("EMBEDDING_TIMEOUT", 10*time.Second),
			CacheRedisAddr:   os.Getenv("EMBEDDING_CACHE_REDIS_ADDR"),
			CacheTTL:         envOrDefaultDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		LLM: LLMConfig{
			// Not validated here: a missing key surfaces as an indeterminate verdict.
			APIKey:  os.Getenv("LLM_API_KEY"),
			BaseURL: envOrDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:   envOrDefault("LLM_MODEL", "tngtech/deepseek-r1t-chimera:free"),
			Timeout: envOrDefaultDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       envList("KAFKA_BROKERS"),
			TopicAnalysis: envOrDefault("KAFKA_TOPIC_ANALYSIS", "vishing.analysis.completed"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
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
	b, err := strconv.ParseBool(v)
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
