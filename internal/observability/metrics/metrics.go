// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vishing_detector"

// Pipeline stage labels.
const (
	StageTranscode = "transcode"
	StageSTT       = "stt"
	StageClassify  = "classify"
	StageVerify    = "verify"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UploadBytes     prometheus.Histogram

	// Pipeline metrics
	StageLatency      *prometheus.HistogramVec
	TranscodeFailures prometheus.Counter
	RiskScore         prometheus.Histogram
	ModelVerdicts     *prometheus.CounterVec
	LLMVerdicts       *prometheus.CounterVec

	// STT metrics
	STTOutcomes *prometheus.CounterVec

	// Embedding cache metrics
	EmbeddingCache *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is registered against the default Prometheus registry.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total analysis requests by endpoint and HTTP status",
		}, []string{"endpoint", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end analysis request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		UploadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of uploaded recordings in bytes",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),

		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Latency of each pipeline stage in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
		TranscodeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcode_failures_total",
			Help:      "Uploads the transcoder could not convert to WAV",
		}),
		RiskScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of classifier fraud probabilities",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		ModelVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_verdicts_total",
			Help:      "Classifier verdicts after thresholding",
		}, []string{"verdict"}),
		LLMVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_verdicts_total",
			Help:      "Secondary LLM verification outcomes",
		}, []string{"verdict"}),

		STTOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_outcomes_total",
			Help:      "Speech-to-text outcomes by provider",
		}, []string{"provider", "outcome", "code"}),

		EmbeddingCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result",
		}, []string{"result"}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordRequest records a finished HTTP analysis request.
func (m *Metrics) RecordRequest(endpoint string, status int, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(endpoint, statusLabel(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordUpload records the size of an accepted upload.
func (m *Metrics) RecordUpload(bytes int64) {
	m.UploadBytes.Observe(float64(bytes))
}

// ObserveStage records the latency of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.StageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordTranscodeFailure records an upload the transcoder rejected.
func (m *Metrics) RecordTranscodeFailure() {
	m.TranscodeFailures.Inc()
}

// RecordScore records a risk score and the verdict derived from it.
func (m *Metrics) RecordScore(score float64, verdict string) {
	m.RiskScore.Observe(score)
	m.ModelVerdicts.WithLabelValues(verdict).Inc()
}

// RecordLLMVerdict records the outcome of secondary verification.
func (m *Metrics) RecordLLMVerdict(verdict string) {
	m.LLMVerdicts.WithLabelValues(verdict).Inc()
}

// RecordSTTOutcome records a transcription result. code is the gRPC status
// code for service errors and empty otherwise.
func (m *Metrics) RecordSTTOutcome(provider, outcome, code string) {
	m.STTOutcomes.WithLabelValues(provider, outcome, code).Inc()
}

// RecordEmbeddingCache records a cache hit, miss or error.
func (m *Metrics) RecordEmbeddingCache(result string) {
	m.EmbeddingCache.WithLabelValues(result).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

func statusLabel(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
