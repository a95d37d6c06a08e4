// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "patient_intake_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Transcription stream metrics
	StreamsStarted prometheus.Counter
	StreamsStopped prometheus.Counter
	StreamsFailed  *prometheus.CounterVec

	// Transcript metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter

	// Mapper metrics
	SectionUpdates       *prometheus.CounterVec
	TranscriptsUnmatched prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Client message metrics
	MessagesSent    *prometheus.CounterVec
	MalformedFrames prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of client sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently connected client sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of client sessions in seconds",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}),

		StreamsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_started_total",
			Help:      "Total number of transcription streams started",
		}),
		StreamsStopped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_stopped_total",
			Help:      "Total number of transcription streams stopped by the client",
		}),
		StreamsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_failed_total",
			Help:      "Total number of transcription streams that failed",
		}, []string{"reason"}),

		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total number of interim transcripts received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcripts received",
		}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received from clients",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received from clients",
		}),

		SectionUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "section_updates_total",
			Help:      "Total number of section updates emitted",
		}, []string{"section"}),
		TranscriptsUnmatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_unmatched_total",
			Help:      "Total number of final transcripts that matched no rule",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		MessagesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent to clients",
		}, []string{"type"}),
		MalformedFrames: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_frames_total",
			Help:      "Total number of malformed client control frames",
		}),
	}
}

// RecordSessionStart records a new client session.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a client session ending.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordStreamStart records a transcription stream starting.
func (m *Metrics) RecordStreamStart() {
	m.StreamsStarted.Inc()
}

// RecordStreamStop records a client-initiated stream stop.
func (m *Metrics) RecordStreamStop() {
	m.StreamsStopped.Inc()
}

// RecordStreamFailed records a transcription stream failure.
func (m *Metrics) RecordStreamFailed(reason string) {
	m.StreamsFailed.WithLabelValues(reason).Inc()
}

// RecordPartialTranscript records an interim transcript received.
func (m *Metrics) RecordPartialTranscript() {
	m.TranscriptsPartial.Inc()
}

// RecordFinalTranscript records a final transcript received.
func (m *Metrics) RecordFinalTranscript() {
	m.TranscriptsFinal.Inc()
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordSectionUpdate records a section update emitted to a client.
func (m *Metrics) RecordSectionUpdate(section string) {
	m.SectionUpdates.WithLabelValues(section).Inc()
}

// RecordUnmatchedTranscript records a final transcript with no rule match.
func (m *Metrics) RecordUnmatchedTranscript() {
	m.TranscriptsUnmatched.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordMessageSent records a message sent to a client.
func (m *Metrics) RecordMessageSent(msgType string) {
	m.MessagesSent.WithLabelValues(msgType).Inc()
}

// RecordMalformedFrame records a malformed client control frame.
func (m *Metrics) RecordMalformedFrame() {
	m.MalformedFrames.Inc()
}
