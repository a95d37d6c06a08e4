// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"patient-intake-transcription-service/internal/observability/metrics"
)

// Publisher publishes intake events to separate Kafka topics.
type Publisher struct {
	writerTranscript *kafka.Writer
	writerSection    *kafka.Writer
	principal        string
	topicTranscript  string
	topicSection     string
	enabled          bool
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicTranscript string
	TopicSection    string
	Principal       string
	Enabled         bool
}

// New creates a new Kafka event publisher with separate topics for final
// transcripts and section updates.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicTranscript: cfg.TopicTranscript,
			topicSection:    cfg.TopicSection,
			enabled:         false,
			metrics:         m,
		}
	}

	// Custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerTranscript := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscript,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerSection := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicSection,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("topicSection", cfg.TopicSection).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerTranscript: writerTranscript,
		writerSection:    writerSection,
		principal:        cfg.Principal,
		topicTranscript:  cfg.TopicTranscript,
		topicSection:     cfg.TopicSection,
		enabled:          true,
		metrics:          m,
	}
}

// PublishTranscript publishes a final transcript event.
func (p *Publisher) PublishTranscript(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerTranscript, p.topicTranscript, "transcript", key, event)
}

// PublishSectionUpdate publishes a section update event.
func (p *Publisher) PublishSectionUpdate(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerSection, p.topicSection, "section_update", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	if p.writerSection != nil {
		if e := p.writerSection.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing section writer")
			err = e
		}
	}
	return err
}
