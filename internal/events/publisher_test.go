package events

import (
	"context"
	"testing"

	"patient-intake-transcription-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerTranscript != nil {
				t.Error("expected nil transcript writer when disabled")
			}
			if p.writerSection != nil {
				t.Error("expected nil section writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:         false,
		Brokers:         []string{"localhost:9092"},
		TopicTranscript: "intake.transcript.final",
		TopicSection:    "intake.section.updated",
		Principal:       "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicTranscript != "intake.transcript.final" {
		t.Errorf("expected transcript topic 'intake.transcript.final', got %s", p.topicTranscript)
	}
	if p.topicSection != "intake.section.updated" {
		t.Errorf("expected section topic 'intake.section.updated', got %s", p.topicSection)
	}
}

func TestPublisher_PublishTranscript_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := models.TranscriptRecorded{
		EventType: "intake.transcript.final",
		SessionID: "sess-123",
		Text:      "I have headaches",
	}
	err := p.PublishTranscript(context.Background(), "sess-123", event)

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishSectionUpdate_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := models.SectionUpdated{
		EventType:    "intake.section.updated",
		SessionID:    "sess-123",
		Section:      "illness_timeline",
		Fields:       map[string]any{"current_dominant_symptoms": []any{"headaches"}},
		Completeness: 0.05,
	}
	err := p.PublishSectionUpdate(context.Background(), "sess-123", event)

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Unmarshalable value (channel)
	event := make(chan int)
	if err := p.PublishTranscript(context.Background(), "sess-123", event); err == nil {
		t.Error("expected error for unmarshalable transcript event")
	}
	if err := p.PublishSectionUpdate(context.Background(), "sess-123", event); err == nil {
		t.Error("expected error for unmarshalable section event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{
		writerTranscript: nil,
		writerSection:    nil,
	}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
