// Package session implements the per-client session channel: it owns the
// patient history form, drives the transcription relay, and turns final
// transcripts into section updates pushed back to the client.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"patient-intake-transcription-service/internal/catalog"
	"patient-intake-transcription-service/internal/events"
	"patient-intake-transcription-service/internal/models"
	"patient-intake-transcription-service/internal/observability/logging"
	"patient-intake-transcription-service/internal/observability/metrics"
	"patient-intake-transcription-service/internal/service/mapper"
	"patient-intake-transcription-service/internal/service/relay"
	"patient-intake-transcription-service/internal/service/stt"

	"github.com/rs/zerolog"
)

// outboundBuffer is the per-session queue of messages awaiting the client.
// A client that stops reading loses messages rather than stalling transcript
// processing.
const outboundBuffer = 64

// Session is one client's session channel. It implements stt.Callback to
// receive transcripts downstream of the relay.
//
// The form has a single writer: all transcript handling is serialized on the
// session mutex, so section updates are applied and emitted in rule table
// order per transcript.
type Session struct {
	id        string
	form      *catalog.Form
	relay     *relay.Relay
	publisher *events.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	startedAt time.Time

	mu       sync.Mutex
	closed   bool
	outbound chan any
}

// New creates a session with a fresh form copied from the catalog.
func New(id string, cat *catalog.Catalog, factory stt.Factory, limits relay.StreamLimits, publisher *events.Publisher) *Session {
	logger := logging.WithSession(id)
	s := &Session{
		id:        id,
		form:      cat.NewForm(),
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
		logger:    logger,
		startedAt: time.Now(),
		outbound:  make(chan any, outboundBuffer),
	}
	s.relay = relay.New(factory, s, limits, logger)
	s.metrics.RecordSessionStart()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Outbound returns the channel of messages to deliver to the client.
// It is closed when the session closes.
func (s *Session) Outbound() <-chan any {
	return s.outbound
}

// Transcribing returns true if the transcription stream is live.
func (s *Session) Transcribing() bool {
	return s.relay.IsLive()
}

// HandleControl processes a client control frame.
// Malformed or unknown frames produce an error message; the session stays open.
func (s *Session) HandleControl(ctx context.Context, raw []byte) {
	var msg models.ControlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.metrics.RecordMalformedFrame()
		s.logger.Warn().Err(err).Msg("Malformed control frame")
		s.sendError("invalid control message")
		return
	}

	switch msg.Type {
	case models.ControlToggleTranscription:
		s.toggleTranscription(ctx)
	default:
		s.metrics.RecordMalformedFrame()
		s.logger.Warn().Str("type", msg.Type).Msg("Unknown control message type")
		s.sendError(fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// HandleAudio forwards a binary audio frame to the speech provider.
// Frames arriving while transcription is off are dropped silently.
func (s *Session) HandleAudio(ctx context.Context, frame []byte) {
	err := s.relay.Forward(ctx, frame)
	if err == nil || err == relay.ErrStreamNotLive {
		return
	}
	s.logger.Warn().Err(err).Msg("Audio forward failed")
	s.sendError("transcription stream error")
	s.send(models.TranscriptionStatus{
		Type:   models.TypeTranscriptionStatus,
		Status: models.StatusStopped,
	}, models.TypeTranscriptionStatus)
}

// Close tears down the session: the provider connection is closed and the
// outbound channel is drained by closure. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.outbound)
	s.mu.Unlock()

	s.relay.Close()
	s.metrics.RecordSessionEnd(time.Since(s.startedAt).Seconds())
	s.logger.Info().Dur("duration", time.Since(s.startedAt)).Msg("Session closed")
}

func (s *Session) toggleTranscription(ctx context.Context) {
	if s.relay.IsLive() {
		if err := s.relay.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Stop transcription failed")
		}
		s.send(models.TranscriptionStatus{
			Type:   models.TypeTranscriptionStatus,
			Status: models.StatusStopped,
		}, models.TypeTranscriptionStatus)
		return
	}

	if err := s.relay.Start(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Start transcription failed")
		s.sendError("could not start transcription")
		return
	}
	s.send(models.TranscriptionStatus{
		Type:   models.TypeTranscriptionStatus,
		Status: models.StatusStarted,
	}, models.TypeTranscriptionStatus)
}

// --- stt.Callback implementation ---

// OnPartial pushes an interim transcript to the client.
func (s *Session) OnPartial(text string) {
	s.send(models.TranscriptionUpdate{
		Type:          models.TypeTranscriptionUpdate,
		Transcription: text,
		IsFinal:       false,
	}, models.TypeTranscriptionUpdate)
}

// OnFinal pushes the final transcript, an annotated variant when the
// annotator changed it, and one section update per matched rule.
func (s *Session) OnFinal(text string, confidence float64) {
	s.send(models.TranscriptionUpdate{
		Type:          models.TypeTranscriptionUpdate,
		Transcription: text,
		IsFinal:       true,
	}, models.TypeTranscriptionUpdate)

	s.publishTranscript(text, confidence)

	annotated := mapper.Annotate(text)
	keywords := mapper.Keywords(text)
	if annotated != text || len(keywords) > 0 {
		s.send(models.ParsedResponse{
			Type:             models.TypeParsedResponse,
			Transcription:    annotated,
			Original:         text,
			DetectedKeywords: keywords,
		}, models.TypeParsedResponse)
	}

	updates := mapper.Map(text)
	if len(updates) == 0 {
		s.metrics.RecordUnmatchedTranscript()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		snapshot, err := s.form.Apply(u.Section, u.Fields, u.Completeness)
		if err != nil {
			s.logger.Error().Err(err).Str("section", u.Section).Msg("Section update failed")
			continue
		}
		s.metrics.RecordSectionUpdate(u.Section)
		s.sendLocked(models.SectionUpdate{
			Type:            models.TypeSectionUpdate,
			SectionName:     u.Section,
			NewData:         snapshot,
			OriginalNewData: u.Fields,
			Completeness:    u.Completeness,
			IsIncrement:     true,
		}, models.TypeSectionUpdate)
		s.publishSectionUpdate(u.Section, snapshot)
	}
}

// OnClose tells the client the provider dropped the stream.
func (s *Session) OnClose() {
	s.send(models.TranscriptionStatus{
		Type:   models.TypeTranscriptionStatus,
		Status: models.StatusDisconnected,
	}, models.TypeTranscriptionStatus)
}

// OnError surfaces a provider error to the client. The session stays open so
// the client can toggle transcription back on.
func (s *Session) OnError(err error) {
	s.logger.Error().Err(err).Msg("Transcription error")
	s.sendError("transcription error")
	s.send(models.TranscriptionStatus{
		Type:   models.TypeTranscriptionStatus,
		Status: models.StatusDisconnected,
	}, models.TypeTranscriptionStatus)
}

func (s *Session) sendError(message string) {
	s.send(models.ErrorMessage{
		Type:    models.TypeError,
		Message: message,
	}, models.TypeError)
}

func (s *Session) send(msg any, msgType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(msg, msgType)
}

func (s *Session) sendLocked(msg any, msgType string) {
	if s.closed {
		return
	}
	select {
	case s.outbound <- msg:
		s.metrics.RecordMessageSent(msgType)
	default:
		s.logger.Warn().Str("type", msgType).Msg("Outbound queue full, dropping message")
	}
}

func (s *Session) publishTranscript(text string, confidence float64) {
	if s.publisher == nil {
		return
	}
	ev := models.TranscriptRecorded{
		EventType:  "intake.transcript.final",
		SessionID:  s.id,
		Text:       text,
		Confidence: confidence,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := s.publisher.PublishTranscript(context.Background(), s.id, ev); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish transcript event")
	}
}

func (s *Session) publishSectionUpdate(section string, fields map[string]any) {
	if s.publisher == nil {
		return
	}
	completeness := 0.0
	if sec, ok := s.form.Section(section); ok {
		completeness = sec.Completeness
	}
	ev := models.SectionUpdated{
		EventType:    "intake.section.updated",
		SessionID:    s.id,
		Section:      section,
		Fields:       fields,
		Completeness: completeness,
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := s.publisher.PublishSectionUpdate(context.Background(), s.id, ev); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish section event")
	}
}
