package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"patient-intake-transcription-service/internal/observability/metrics"
	"patient-intake-transcription-service/internal/service/stt"

	"github.com/rs/zerolog"
)

// StreamLimits defines safety guardrails for a single transcription stream.
// These prevent unbounded resource usage per session.
type StreamLimits struct {
	MaxAudioBytes int64         // Max audio bytes per stream
	MaxDuration   time.Duration // Max stream duration
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() StreamLimits {
	return StreamLimits{
		MaxAudioBytes: 50 * 1024 * 1024, // 50MB (~27 minutes at 16kHz 16-bit mono)
		MaxDuration:   30 * time.Minute,
	}
}

// Relay manages the provider side of one session's transcription stream.
// It implements stt.Callback to receive transcripts from the provider
// and forwards them to the downstream callback while the stream is live.
// Toggling the stream on always builds a fresh provider connection so a
// stopped or failed stream never reuses a dead one.
type Relay struct {
	factory  stt.Factory
	limits   StreamLimits
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	callback stt.Callback

	lifecycle *Lifecycle

	mu          sync.Mutex
	adapter     stt.Adapter
	streamStart time.Time
	audioBytes  int64
}

// New creates a relay that builds provider connections with factory and
// delivers transcripts to cb.
func New(factory stt.Factory, cb stt.Callback, limits StreamLimits, logger zerolog.Logger) *Relay {
	return &Relay{
		factory:   factory,
		limits:    limits,
		metrics:   metrics.DefaultMetrics,
		logger:    logger,
		callback:  cb,
		lifecycle: NewLifecycle(),
	}
}

// State returns the current stream state.
func (r *Relay) State() State {
	return r.lifecycle.State()
}

// IsLive returns true if audio is currently being forwarded.
func (r *Relay) IsLive() bool {
	return r.lifecycle.IsLive()
}

// Start opens a fresh provider connection and goes live.
// Returns ErrStreamActive if the stream is already live.
func (r *Relay) Start(ctx context.Context) error {
	if r.lifecycle.IsLive() {
		return ErrStreamActive
	}

	adapter, err := r.factory(ctx)
	if err != nil {
		return fmt.Errorf("connect speech provider: %w", err)
	}
	if err := adapter.Start(ctx, r); err != nil {
		adapter.Close()
		return fmt.Errorf("start speech stream: %w", err)
	}

	r.mu.Lock()
	r.adapter = adapter
	r.streamStart = time.Now()
	r.audioBytes = 0
	r.mu.Unlock()

	if err := r.lifecycle.Start(); err != nil {
		adapter.Close()
		return err
	}

	r.metrics.RecordStreamStart()
	r.logger.Info().Msg("Transcription stream started")
	return nil
}

// Stop ends the stream at the client's request and closes the provider
// connection. Returns ErrStreamNotLive if the stream is not live.
func (r *Relay) Stop() error {
	if err := r.lifecycle.Stop(); err != nil {
		return err
	}
	r.metrics.RecordStreamStop()
	r.logger.Info().Msg("Transcription stream stopped")
	return r.closeAdapter()
}

// Forward sends an audio frame to the provider.
// Frames arriving while the stream is not live return ErrStreamNotLive
// so the caller can drop them silently. Limit breaches fail the stream.
func (r *Relay) Forward(ctx context.Context, audio []byte) error {
	if !r.lifecycle.IsLive() {
		return ErrStreamNotLive
	}

	r.mu.Lock()
	r.audioBytes += int64(len(audio))
	currentBytes := r.audioBytes
	startTime := r.streamStart
	adapter := r.adapter
	r.mu.Unlock()

	if r.limits.MaxAudioBytes > 0 && currentBytes > r.limits.MaxAudioBytes {
		reason := fmt.Sprintf("max audio bytes exceeded: %d > %d", currentBytes, r.limits.MaxAudioBytes)
		r.fail("limit_audio_bytes", reason)
		return fmt.Errorf("stream limit exceeded: %s", reason)
	}
	if r.limits.MaxDuration > 0 && time.Since(startTime) > r.limits.MaxDuration {
		reason := fmt.Sprintf("max duration exceeded: %v > %v", time.Since(startTime).Round(time.Second), r.limits.MaxDuration)
		r.fail("limit_duration", reason)
		return fmt.Errorf("stream limit exceeded: %s", reason)
	}

	if adapter == nil {
		return ErrStreamNotLive
	}

	r.metrics.RecordAudioReceived(len(audio))
	return adapter.SendAudio(ctx, audio)
}

// Close tears down the stream unconditionally. Idempotent.
// Used on session disconnect so no provider connection outlives the client.
func (r *Relay) Close() error {
	if r.lifecycle.IsLive() {
		r.lifecycle.Stop()
	}
	return r.closeAdapter()
}

// AudioBytes returns the bytes forwarded on the current stream.
func (r *Relay) AudioBytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audioBytes
}

func (r *Relay) closeAdapter() error {
	r.mu.Lock()
	adapter := r.adapter
	r.adapter = nil
	r.mu.Unlock()

	if adapter == nil {
		return nil
	}
	return adapter.Close()
}

func (r *Relay) fail(reason, detail string) {
	if !r.lifecycle.Fail() {
		return
	}
	r.metrics.RecordStreamFailed(reason)
	r.logger.Warn().Str("reason", reason).Str("detail", detail).Msg("Transcription stream failed")
	r.closeAdapter()
}

// --- stt.Callback implementation ---

// OnPartial forwards an interim transcript while the stream is live.
func (r *Relay) OnPartial(text string) {
	if !r.lifecycle.IsLive() {
		return
	}
	r.metrics.RecordPartialTranscript()
	r.callback.OnPartial(text)
}

// OnFinal forwards a final transcript while the stream is live.
func (r *Relay) OnFinal(text string, confidence float64) {
	if !r.lifecycle.IsLive() {
		return
	}
	r.metrics.RecordFinalTranscript()
	r.callback.OnFinal(text, confidence)
}

// OnClose handles the provider ending the stream on its side.
// A close while live fails the stream so the client learns it must
// toggle transcription back on. Closes after a client stop are the
// normal teardown and are not forwarded.
func (r *Relay) OnClose() {
	if !r.lifecycle.Fail() {
		return
	}
	r.metrics.RecordStreamFailed("provider_closed")
	r.logger.Warn().Msg("Speech provider closed the stream")
	r.closeAdapter()
	r.callback.OnClose()
}

// OnError fails the stream on a provider error. Errors surfacing after
// the stream already stopped or failed are the tail of a torn-down
// connection and are not forwarded.
func (r *Relay) OnError(err error) {
	if !r.lifecycle.Fail() {
		return
	}
	r.metrics.RecordStreamFailed("provider_error")
	r.logger.Error().Err(err).Msg("Speech provider error")
	r.closeAdapter()
	r.callback.OnError(err)
}
