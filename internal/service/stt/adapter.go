// Package stt defines the interface for speech-to-text providers.
package stt

import "context"

// Callback receives transcript results from the STT provider. Callbacks are
// invoked from the provider's read goroutine, in arrival order.
type Callback interface {
	// OnPartial is called when an interim/partial transcript is received.
	OnPartial(text string)

	// OnFinal is called when a final transcript is received.
	OnFinal(text string, confidence float64)

	// OnClose is called when the provider side closes the connection
	// normally. No further callbacks follow.
	OnClose()

	// OnError is called when an error occurs during transcription.
	OnError(err error)
}

// Adapter defines the interface for STT providers (Deepgram, Google, mock).
// One adapter instance serves one live stream.
type Adapter interface {
	// Start begins a streaming transcription session.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends audio bytes to the STT provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session and releases resources. Safe to call twice.
	Close() error
}

// Factory builds a fresh adapter for a new live stream. Sessions call it on
// every toggle-on so a stopped stream never reuses a dead connection.
type Factory func(ctx context.Context) (Adapter, error)
