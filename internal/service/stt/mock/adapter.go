// Package mock provides a mock STT adapter for running and testing without
// provider credentials. It simulates realistic live-transcription behavior:
// progressive partial transcripts while audio arrives and exactly one final
// transcript per utterance.
package mock

import (
	"context"
	"sync"
	"time"

	"patient-intake-transcription-service/internal/service/stt"
)

// SimulatedUtterance is one mock utterance with progressive transcripts.
type SimulatedUtterance struct {
	Partials   []string // Progressive partial transcripts
	Final      string   // Final transcript text
	Confidence float64  // Confidence score for the final
}

// DefaultUtterances are the sample intake utterances the adapter cycles
// through. Each final transcript trips at least one mapper rule so a
// credential-free run still exercises the whole pipeline.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"I have", "I have been having"},
		Final:      "I have been having headaches lately",
		Confidence: 0.94,
	},
	{
		Partials:   []string{"I take", "I take aspirin"},
		Final:      "I take aspirin for the pain",
		Confidence: 0.97,
	},
	{
		Partials:   []string{"My mother", "My mother has"},
		Final:      "My mother has diabetes",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"I'm allergic", "I'm allergic to"},
		Final:      "I'm allergic to peanuts",
		Confidence: 0.93,
	},
	{
		Partials:   []string{"My sleep", "My sleep has"},
		Final:      "My sleep has improved this month",
		Confidence: 0.89,
	},
}

// Adapter implements stt.Adapter with simulated responses.
type Adapter struct {
	cb           stt.Callback
	delay        time.Duration
	mu           sync.Mutex
	utterance    SimulatedUtterance
	partialIndex int
	finalSent    bool
	closed       bool
}

// utteranceCounter cycles through DefaultUtterances across adapters.
var (
	utteranceCounter int
	counterMu        sync.Mutex
)

// New creates a mock adapter simulating the next sample utterance.
func New() *Adapter {
	counterMu.Lock()
	idx := utteranceCounter % len(DefaultUtterances)
	utteranceCounter++
	counterMu.Unlock()

	return &Adapter{
		utterance: DefaultUtterances[idx],
		delay:     50 * time.Millisecond,
	}
}

// NewWithUtterance creates a mock adapter that simulates the given utterance
// with no artificial delay. Intended for tests.
func NewWithUtterance(u SimulatedUtterance) *Adapter {
	return &Adapter{utterance: u}
}

// Start begins a mock transcription session.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

// SendAudio simulates receiving audio. Each frame triggers the next partial;
// once partials are exhausted the final transcript is emitted, mimicking
// silence detection ending the utterance.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil {
		return nil
	}

	if a.partialIndex < len(a.utterance.Partials) {
		partial := a.utterance.Partials[a.partialIndex]
		a.partialIndex++
		a.emit(func(cb stt.Callback) { cb.OnPartial(partial) })
		return nil
	}

	if !a.finalSent {
		a.finalSent = true
		utt := a.utterance
		a.emit(func(cb stt.Callback) { cb.OnFinal(utt.Final, utt.Confidence) })
	}
	return nil
}

// Close ends the mock session. If the stream ended before the utterance
// completed naturally, the final is flushed first.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if !a.finalSent && a.cb != nil {
		a.finalSent = true
		utt := a.utterance
		cb := a.cb
		if a.delay > 0 {
			go func() {
				time.Sleep(a.delay)
				cb.OnFinal(utt.Final, utt.Confidence)
			}()
		} else {
			cb.OnFinal(utt.Final, utt.Confidence)
		}
	}
	return nil
}

// emit delivers a callback, asynchronously when a simulation delay is
// configured and inline otherwise so tests stay deterministic.
func (a *Adapter) emit(fn func(stt.Callback)) {
	cb := a.cb
	if a.delay > 0 {
		delay := a.delay
		go func() {
			time.Sleep(delay)
			fn(cb)
		}()
		return
	}
	fn(cb)
}
