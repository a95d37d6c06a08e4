// Package relay forwards client audio to a speech provider and routes
// transcripts back to the session, enforcing stream lifecycle rules.
package relay

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a transcription stream.
type State int

const (
	// StateIdle - No provider connection, audio is discarded.
	StateIdle State = iota
	// StateLive - Provider connection open, audio is forwarded.
	StateLive
	// StateStopped - Stream stopped by the client, can be restarted.
	StateStopped
	// StateFailed - Stream failed due to a provider or limit error.
	// A fresh provider connection is required to go live again.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateLive:
		return "LIVE"
	case StateStopped:
		return "STOPPED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid stream transitions.
var (
	ErrStreamActive  = errors.New("stream is already live")
	ErrStreamNotLive = errors.New("stream is not live")
)

// Lifecycle manages the state machine for a transcription stream.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE ──→ LIVE ──→ STOPPED ──→ LIVE ──→ ...
//	           │
//	           └──→ FAILED ──→ LIVE (new provider connection)
//
// Rules:
//   - Audio is forwarded only while LIVE.
//   - STOPPED and FAILED are both restartable; every restart uses a
//     fresh provider connection.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a new stream lifecycle in IDLE state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateIdle}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsLive returns true if audio may be forwarded.
func (l *Lifecycle) IsLive() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateLive
}

// Start transitions the stream to LIVE.
// Returns ErrStreamActive if already live.
func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateLive {
		return ErrStreamActive
	}
	l.state = StateLive
	return nil
}

// Stop transitions the stream from LIVE to STOPPED.
// Returns ErrStreamNotLive if the stream is not live.
func (l *Lifecycle) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLive {
		return ErrStreamNotLive
	}
	l.state = StateStopped
	return nil
}

// Fail transitions the stream to FAILED.
// Returns true if the stream was live, false if it was already
// stopped or failed.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateLive {
		return false
	}
	l.state = StateFailed
	return true
}
