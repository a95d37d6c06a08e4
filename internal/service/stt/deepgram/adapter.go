// Package deepgram provides a Deepgram live-transcription STT adapter over
// the Deepgram streaming WebSocket API.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"patient-intake-transcription-service/internal/observability/logging"
	"patient-intake-transcription-service/internal/service/stt"
)

// ErrMissingAPIKey is returned when no Deepgram credential is configured.
var ErrMissingAPIKey = errors.New("deepgram api key is not set")

const defaultEndpoint = "wss://api.deepgram.com/v1/listen"

// keepaliveInterval keeps the Deepgram socket open across pauses in audio;
// Deepgram closes idle connections after ~10 seconds.
const keepaliveInterval = 5 * time.Second

// Config holds Deepgram live-transcription options.
type Config struct {
	APIKey         string
	Model          string
	Language       string
	InterimResults bool
	Endpoint       string
}

// DefaultConfig returns the live-transcription options used for intake
// sessions.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		Model:          "nova-3",
		Language:       "en-US",
		InterimResults: true,
		Endpoint:       defaultEndpoint,
	}
}

// liveResult is the shape of a Deepgram streaming transcript message.
type liveResult struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Adapter implements stt.Adapter against the Deepgram live WebSocket API.
type Adapter struct {
	cfg    Config
	logger zerolog.Logger

	conn    *websocket.Conn
	cb      stt.Callback
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Deepgram adapter. The connection is not opened until Start.
func New(cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return &Adapter{
		cfg:    cfg,
		logger: logging.WithComponent("stt.deepgram"),
		done:   make(chan struct{}),
	}, nil
}

// Start dials the Deepgram live endpoint and begins relaying transcript
// messages to cb.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	header := http.Header{
		"Authorization": {fmt.Sprintf("Token %s", a.cfg.APIKey)},
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.listenURL(), header)
	if err != nil {
		return fmt.Errorf("deepgram dial: %w", err)
	}
	a.conn = conn
	a.cb = cb

	a.logger.Info().
		Str("model", a.cfg.Model).
		Str("language", a.cfg.Language).
		Bool("interimResults", a.cfg.InterimResults).
		Msg("Deepgram connection opened")

	go a.readLoop()
	go a.keepalive()

	return nil
}

// SendAudio forwards one raw audio frame to Deepgram.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	if a.conn == nil {
		return errors.New("deepgram connection is not open")
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	if err := a.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("deepgram write: %w", err)
	}
	return nil
}

// Close finishes the stream and closes the connection.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.done)
		if a.conn == nil {
			return
		}
		a.writeMu.Lock()
		// Best-effort graceful finish so Deepgram flushes pending results.
		a.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
		a.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing connection"))
		a.writeMu.Unlock()
		err = a.conn.Close()
	})
	return err
}

func (a *Adapter) readLoop() {
	for {
		_, message, err := a.conn.ReadMessage()
		if err != nil {
			select {
			case <-a.done:
				// Local close; the session already knows.
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.logger.Info().Msg("Deepgram closed the connection")
				a.cb.OnClose()
			} else {
				a.logger.Error().Err(err).Msg("Deepgram read error")
				a.cb.OnError(err)
			}
			return
		}

		for _, tr := range decodeTranscripts(message) {
			if tr.isFinal {
				a.cb.OnFinal(tr.text, tr.confidence)
			} else {
				a.cb.OnPartial(tr.text)
			}
		}
	}
}

// keepalive pings Deepgram while the stream is open so silence from the
// client does not tear down the provider connection.
func (a *Adapter) keepalive() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			a.writeMu.Lock()
			err := a.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`))
			a.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

type transcript struct {
	text       string
	confidence float64
	isFinal    bool
}

// decodeTranscripts extracts transcript text from one Deepgram message.
// Deepgram sends single objects normally but may batch results in a JSON
// array. Non-transcript messages (metadata, utterance events) and empty
// transcripts are skipped.
func decodeTranscripts(message []byte) []transcript {
	if len(message) == 0 {
		return nil
	}

	var results []liveResult
	if message[0] == '[' {
		if err := json.Unmarshal(message, &results); err != nil {
			return nil
		}
	} else {
		var result liveResult
		if err := json.Unmarshal(message, &result); err != nil {
			return nil
		}
		results = []liveResult{result}
	}

	var out []transcript
	for _, r := range results {
		if r.Type != "" && r.Type != "Results" {
			continue
		}
		if len(r.Channel.Alternatives) == 0 {
			continue
		}
		alt := r.Channel.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}
		out = append(out, transcript{
			text:       alt.Transcript,
			confidence: alt.Confidence,
			isFinal:    r.IsFinal,
		})
	}
	return out
}

func (a *Adapter) listenURL() string {
	q := url.Values{}
	q.Set("model", a.cfg.Model)
	q.Set("language", a.cfg.Language)
	q.Set("interim_results", fmt.Sprintf("%t", a.cfg.InterimResults))
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	return a.cfg.Endpoint + "?" + q.Encode()
}
