package deepgram

import (
	"strings"
	"testing"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err != ErrMissingAPIKey {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("test-key")

	if cfg.APIKey != "test-key" {
		t.Errorf("expected api key to be carried, got %s", cfg.APIKey)
	}
	if cfg.Model != "nova-3" {
		t.Errorf("expected default model 'nova-3', got %s", cfg.Model)
	}
	if cfg.Language != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.Language)
	}
	if !cfg.InterimResults {
		t.Error("expected interim results enabled by default")
	}
}

func TestListenURL(t *testing.T) {
	a, err := New(DefaultConfig("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := a.listenURL()
	if !strings.HasPrefix(u, defaultEndpoint+"?") {
		t.Errorf("expected listen URL on default endpoint, got %s", u)
	}
	for _, want := range []string{"model=nova-3", "language=en-US", "interim_results=true"} {
		if !strings.Contains(u, want) {
			t.Errorf("expected %q in listen URL %s", want, u)
		}
	}
}

func TestDecodeTranscripts_FinalResult(t *testing.T) {
	msg := []byte(`{
		"type": "Results",
		"is_final": true,
		"channel": {"alternatives": [{"transcript": "I have headaches", "confidence": 0.94}]}
	}`)

	got := decodeTranscripts(msg)
	if len(got) != 1 {
		t.Fatalf("expected 1 transcript, got %d", len(got))
	}
	if got[0].text != "I have headaches" {
		t.Errorf("expected transcript text, got %q", got[0].text)
	}
	if got[0].confidence != 0.94 {
		t.Errorf("expected confidence 0.94, got %v", got[0].confidence)
	}
	if !got[0].isFinal {
		t.Error("expected is_final to be true")
	}
}

func TestDecodeTranscripts_InterimResult(t *testing.T) {
	msg := []byte(`{
		"is_final": false,
		"channel": {"alternatives": [{"transcript": "I have", "confidence": 0.45}]}
	}`)

	got := decodeTranscripts(msg)
	if len(got) != 1 {
		t.Fatalf("expected 1 transcript, got %d", len(got))
	}
	if got[0].text != "I have" || got[0].isFinal {
		t.Errorf("expected interim transcript, got %+v", got[0])
	}
}

func TestDecodeTranscripts_BatchedArray(t *testing.T) {
	msg := []byte(`[
		{"is_final": false, "channel": {"alternatives": [{"transcript": "I take"}]}},
		{"type": "Metadata", "request_id": "abc"},
		{"is_final": true, "channel": {"alternatives": [{"transcript": "I take aspirin", "confidence": 0.9}]}}
	]`)

	got := decodeTranscripts(msg)
	if len(got) != 2 {
		t.Fatalf("expected 2 transcripts from batch, got %d", len(got))
	}
	if got[0].isFinal || got[0].text != "I take" {
		t.Errorf("unexpected first transcript: %+v", got[0])
	}
	if !got[1].isFinal || got[1].text != "I take aspirin" {
		t.Errorf("unexpected second transcript: %+v", got[1])
	}
}

func TestDecodeTranscripts_Skipped(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"metadata message", `{"type": "Metadata", "request_id": "abc"}`},
		{"speech started event", `{"type": "SpeechStarted", "timestamp": 1.0}`},
		{"no alternatives", `{"type": "Results", "is_final": true, "channel": {"alternatives": []}}`},
		{"empty transcript", `{"type": "Results", "channel": {"alternatives": [{"transcript": ""}]}}`},
		{"invalid json", `{not json`},
		{"invalid array", `[{not json`},
		{"empty message", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeTranscripts([]byte(tt.msg)); len(got) != 0 {
				t.Errorf("expected message to be skipped: %s", tt.msg)
			}
		})
	}
}
