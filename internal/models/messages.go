// Package models defines the message envelopes exchanged over the session
// WebSocket and the transcript event types flowing through a session.
package models

// Message type discriminators for server → client messages.
const (
	TypeTranscriptionUpdate = "transcription_update"
	TypeParsedResponse      = "parsed_response"
	TypeSectionUpdate       = "section_update"
	TypeTranscriptionStatus = "transcription_status"
	TypeError               = "error"
)

// Transcription stream status values carried by TranscriptionStatus.
const (
	StatusStarted      = "started"
	StatusStopped      = "stopped"
	StatusDisconnected = "disconnected"
)

// ControlMessage is a client → server JSON control frame.
type ControlMessage struct {
	Type string `json:"type"`
}

// ControlToggleTranscription starts or stops the live transcription stream.
const ControlToggleTranscription = "toggle_transcription"

// TranscriptionUpdate carries raw transcript text to the client as it is
// recognized. Interim results have IsFinal=false and may be revised.
type TranscriptionUpdate struct {
	Type          string `json:"type"`
	Transcription string `json:"transcription"`
	IsFinal       bool   `json:"is_final"`
}

// ParsedResponse carries an annotated transcript when the annotator changed
// the text, along with any detected keywords.
type ParsedResponse struct {
	Type             string   `json:"type"`
	Transcription    string   `json:"transcription"`
	Original         string   `json:"original"`
	DetectedKeywords []string `json:"detected_keywords"`
}

// SectionUpdate notifies the client that one patient-history section changed.
// NewData holds the full merged field values for display; OriginalNewData
// holds only the fields this update introduced, for notification rendering.
// Completeness is an increment; IsIncrement flags that for the client.
type SectionUpdate struct {
	Type            string         `json:"type"`
	SectionName     string         `json:"section_name"`
	NewData         map[string]any `json:"new_data"`
	OriginalNewData map[string]any `json:"original_new_data"`
	Completeness    float64        `json:"completeness"`
	IsIncrement     bool           `json:"is_increment"`
}

// TranscriptionStatus reports transcription stream state changes.
type TranscriptionStatus struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// ErrorMessage reports a session-level error to the client. The session
// remains open after sending one.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TranscriptEvent is one utterance or phrase recognized by the speech
// provider. Events are consumed immediately by the session and not retained.
type TranscriptEvent struct {
	Text       string
	Confidence float64
	IsFinal    bool
	Timestamp  int64
}
