package models

// TranscriptRecorded is published when a final transcript is received
// for a session.
type TranscriptRecorded struct {
	EventType  string  `json:"event_type"`
	SessionID  string  `json:"session_id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// SectionUpdated is published when a transcript updates a patient
// history section.
type SectionUpdated struct {
	EventType    string         `json:"event_type"`
	SessionID    string         `json:"session_id"`
	Section      string         `json:"section"`
	Fields       map[string]any `json:"fields"`
	Completeness float64        `json:"completeness"`
	Timestamp    int64          `json:"timestamp"`
}
