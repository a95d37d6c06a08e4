package google

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.LanguageCode)
	}
	if cfg.SampleRateHz != 8000 {
		t.Errorf("expected default sample rate 8000, got %d", cfg.SampleRateHz)
	}
	if cfg.InterimResults != true {
		t.Errorf("expected default interim results true, got %v", cfg.InterimResults)
	}
	if cfg.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.AudioEncoding)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"UNKNOWN", speechpb.RecognitionConfig_LINEAR16}, // fallback
		{"linear16", speechpb.RecognitionConfig_LINEAR16}, // lowercase -> fallback
		{"", speechpb.RecognitionConfig_LINEAR16},         // fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAudioEncoding(tt.input)
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
