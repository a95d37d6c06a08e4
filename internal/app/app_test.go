package app

import (
	"context"
	"errors"
	"testing"

	"patient-intake-transcription-service/internal/config"
	"patient-intake-transcription-service/internal/service/stt/deepgram"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Service.CatalogPath = "../../static/patient_history.json"
	cfg.STT.Provider = "mock"
	cfg.Observability.LogLevel = "error"
	cfg.Observability.LogFormat = "json"
	return cfg
}

func TestNew_MockProvider(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Shutdown()

	if a.Catalog == nil {
		t.Error("Catalog should be loaded")
	}
	if a.Factory == nil {
		t.Error("Factory should be built")
	}
	if a.Publisher == nil {
		t.Error("Publisher should be created")
	}
}

func TestNew_BadCatalogPath(t *testing.T) {
	cfg := testConfig()
	cfg.Service.CatalogPath = "does/not/exist.json"

	if _, err := New(cfg); err == nil {
		t.Fatal("Expected error for missing catalog")
	}
}

func TestNew_DeepgramWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.STT.Provider = "deepgram"
	cfg.STT.DeepgramAPIKey = ""

	// The process starts without a key; the factory reports the missing
	// credential when a session first starts a stream.
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New should succeed without a key: %v", err)
	}
	defer a.Shutdown()

	_, err = a.Factory(context.Background())
	if !errors.Is(err, deepgram.ErrMissingAPIKey) {
		t.Fatalf("Expected ErrMissingAPIKey from factory, got %v", err)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.STT.Provider = "whisper"

	if _, err := New(cfg); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}
