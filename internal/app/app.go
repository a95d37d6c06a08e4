// Package app holds process-wide state for the service.
package app

import (
	"context"
	"fmt"
	"time"

	"patient-intake-transcription-service/internal/catalog"
	"patient-intake-transcription-service/internal/config"
	"patient-intake-transcription-service/internal/events"
	"patient-intake-transcription-service/internal/observability/logging"
	"patient-intake-transcription-service/internal/service/relay"
	"patient-intake-transcription-service/internal/service/stt"
	"patient-intake-transcription-service/internal/service/stt/deepgram"
	"patient-intake-transcription-service/internal/service/stt/google"
	"patient-intake-transcription-service/internal/service/stt/mock"

	"github.com/rs/zerolog"
)

// Application wires the catalog, speech provider factory, and event
// publisher for the HTTP layer.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
	Catalog     *catalog.Catalog
	Publisher   *events.Publisher
	Factory     stt.Factory
	Limits      relay.StreamLimits
}

// New constructs an Application from the provided configuration.
// The section catalog is loaded and validated here so a broken catalog
// fails startup instead of the first session.
func New(cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	cat, err := catalog.Load(cfg.Service.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load section catalog: %w", err)
	}

	factory, err := buildFactory(cfg)
	if err != nil {
		return nil, err
	}

	a := &Application{
		Logger:    logging.WithComponent("application"),
		Cfg:       cfg,
		Catalog:   cat,
		Publisher: events.New(&events.Config{
			Enabled:         cfg.Kafka.Enabled,
			Brokers:         cfg.Kafka.Brokers,
			TopicTranscript: cfg.Kafka.TopicTranscript,
			TopicSection:    cfg.Kafka.TopicSection,
			Principal:       cfg.Kafka.Principal,
		}),
		Factory: factory,
		Limits: relay.StreamLimits{
			MaxAudioBytes: cfg.StreamLimits.MaxAudioBytes,
			MaxDuration:   cfg.StreamLimits.MaxDuration,
		},
	}

	a.Logger.Info().
		Str("provider", cfg.STT.Provider).
		Int("sections", catalog.SectionCount).
		Msg("Patient intake transcription service application created")
	return a, nil
}

// buildFactory returns the speech provider factory for the configured
// provider. Each session start invokes the factory for a fresh connection.
func buildFactory(cfg *config.Config) (stt.Factory, error) {
	switch cfg.STT.Provider {
	case "deepgram":
		dgCfg := deepgram.Config{
			APIKey:         cfg.STT.DeepgramAPIKey,
			Model:          cfg.STT.Model,
			Language:       cfg.STT.LanguageCode,
			InterimResults: cfg.STT.InterimResults,
		}
		// A missing key is not checked here: the session surfaces it as an
		// error message when the client first toggles transcription on.
		return func(ctx context.Context) (stt.Adapter, error) {
			return deepgram.New(dgCfg)
		}, nil
	case "google":
		gCfg := google.Config{
			LanguageCode:   cfg.STT.LanguageCode,
			SampleRateHz:   cfg.STT.SampleRateHz,
			InterimResults: cfg.STT.InterimResults,
			AudioEncoding:  cfg.STT.AudioEncoding,
		}
		return func(ctx context.Context) (stt.Adapter, error) {
			return google.New(ctx, gCfg)
		}, nil
	case "mock":
		return func(ctx context.Context) (stt.Adapter, error) {
			return mock.New(), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown STT provider: %q", cfg.STT.Provider)
	}
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Patient intake transcription service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Patient intake transcription service shutting down")
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Error closing event publisher")
	}
}
