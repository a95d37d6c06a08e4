package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"patient-intake-transcription-service/internal/api/ws"
	"patient-intake-transcription-service/internal/app"
	"patient-intake-transcription-service/internal/config"
	"patient-intake-transcription-service/internal/observability"
)

func main() {
	// Local development convenience; the file is optional
	_ = godotenv.Load()

	cfg := config.Load()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build application")
	}
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	// Metrics and health endpoints on a separate port
	obsServer := observability.NewServer(":" + cfg.Observability.MetricsPort)
	obsServer.Start()

	srv := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: ws.NewRouter(application),
	}

	go func() {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("Patient intake transcription service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown error")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Observability shutdown error")
	}
	application.Shutdown()
}
