// Package ws exposes the session WebSocket endpoint and the supporting
// HTTP routes.
package ws

import (
	"encoding/json"
	"net/http"

	"patient-intake-transcription-service/internal/app"
	"patient-intake-transcription-service/internal/observability/logging"
	"patient-intake-transcription-service/internal/service/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser mic clients connect from the static page served by this
	// process or a dev origin; the endpoint carries no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server handles WebSocket session connections.
type Server struct {
	app *app.Application
}

// NewServer creates the WebSocket server.
func NewServer(application *app.Application) *Server {
	return &Server{app: application}
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	s := NewServer(application)

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Section catalog for form rendering
	r.Get("/v1/sections", s.handleSections)

	// Session WebSocket
	r.Get("/ws/transcription", s.handleTranscription)

	// Intake page and client assets
	if application.Cfg.Service.StaticDir != "" {
		fs := http.FileServer(http.Dir(application.Cfg.Service.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
	}

	return r
}

// handleSections returns the section catalog with default field values.
func (s *Server) handleSections(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.app.Catalog.Sections()); err != nil {
		s.app.Logger.Warn().Err(err).Msg("Failed to encode section catalog")
	}
}

// handleTranscription upgrades the connection and runs one session until the
// client disconnects. Binary frames carry audio, text frames carry control
// messages, and all server messages flow through the session's outbound
// queue so the connection has a single writer.
func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.app.Logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sessionID := uuid.NewString()
	logger := logging.WithSession(sessionID)
	logger.Info().Str("remote", r.RemoteAddr).Msg("Session connected")

	sess := session.New(sessionID, s.app.Catalog, s.app.Factory, s.app.Limits, s.app.Publisher)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range sess.Outbound() {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn().Err(err).Msg("Write to client failed")
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("Unexpected client disconnect")
			}
			break
		}
		switch msgType {
		case websocket.BinaryMessage:
			sess.HandleAudio(ctx, data)
		case websocket.TextMessage:
			sess.HandleControl(ctx, data)
		}
	}

	sess.Close()
	<-writerDone
	conn.Close()
	logger.Info().Msg("Session disconnected")
}
