// Package http exposes the dashboard over HTTP: health, readiness, and
// metrics endpoints plus a small JSON API that serves the current record,
// feature, and volunteer state and accepts highlight requests from thin map
// clients.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moxalise/aidmap/internal/app"
	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/mapview"
	"github.com/moxalise/aidmap/internal/push"
	"github.com/moxalise/aidmap/internal/tracking"
	"github.com/moxalise/aidmap/internal/volunteer"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Dashboard is the controller surface the API needs.
type Dashboard interface {
	Records() []domain.Record
	Cards() []app.Card
	Pins() []mapview.Pin
	HandleCardClick(id string)
	HandleBackgroundClick()
}

// FeatureSource yields the current rendered feature collection.
type FeatureSource interface {
	GetSource(id string) (mapview.Source, bool)
}

// VolunteerView yields the current volunteer markers.
type VolunteerView interface {
	Markers() []volunteer.Marker
}

// NotificationSender forwards help-is-underway notifications upstream.
type NotificationSender interface {
	SendNotification(ctx context.Context, n push.Notification) error
}

// Server exposes the dashboard API together with health, readiness, and
// metrics routes.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	features   FeatureSource
	volunteers VolunteerView
	notify     NotificationSender
	logger     *slog.Logger
}

// NewServer wires all routes onto a fresh mux.
func NewServer(addr string, dash Dashboard, features FeatureSource, volunteers VolunteerView, notify NotificationSender, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:       dash,
		features:   features,
		volunteers: volunteers,
		notify:     notify,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/cards", s.handleCards)
	mux.HandleFunc("GET /api/pins", s.handlePins)
	mux.HandleFunc("GET /api/features", s.handleFeatures)
	mux.HandleFunc("GET /api/volunteers", s.handleVolunteers)
	mux.HandleFunc("POST /api/highlight", s.handleHighlight)
	mux.HandleFunc("POST /api/notify", s.handleNotify)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Records())
}

func (s *Server) handleCards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Cards())
}

func (s *Server) handlePins(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Pins())
}

func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	src, ok := s.features.GetSource(mapview.SourceID)
	if !ok || src.Data() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "map source not ready"})
		return
	}
	writeJSON(w, http.StatusOK, src.Data())
}

func (s *Server) handleVolunteers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.volunteers.Markers())
}

// handleHighlight drives the same flow as a card click. The id query
// parameter selects the record; "" or "-1" clears.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	id := mapview.NormalizeID(r.URL.Query().Get("id"))
	if id == mapview.ClearID {
		s.dash.HandleBackgroundClick()
	} else {
		s.dash.HandleCardClick(id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"highlighted": id})
}

// handleNotify forwards a help-is-underway notification to the central
// webhook. The record id is required; the phone, when present, must be a
// valid local mobile number.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var n push.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if n.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	if n.Phone != "" && !tracking.ValidPhone(n.Phone) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid phone number"})
		return
	}
	if err := s.notify.SendNotification(r.Context(), n); err != nil {
		s.logger.Error("notification send failed", "record_id", n.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "notification delivery failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
