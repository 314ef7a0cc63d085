// Package api exposes the daemon's small HTTP surface: the door event feed
// the hub posts to when a sensor changes state, and a liveness endpoint.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rainguard/internal/scheduler"
	"rainguard/internal/types"
)

// maxEventBodySize bounds door event payloads (they are a few dozen bytes).
const maxEventBodySize = 4 << 10

// DoorEvent is the payload the hub's webhook automation posts on every door
// sensor state change.
type DoorEvent struct {
	EntityID string `json:"entity_id"`
	NewState string `json:"new_state"`
}

// Server is the HTTP event feed. Only transitions to "open" enqueue an
// evaluation; everything else is acknowledged and ignored, matching the
// rule that closing a door can never make an alert more urgent.
type Server struct {
	evaluator   scheduler.Enqueuer
	doorSensors map[string]struct{}
	logger      *slog.Logger
	router      *chi.Mux
}

// NewServer creates the event feed server for the given door sensor ids.
func NewServer(evaluator scheduler.Enqueuer, doorSensors []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	known := make(map[string]struct{}, len(doorSensors))
	for _, id := range doorSensors {
		known[id] = struct{}{}
	}

	s := &Server{
		evaluator:   evaluator,
		doorSensors: known,
		logger:      logger,
		router:      chi.NewRouter(),
	}
	s.mountRoutes()
	return s
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mountRoutes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/api/v1/events/door", s.handleDoorEvent)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDoorEvent receives a sensor state change from the hub. A transition
// to "open" on a configured door sensor enqueues an immediate evaluation;
// other transitions and unknown entities return 204 without side effects.
func (s *Server) handleDoorEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, types.ErrCodeInternalUnexpected, "failed to read request body")
		return
	}

	var ev DoorEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, types.ErrCodeEventInvalid, "event payload is not valid JSON")
		return
	}
	if ev.EntityID == "" {
		writeError(w, http.StatusBadRequest, types.ErrCodeEventInvalid, "entity_id is required")
		return
	}

	if _, known := s.doorSensors[ev.EntityID]; !known {
		s.logger.Warn("door event for unmonitored entity ignored",
			"entity_id", ev.EntityID,
		)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if ev.NewState != "on" {
		// Transitions to closed (or unknown) never trigger evaluation.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.logger.Info("door opened, requesting evaluation",
		"entity_id", ev.EntityID,
	)
	s.evaluator.Enqueue(types.TriggerDoorOpen)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse is the envelope for error replies.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code types.ErrorCode, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{
		Code:    string(code),
		Message: message,
	}})
}
