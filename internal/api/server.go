// Package api exposes the engine over HTTP: a small REST surface for state
// and history, a WebSocket ingest endpoint for the telemetry feed, and a
// WebSocket stream fanning advisories out to display clients.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"pitcall-engine/internal/advisory"
	"pitcall-engine/internal/db"
	"pitcall-engine/internal/engine"
	"pitcall-engine/internal/hub"
)

// Server represents the API server
type Server struct {
	engine *engine.Engine
	hub    *hub.Hub
	db     *db.Database // nil when recording is disabled
	router *mux.Router
}

// NewServer creates a new API server. database may be nil.
func NewServer(eng *engine.Engine, h *hub.Hub, database *db.Database) *Server {
	s := &Server{
		engine: eng,
		hub:    h,
		db:     database,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Streaming endpoints (no JSON middleware: these hijack the connection)
	s.router.HandleFunc("/ws/telemetry", s.handleTelemetryIngest)
	s.router.HandleFunc("/ws/advisories", s.handleAdvisoryStream)

	// REST endpoints
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/track", s.handleTrack).Methods("GET")
	api.HandleFunc("/advisory/latest", s.handleLatestAdvisory).Methods("GET")
	api.HandleFunc("/advisories", s.handleQueryAdvisories).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.Use(jsonMiddleware)

	s.router.Use(loggingMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Middleware
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type meta struct {
	Total   int   `json:"total,omitempty"`
	Limit   int   `json:"limit,omitempty"`
	Offset  int   `json:"offset,omitempty"`
	QueryMs int64 `json:"query_ms,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

func respondWithMeta(w http.ResponseWriter, data interface{}, m *meta) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Meta: m})
}

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Config())
}

func (s *Server) handleLatestAdvisory(w http.ResponseWriter, r *http.Request) {
	pkt, ok := s.hub.Last()
	if !ok {
		respondError(w, http.StatusNotFound, "no advisory emitted yet")
		return
	}
	respondJSON(w, http.StatusOK, pkt)
}

func (s *Server) handleQueryAdvisories(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "advisory recording is disabled")
		return
	}

	start := time.Now()

	q := db.AdvisoryQuery{
		Status: advisory.Status(r.URL.Query().Get("status")),
		Limit:  100, // default
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		q.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		q.Offset, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("start_time"); v != "" {
		q.StartTime, _ = time.Parse(time.RFC3339, v)
	}
	if v := r.URL.Query().Get("end_time"); v != "" {
		q.EndTime, _ = time.Parse(time.RFC3339, v)
	}

	results, err := s.db.QueryAdvisories(q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	queryMs := time.Since(start).Milliseconds()
	respondWithMeta(w, results, &meta{
		Total:   len(results),
		Limit:   q.Limit,
		Offset:  q.Offset,
		QueryMs: queryMs,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	processed, dropped := s.engine.Stats()
	stats := map[string]interface{}{
		"samples_processed": processed,
		"samples_dropped":   dropped,
		"consumers":         s.hub.SubscriberCount(),
	}

	if s.db != nil {
		recorded, err := s.db.GetStats()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stats["recorded"] = recorded
	}

	respondJSON(w, http.StatusOK, stats)
}
