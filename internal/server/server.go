package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/handler"
	"github.com/dukerupert/chorechart/internal/middleware"
	ws "github.com/dukerupert/chorechart/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	choreH      *handler.ChoreHandler
	assigneeH   *handler.AssigneeHandler
	digestH     *handler.DigestHandler
	rateLimiter *middleware.RateLimiter
	origins     []string
	lastBackup  func() (time.Time, bool)
	logger      *slog.Logger
}

// Options holds the HTTP-layer settings.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	// OriginPatterns restricts websocket origins; empty allows any.
	OriginPatterns []string
	// LastBackup, when set, reports the time of the latest successful backup
	// on /health.
	LastBackup func() (time.Time, bool)
}

func New(db *sql.DB, chores *chore.Service, digests handler.DigestService, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	return &Server{
		db:          db,
		hub:         hub,
		choreH:      handler.NewChoreHandler(chores, hub, logger.With("component", "chore")),
		assigneeH:   handler.NewAssigneeHandler(chores, hub, logger.With("component", "assignee")),
		digestH:     handler.NewDigestHandler(digests, logger.With("component", "digest")),
		rateLimiter: middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		origins:     opts.OriginPatterns,
		lastBackup:  opts.LastBackup,
		logger:      logger,
	}
}

// Hub returns the websocket hub so shutdown can disconnect clients.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.origins, s.logger.With("component", "websocket")))

	// Chore API routes
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("POST /api/chores", s.rateLimited(s.choreH.Create))
	mux.HandleFunc("PUT /api/chores/{id}", s.rateLimited(s.choreH.Update))
	mux.HandleFunc("DELETE /api/chores/{id}", s.rateLimited(s.choreH.Delete))
	mux.HandleFunc("POST /api/chores/{id}/complete", s.rateLimited(s.choreH.Complete))
	mux.HandleFunc("POST /api/chores/{id}/undo", s.rateLimited(s.choreH.Undo))
	mux.HandleFunc("POST /api/chores/{id}/toggle-priority", s.rateLimited(s.choreH.TogglePriority))
	mux.HandleFunc("GET /api/priorities", s.choreH.Priorities)

	// Assignee API routes
	mux.HandleFunc("GET /api/assignees", s.assigneeH.List)
	mux.HandleFunc("POST /api/assignees", s.rateLimited(s.assigneeH.Create))
	mux.HandleFunc("DELETE /api/assignees/{id}", s.rateLimited(s.assigneeH.Delete))
	mux.HandleFunc("GET /api/assignees/{name}/chores", s.assigneeH.Chores)

	// Digest routes
	mux.HandleFunc("GET /api/digest", s.digestH.Preview)
	mux.HandleFunc("POST /api/digest/send", s.rateLimited(s.digestH.Send))

	logged := middleware.RequestLogger(s.logger.With("component", "http"))(mux)
	return middleware.RequestID(logged)
}

type healthResponse struct {
	Status     string     `json:"status"`
	Clients    int        `json:"ws_clients"`
	Dropped    uint64     `json:"ws_dropped"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(healthResponse{Status: "unavailable"})
		return
	}
	resp := healthResponse{
		Status:  "ok",
		Clients: s.hub.ClientCount(),
		Dropped: s.hub.Dropped(),
	}
	if s.lastBackup != nil {
		if at, ok := s.lastBackup(); ok {
			resp.LastBackup = &at
		}
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h).ServeHTTP
}
