// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/denlabs/denengine/internal/domain/model"
	"github.com/denlabs/denengine/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// EnqueueRefresh schedules an async refresh for one user.
	EnqueueRefresh(ctx context.Context, userID string) (queued, duplicate bool)

	// EnqueueAll fans out one refresh job per known user.
	EnqueueAll(ctx context.Context) (int, error)

	// Refresh runs the pipeline synchronously and returns the written count.
	Refresh(ctx context.Context, userID string) (int, error)

	// ExploreFeed returns the resolved feed for a user.
	ExploreFeed(ctx context.Context, userID string, limit int) ([]types.FeedItem, error)

	// Profile returns the caller's profile.
	Profile(ctx context.Context, userID string) (model.Profile, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	auth           *Authenticator
	rootHandler    *RootHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	enqueueHandler *EnqueueHandler
	refreshHandler *RefreshHandler
	exploreHandler *ExploreHandler
	profileHandler *ProfileHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, auth *Authenticator, defaultLimit, maxLimit int) *Server {
	return &Server{
		auth:           auth,
		rootHandler:    NewRootHandler(),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		enqueueHandler: NewEnqueueHandler(deps),
		refreshHandler: NewRefreshHandler(deps),
		exploreHandler: NewExploreHandler(deps, defaultLimit, maxLimit),
		profileHandler: NewProfileHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/explore/enqueue-refresh",
		MetricsMiddleware(s.auth.Require(s.enqueueHandler.HandleEnqueueRefresh), "enqueue_refresh"))
	mux.HandleFunc("/v1/explore/enqueue-all",
		MetricsMiddleware(s.enqueueHandler.HandleEnqueueAll, "enqueue_all"))
	mux.HandleFunc("/v1/recommendations/refresh",
		MetricsMiddleware(s.auth.Require(s.refreshHandler.HandleRefresh), "refresh"))
	mux.HandleFunc("/v1/recommendations/explore",
		MetricsMiddleware(s.auth.Require(s.exploreHandler.HandleExplore), "explore"))
	mux.HandleFunc("/v1/profile",
		MetricsMiddleware(s.auth.Require(s.profileHandler.HandleProfile), "profile"))
	mux.HandleFunc("/", s.rootHandler.HandleRoot)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// RootHandler serves the liveness document at /.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "API running"})
}
