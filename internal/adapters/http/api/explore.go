// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/denlabs/denengine/internal/domain/types"
)

// ExploreDependencies defines the interface for feed reads.
type ExploreDependencies interface {
	ExploreFeed(ctx context.Context, userID string, limit int) ([]types.FeedItem, error)
}

// ExploreHandler handles explore feed requests.
type ExploreHandler struct {
	deps         ExploreDependencies
	defaultLimit int
	maxLimit     int
}

// NewExploreHandler creates a new explore handler.
func NewExploreHandler(deps ExploreDependencies, defaultLimit, maxLimit int) *ExploreHandler {
	return &ExploreHandler{
		deps:         deps,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// HandleExplore handles GET /v1/recommendations/explore?limit=N requests.
// An empty recommendation state is served from the cold-start fallback, never
// as an error.
func (h *ExploreHandler) HandleExplore(w http.ResponseWriter, r *http.Request) {
	const op = "api.explore"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	items, err := h.deps.ExploreFeed(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, items)
}
