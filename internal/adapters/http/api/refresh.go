// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// EnqueueDependencies defines the interface for async refresh scheduling.
type EnqueueDependencies interface {
	EnqueueRefresh(ctx context.Context, userID string) (queued, duplicate bool)
	EnqueueAll(ctx context.Context) (int, error)
}

// EnqueueHandler handles the fire-and-forget refresh endpoints.
type EnqueueHandler struct {
	deps EnqueueDependencies
}

// NewEnqueueHandler creates a new enqueue handler.
func NewEnqueueHandler(deps EnqueueDependencies) *EnqueueHandler {
	return &EnqueueHandler{deps: deps}
}

type enqueueResponse struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
}

type enqueueAllResponse struct {
	Status    string `json:"status"`
	UserCount int    `json:"user_count"`
}

// HandleEnqueueRefresh handles POST /v1/explore/enqueue-refresh requests.
// The response reports scheduling only; it says nothing about the eventual
// job outcome.
func (h *EnqueueHandler) HandleEnqueueRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.enqueue_refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID := UserID(r.Context())

	queued, duplicate := h.deps.EnqueueRefresh(r.Context(), userID)
	switch {
	case duplicate:
		writeJSON(w, http.StatusOK, enqueueResponse{Status: "duplicate", UserID: userID})
	case !queued:
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	default:
		writeJSON(w, http.StatusAccepted, enqueueResponse{Status: "queued", UserID: userID})
	}
}

// HandleEnqueueAll handles POST /v1/explore/enqueue-all requests.
func (h *EnqueueHandler) HandleEnqueueAll(w http.ResponseWriter, r *http.Request) {
	const op = "api.enqueue_all"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	count, err := h.deps.EnqueueAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, enqueueAllResponse{Status: "all queued", UserCount: count})
}

// RefreshDependencies defines the interface for the synchronous refresh.
type RefreshDependencies interface {
	Refresh(ctx context.Context, userID string) (int, error)
}

// RefreshHandler handles blocking refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// HandleRefresh handles POST /v1/recommendations/refresh requests. It runs
// the pipeline inline and reports the written candidate count.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID := UserID(r.Context())

	count, err := h.deps.Refresh(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Status: "ok", Count: count})
}
