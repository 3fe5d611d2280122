// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/denlabs/denengine/internal/adapters/repository"
	"github.com/denlabs/denengine/internal/domain/model"
)

// ProfileDependencies defines the interface for profile lookups.
type ProfileDependencies interface {
	Profile(ctx context.Context, userID string) (model.Profile, error)
}

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleProfile handles GET /v1/profile requests for the authenticated user.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.profile"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	p, err := h.deps.Profile(r.Context(), UserID(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
