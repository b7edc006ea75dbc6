package handlers

import (
	"encoding/json"
	"net/http"

	"ideapardaz/application/commands"
	pkgerrors "ideapardaz/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VibeHandler handles vibe-related HTTP requests
type VibeHandler struct {
	stores StoreProvider
	logger *zap.Logger
}

// NewVibeHandler creates a new vibe handler
func NewVibeHandler(stores StoreProvider, logger *zap.Logger) *VibeHandler {
	return &VibeHandler{stores: stores, logger: logger}
}

// ListVibes handles GET /vibes
func (h *VibeHandler) ListVibes(w http.ResponseWriter, r *http.Request) {
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"vibes": store.Vibes()})
}

// CreateVibe handles POST /vibes
func (h *VibeHandler) CreateVibe(w http.ResponseWriter, r *http.Request) {
	var req commands.AddVibeCommand
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, h.logger, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}

	vibe, err := store.AddVibe(r.Context(), req.Name)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, vibe)
}

// DeleteVibe handles DELETE /vibes/{vibeID}
func (h *VibeHandler) DeleteVibe(w http.ResponseWriter, r *http.Request) {
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	if err := store.DeleteVibe(r.Context(), chi.URLParam(r, "vibeID")); err != nil {
		RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
