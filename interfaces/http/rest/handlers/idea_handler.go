package handlers

import (
	"encoding/json"
	"net/http"

	"ideapardaz/application/commands"
	"ideapardaz/application/queries"
	"ideapardaz/application/services"
	"ideapardaz/domain/core/entities"
	pkgerrors "ideapardaz/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IdeaHandler handles idea-related HTTP requests
type IdeaHandler struct {
	stores StoreProvider
	logger *zap.Logger
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(stores StoreProvider, logger *zap.Logger) *IdeaHandler {
	return &IdeaHandler{stores: stores, logger: logger}
}

// ListIdeasResponse is returned by GET /ideas
type ListIdeasResponse struct {
	View  queries.View    `json:"view"`
	Ideas []entities.Idea `json:"ideas"`
	Count int             `json:"count"`
}

// ListIdeas handles GET /ideas?view=active|archived|all
func (h *IdeaHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	view, ok := queries.ParseView(r.URL.Query().Get("view"))
	if !ok {
		RespondError(w, h.logger, pkgerrors.NewValidationError("view must be one of active, archived, all"))
		return
	}
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}

	ideas := store.Ideas(view)
	respondJSON(w, http.StatusOK, ListIdeasResponse{View: view, Ideas: ideas, Count: len(ideas)})
}

// GetIdea handles GET /ideas/{ideaID}
func (h *IdeaHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	idea, err := store.Idea(chi.URLParam(r, "ideaID"))
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, idea)
}

// CreateIdea handles POST /ideas
func (h *IdeaHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddIdeaCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		RespondError(w, h.logger, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}

	idea, err := store.AddIdea(r.Context(), cmd)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, idea)
}

// DeleteIdea handles DELETE /ideas/{ideaID}
func (h *IdeaHandler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(store *services.IdeaStore, id string) error {
		return store.DeleteIdea(r.Context(), id)
	})
}

// ArchiveIdea handles POST /ideas/{ideaID}/archive
func (h *IdeaHandler) ArchiveIdea(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(store *services.IdeaStore, id string) error {
		return store.ArchiveIdea(r.Context(), id)
	})
}

// UnarchiveIdea handles POST /ideas/{ideaID}/unarchive
func (h *IdeaHandler) UnarchiveIdea(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(store *services.IdeaStore, id string) error {
		return store.UnarchiveIdea(r.Context(), id)
	})
}

// TogglePin handles POST /ideas/{ideaID}/pin
func (h *IdeaHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(store *services.IdeaStore, id string) error {
		return store.TogglePinIdea(r.Context(), id)
	})
}

// LinkIdeas handles POST /ideas/{ideaID}/links/{otherID}
func (h *IdeaHandler) LinkIdeas(w http.ResponseWriter, r *http.Request) {
	other := chi.URLParam(r, "otherID")
	h.mutate(w, r, func(store *services.IdeaStore, id string) error {
		return store.LinkIdeas(r.Context(), id, other)
	})
}

// UnlinkIdeas handles DELETE /ideas/{ideaID}/links/{otherID}
func (h *IdeaHandler) UnlinkIdeas(w http.ResponseWriter, r *http.Request) {
	other := chi.URLParam(r, "otherID")
	h.mutate(w, r, func(store *services.IdeaStore, id string) error {
		return store.UnlinkIdeas(r.Context(), id, other)
	})
}

// mutate runs an idea operation and answers 204. Operations on unknown ids
// are silent no-ops in the store, so they answer 204 too.
func (h *IdeaHandler) mutate(w http.ResponseWriter, r *http.Request, op func(store *services.IdeaStore, id string) error) {
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	if err := op(store, chi.URLParam(r, "ideaID")); err != nil {
		RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
