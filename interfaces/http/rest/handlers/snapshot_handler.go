package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"ideapardaz/infrastructure/snapshot"
	pkgerrors "ideapardaz/pkg/errors"

	"go.uber.org/zap"
)

// SnapshotHandler exports and imports whole backups
type SnapshotHandler struct {
	stores StoreProvider
	now    func() time.Time
	logger *zap.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(stores StoreProvider, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{stores: stores, now: time.Now, logger: logger}
}

// ImportResponse summarizes an applied import
type ImportResponse struct {
	Vibes    int    `json:"vibes"`
	Ideas    int    `json:"ideas"`
	Revision uint64 `json:"revision"`
}

// Export handles GET /export and answers with a downloadable backup
func (h *SnapshotHandler) Export(w http.ResponseWriter, r *http.Request) {
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := snapshot.Write(&buf, store.ExportSnapshot()); err != nil {
		RespondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snapshot.FileName(h.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Import handles POST /import?confirm=true. The body replaces everything the
// user has, so the caller must confirm explicitly.
func (h *SnapshotHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		RespondError(w, h.logger, pkgerrors.NewValidationError("import replaces all ideas and vibes; repeat with confirm=true"))
		return
	}
	state, err := snapshot.Read(r.Body)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}
	store, err := storeFor(r, h.stores)
	if err != nil {
		RespondError(w, h.logger, err)
		return
	}

	if err := store.ImportSnapshot(r.Context(), state); err != nil {
		RespondError(w, h.logger, err)
		return
	}
	current := store.ExportSnapshot()
	respondJSON(w, http.StatusOK, ImportResponse{
		Vibes:    len(current.Vibes),
		Ideas:    len(current.Ideas),
		Revision: uint64(store.Revision()),
	})
}
