package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"ideapardaz/application/services"
	"ideapardaz/pkg/auth"
	pkgerrors "ideapardaz/pkg/errors"

	"go.uber.org/zap"
)

// StoreProvider hands out the idea store of an authenticated user
type StoreProvider interface {
	Store(ctx context.Context, userID string) (*services.IdeaStore, error)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func storeFor(r *http.Request, stores StoreProvider) (*services.IdeaStore, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.NewUnauthorizedError("no authenticated user")
	}
	return stores.Store(r.Context(), p.UserID)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError renders err with the status its type carries. Errors outside
// the application taxonomy become an opaque 500.
func RespondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		logger.Error("Unhandled error", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
			Type:    string(pkgerrors.ErrorTypeInternal),
			Message: "internal error",
		}})
		return
	}

	status := pkgerrors.HTTPStatus(appErr)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("type", string(appErr.Type)),
			zap.Error(err),
			zap.String("stack", appErr.StackTrace),
		)
	}
	respondJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}
