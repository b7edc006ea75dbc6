package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ideapardaz/interfaces/http/rest/handlers"
	"ideapardaz/pkg/auth"
	pkgerrors "ideapardaz/pkg/errors"

	"go.uber.org/zap"
)

// LocalUserID owns the store when authentication is off and no X-User-ID
// header is sent
const LocalUserID = "local"

// Authenticate resolves the caller from the bearer token. With a nil
// verifier every request is trusted and identified by X-User-ID.
func Authenticate(verifier auth.Verifier, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
				if userID == "" {
					userID = LocalUserID
				}
				noteUser(r.Context(), userID)
				ctx := auth.WithPrincipal(r.Context(), &auth.Principal{UserID: userID})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			principal, err := verifier.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("Rejected request",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				handlers.RespondError(w, logger, pkgerrors.NewUnauthorizedError(unauthorizedMessage(err)))
				return
			}

			noteUser(r.Context(), principal.UserID)
			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing authorization header"
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid token signature"
	default:
		return "invalid token"
	}
}
