package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type logScopeKey struct{}

// logScope collects request facts that inner middleware learn after the
// access logger has already passed the request on
type logScope struct {
	userID string
}

// noteUser records the authenticated user for the access log line
func noteUser(ctx context.Context, userID string) {
	if scope, ok := ctx.Value(logScopeKey{}).(*logScope); ok {
		scope.userID = userID
	}
}

// Logger writes one access line per request. The line carries the matched
// route pattern and, once Authenticate has run, the caller's user id.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			scope := &logScope{}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logScopeKey{}, scope)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", routePattern(r)),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			}
			if scope.userID != "" {
				fields = append(fields, zap.String("userID", scope.userID))
			}

			switch status := ww.Status(); {
			case status >= http.StatusInternalServerError:
				logger.Error("HTTP Request", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("HTTP Request", fields...)
			default:
				logger.Info("HTTP Request", fields...)
			}
		})
	}
}
