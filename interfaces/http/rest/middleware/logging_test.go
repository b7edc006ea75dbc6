package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func loggedRouter(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Logger(logger))
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(nil, zap.NewNop()))
		r.Get("/ideas/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func TestLoggerRecordsRouteAndUser(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := loggedRouter(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas/abc", nil)
	req.Header.Set("X-User-ID", "alice")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/v1/ideas/{id}", fields["route"])
	assert.Equal(t, "/api/v1/ideas/abc", fields["path"])
	assert.Equal(t, "alice", fields["userID"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestLoggerWithoutRouteOrUser(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := loggedRouter(zap.New(core))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "unmatched", fields["route"])
	assert.NotContains(t, fields, "userID")
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}
