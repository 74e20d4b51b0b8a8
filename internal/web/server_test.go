package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusloop/internal/config"
	"statusloop/internal/reconcile"
)

type staticSource struct{ text string }

func (s staticSource) ReadScheduleText() ([]byte, error) { return []byte(s.text), nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	opts := &config.Options{
		IntervalSeconds: 20,
		LookbackDays:    2,
		Locale:          "en",
		Timezone:        time.UTC,
	}
	engine, err := reconcile.New(staticSource{}, nil, opts, nil, zerolog.Nop())
	require.NoError(t, err)
	return New(reconcile.NewRunner(engine), "127.0.0.1:0", zerolog.Nop())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestStatus_FreshRunner(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, false, view["lastSetKnown"])
	assert.NotContains(t, view, "active")
	assert.NotContains(t, view, "lastError")
}
