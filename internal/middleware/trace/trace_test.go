package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "spendwise/internal/log"
)

func newTestLogger(buf *bytes.Buffer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Format = "json"
	cfg.Output = buf
	return applog.New(cfg)
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), func(*http.Request) string { return "198.51.100.1" })

	var ctxLogger *applog.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = applog.FromContext(r.Context())
		ctxLogger.InfoContext(r.Context(), "handler ran")
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/expenses", nil))

	seen := rec.Header().Get(HeaderRequestID)
	require.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, applog.ComponentHTTP, ctxLogger.Component())

	out := buf.String()
	assert.Contains(t, out, `"status_code":201`)
	assert.Contains(t, out, `"client_ip":"198.51.100.1"`)
	assert.Contains(t, out, `"msg":"handler ran"`)
	assert.Equal(t, 2, strings.Count(out, `"request_id":"`+seen+`"`))
}

func TestMiddleware_HonorsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "bad id with spaces")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.True(t, strings.HasPrefix(rec.Header().Get(HeaderRequestID), "req_"))
}

func TestMiddleware_ServerErrorLoggedAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"status_code":500`)
}
