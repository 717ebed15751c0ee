package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/markstash/internal/version"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type registrarFunc func(mux *http.ServeMux)

func (f registrarFunc) RegisterRoutes(mux *http.ServeMux) { f(mux) }

func newTestServer(t *testing.T, pinger Pinger, opts Options, regs ...RouteRegistrar) http.Handler {
	t.Helper()
	return New("127.0.0.1:0", pinger, zap.NewNop(), opts, regs...).Handler()
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, fakePinger{}, Options{})

	w := serve(h, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, version.Short(), w.Header().Get(VersionHeader))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "markstash", body.Service)
	assert.NotEmpty(t, body.Message)
	assert.Equal(t, version.Short(), body.Version["version"])
}

func TestHealth_StoreDown(t *testing.T) {
	h := newTestServer(t, fakePinger{err: errors.New("disk gone")}, Options{})

	w := serve(h, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, CodeUnavailable, p.Code)
	assert.NotContains(t, p.Detail, "disk gone")
}

func TestRequestID(t *testing.T) {
	var seen string
	reg := registrarFunc(func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/echo", func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		})
	})
	h := newTestServer(t, nil, Options{}, reg)

	w := serve(h, http.MethodGet, "/api/echo")
	id := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, seen)

	req := httptest.NewRequest(http.MethodGet, "/api/echo", nil)
	req.Header.Set("X-Request-ID", "client-chosen")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "client-chosen", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "client-chosen", seen)
}

func TestRecoverer(t *testing.T) {
	reg := registrarFunc(func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/boom", func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
	})
	h := newTestServer(t, nil, Options{}, reg)

	w := serve(h, http.MethodGet, "/api/boom")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, CodeInternalError, p.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, fakePinger{}, Options{RateLimitRPS: 0.001, RateLimitBurst: 2})

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/health").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/health").Code)

	w := serve(h, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, CodeRateLimited, p.Code)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestKeyedLimiter_SweepsIdle(t *testing.T) {
	l := newKeyedLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < sweepThreshold; i++ {
		l.Allow(fmt.Sprintf("client-%d", i))
	}
	require.Equal(t, sweepThreshold, l.size())

	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow("fresh")
	assert.Equal(t, 1, l.size())
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, fakePinger{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, fakePinger{}, Options{})
	serve(h, http.MethodGet, "/api/health")

	w := serve(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `markstash_http_requests_total{code="200",method="GET",route="GET /api/health"} 1`)
	assert.Contains(t, string(body), "markstash_http_request_duration_seconds")
}

func TestUnmatchedRoute(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/nowhere").Code)
}

func TestSwaggerDoc(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	w := serve(h, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "markstash API")
	assert.Contains(t, w.Body.String(), "/favorites/{id}")
}
