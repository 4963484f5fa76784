package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscreener/finscreener-mcp/internal/metrics"
)

func TestRequestMetricsRecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg, "mwtest"))

	r := chi.NewRouter()
	r.Use(RequestMetrics)
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())

	count, err := testutil.GatherAndCount(reg, "mwtest_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	var endpoint string
	for _, mf := range families {
		if mf.GetName() != "mwtest_http_requests_total" {
			continue
		}
		for _, label := range mf.GetMetric()[0].GetLabel() {
			if label.GetName() == "endpoint" {
				endpoint = label.GetValue()
			}
		}
	}
	assert.Equal(t, "/orders/{id}", endpoint)
}

func TestRequestMetricsPassesFlush(t *testing.T) {
	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Flusher)
		assert.True(t, ok, "streamed responses need Flush")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetEndpointPattern_StandardPaths(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/health", "/health/*"},
		{"/health/live", "/health/*"},
		{"/health/ready", "/health/*"},
		{"/version", "/version"},
		{"/metrics", "/metrics"},
		{"/mcp", "/mcp"},
		{"/api/users/123", "/unknown"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			assert.Equal(t, tt.expected, getEndpointPattern(req))
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "test-request-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "test-request-id", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "test-request-id", seen)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}
