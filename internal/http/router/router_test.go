package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/toys-api/internal/http/handlers/toy"
	"github.com/aanand-mishra/toys-api/internal/storage/memory"
)

func TestKillCallsExitWithOne(t *testing.T) {
	code := -1
	h := New(memory.New(), Options{Exit: func(c int) { code = c }})

	req := httptest.NewRequest(http.MethodGet, "/kill", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, code)
}

func TestRoutesAreWired(t *testing.T) {
	h := New(memory.New(), Options{Reply: toy.ReplyID})

	req := httptest.NewRequest(http.MethodPost, "/toys", strings.NewReader(`{"name":"Ball","age":3,"price":9.99}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.JSONEq(t, `{"id":"1"}`, resp.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/toys", nil)
	req.Header.Set("Origin", "http://example.com")
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	h := New(memory.New(), Options{})

	req := httptest.NewRequest(http.MethodOptions, "/toys/1", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestMetricsExposeRequestCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(memory.New(), Options{Registry: reg})

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/toys/7", nil))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, `toys_http_requests_total{method="GET",route="/toys/{id}",status="404"} 1`)
	assert.Contains(t, body, "toys_http_request_duration_seconds")
}

func TestUnknownMethodIsRejected(t *testing.T) {
	h := New(memory.New(), Options{})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, "/toys/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}
