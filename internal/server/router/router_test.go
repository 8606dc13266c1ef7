package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmdesk/internal/config"
	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/server/handlers"
	"github.com/mamadbah2/farmdesk/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type connectedDB struct{}

func (connectedDB) Health(context.Context) string { return "connected" }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(Dependencies{
		Server:      config.ServerConfig{Env: config.EnvProduction, CORSOrigins: []string{"https://farm.example"}},
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Health:      handlers.NewHealthHandler(connectedDB{}, "production"),
	}, nil)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthRouteAndRequestID(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec = serve(r, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	rec := serve(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var env handlers.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Message)
}

func TestWrongMethodReturnsEnvelope(t *testing.T) {
	rec := serve(newTestRouter(t), httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPanicIsRecoveredAsEnvelope(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var env handlers.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "internal server error", env.Message)
}

func TestMetricsEndpointExposesRequestCounts(t *testing.T) {
	r := newTestRouter(t)
	serve(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `farmdesk_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://farm.example")
	rec := serve(r, req)
	assert.Equal(t, "https://farm.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(r, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type stubFinance struct {
	handlers.FinanceService
	calls int
}

func (s *stubFinance) Summary(context.Context, models.FinanceFilter) (*models.FinanceSummary, error) {
	s.calls++
	return &models.FinanceSummary{}, nil
}

func TestFinanceSummaryAndAnalyticsShareHandler(t *testing.T) {
	svc := &stubFinance{}
	r := New(Dependencies{
		Finance: handlers.NewFinancialRecordHandler(svc, handlers.NewResponder(nil, false)),
	}, nil)

	for _, path := range []string{"/api/financial-records/summary", "/api/financial-records/analytics"} {
		rec := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Equal(t, 2, svc.calls)
}
