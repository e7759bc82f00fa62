package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rishiqwerty/event-management-backend/internal/pkg/metrics"
)

func TestPrometheusMiddleware_CountsRequests(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	e := echo.New()
	e.Use(PrometheusMiddleware(m))
	e.GET("/api/v1/events/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events/event-1", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	// パスはルートパターンで集計される（IDごとにラベルが増えない）
	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events/:id", "200"))
	assert.Equal(t, float64(3), count)
}

func TestPrometheusMiddleware_RecordsErrorStatus(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	e := echo.New()
	e.Use(PrometheusMiddleware(m))
	e.GET("/api/v1/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "満席です")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fail", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/fail", "409"))
	assert.Equal(t, float64(1), count)
}
