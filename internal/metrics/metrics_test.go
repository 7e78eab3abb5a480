package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue reads a counter sample from the registry.
func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, lp := range metric.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCascadeCompleted(t *testing.T) {
	m := New()

	m.CascadeCompleted("order", 1, 2, nil)
	m.CascadeCompleted("user", 3, 5, nil)
	m.CascadeCompleted("user", 0, 0, errors.New("boom"))

	assert.Equal(t, 1.0, counterValue(t, m, "webstore_cascade_deletes_total",
		map[string]string{"aggregate": "order", "outcome": "succeeded"}))
	assert.Equal(t, 1.0, counterValue(t, m, "webstore_cascade_deletes_total",
		map[string]string{"aggregate": "user", "outcome": "failed"}))
	assert.Equal(t, 4.0, counterValue(t, m, "webstore_cascade_deleted_rows_total",
		map[string]string{"entity": "order"}))
	assert.Equal(t, 7.0, counterValue(t, m, "webstore_cascade_deleted_rows_total",
		map[string]string{"entity": "order_line"}))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.CacheError()
		m.CascadeCompleted("order", 1, 1, nil)
		m.Event("out", "order.created", nil)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/7", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, counterValue(t, m, "webstore_http_requests_total",
		map[string]string{"route": "/api/orders/:id", "method": "GET", "status": "204"}))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "webstore_http_requests_total"))
}
