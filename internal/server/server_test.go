package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/requestctx"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/session"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 0},
		Session: config.SessionConfig{CookieName: "webstore_session", TTL: time.Minute},
	}
	store := repository.NewMemoryStore()
	manager := service.NewOrderManager(store, nil, nil, nil, nil, cfg.Features)

	h := handlers.NewHandlers(handlers.Services{
		Orders:        manager,
		Users:         service.NewUserService(store, manager, session.NewMemoryStore(time.Minute), nil),
		Registrations: service.NewRegistrationService(repository.NewRegistrationStore()),
		Catalog:       service.NewCatalogService(store),
		Reviews:       service.NewReviewService(store),
	}, store, cfg)

	return New(h, metrics.New(), cfg).Handler()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/api/orders", http.StatusNotFound},
		{http.MethodGet, "/api/orders/search/7", http.StatusNotFound},
		{http.MethodGet, "/api/orders/customer/7", http.StatusNotFound},
		{http.MethodGet, "/api/order_details", http.StatusOK},
		{http.MethodGet, "/api/users", http.StatusNotFound},
		{http.MethodGet, "/api/users/7/orders", http.StatusOK},
		{http.MethodGet, "/api/users/session", http.StatusUnauthorized},
		{http.MethodGet, "/api/register", http.StatusOK},
		{http.MethodGet, "/api/categories", http.StatusNotFound},
		{http.MethodGet, "/api/brands/ByCategory/1", http.StatusNotFound},
		{http.MethodGet, "/api/products", http.StatusOK},
		{http.MethodGet, "/api/products/categories/1/brands/2", http.StatusOK},
		{http.MethodGet, "/api/products/search/phone", http.StatusNotFound},
		{http.MethodGet, "/api/reviews", http.StatusOK},
		{http.MethodGet, "/api/reviews/product/1", http.StatusNotFound},
		{http.MethodGet, "/api/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(h, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(requestctx.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestctx.HeaderRequestID, "req-123")
	w = serve(h, req)
	assert.Equal(t, "req-123", w.Header().Get(requestctx.HeaderRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)

	serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "webstore_http_requests_total"))
}
