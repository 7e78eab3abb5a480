package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/session"
)

var placedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store  *repository.MemoryStore
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Session: config.SessionConfig{CookieName: "webstore_session", TTL: time.Minute}}
	store := repository.NewMemoryStore()
	manager := service.NewOrderManager(store, nil, nil, nil, nil, cfg.Features)

	h := NewHandlers(Services{
		Orders:        manager,
		Users:         service.NewUserService(store, manager, session.NewMemoryStore(time.Minute), nil),
		Registrations: service.NewRegistrationService(repository.NewRegistrationStore()),
		Catalog:       service.NewCatalogService(store),
		Reviews:       service.NewReviewService(store),
	}, store, cfg)

	r := gin.New()
	r.POST("/api/orders", h.CreateOrder)
	r.GET("/api/orders/:id", h.GetOrder)
	r.PUT("/api/orders/:id", h.UpdateOrder)
	r.PATCH("/api/orders/:id", h.UpdateOrderStatus)
	r.DELETE("/api/orders/deleteorders/:orderId", h.DeleteOrder)
	r.GET("/api/orders/search/:text", h.SearchOrders)
	r.POST("/api/order_details", h.CreateOrderLine)
	r.GET("/api/order_details/order/:orderId", h.ListOrderLinesByOrder)
	r.DELETE("/api/users/deleteUser/:userId", h.DeleteUser)
	r.POST("/api/users/login", h.Login)
	r.POST("/api/users/logout", h.Logout)
	r.GET("/api/users/session", h.CurrentSession)
	r.GET("/api/products/categories/:categoryId/ByPriceCategory/:band", h.ProductsByPriceBand)
	r.GET("/api/products/by-ids", h.ProductsByIDs)
	r.POST("/api/register", h.CreateRegistration)

	return &testEnv{store: store, router: r}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedOrder(t *testing.T, id, customerID int64, lineIDs ...int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.Orders().Create(ctx, &models.Order{
		ID: id, CustomerID: customerID, Status: "processing", CreatedAt: placedAt, TotalAmount: decimal.NewFromInt(10),
	}))
	for _, lineID := range lineIDs {
		require.NoError(t, e.store.OrderLines().Create(ctx, &models.OrderLine{
			ID: lineID, OrderID: id, ProductID: 1, Price: decimal.NewFromInt(10), Quantity: 1, TotalMoney: decimal.NewFromInt(10),
		}))
	}
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/orders", map[string]interface{}{
		"customer_id":  4,
		"order_status": "processing",
		"create_at":    placedAt,
		"total_amount": "60000000",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.NotZero(t, order.ID)
	assert.True(t, decimal.NewFromInt(60_000_000).Equal(order.TotalAmount))
}

func TestCreateOrder_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/orders", map[string]interface{}{"customer_id": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderRoutes_StatusCodes(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, 1, 4, 2, 5)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"get existing", http.MethodGet, "/api/orders/1", nil, http.StatusOK},
		{"get missing", http.MethodGet, "/api/orders/42", nil, http.StatusNotFound},
		{"get malformed id", http.MethodGet, "/api/orders/abc", nil, http.StatusBadRequest},
		{"put id mismatch", http.MethodPut, "/api/orders/1", map[string]interface{}{"order_id": 2, "customer_id": 4, "order_status": "x", "create_at": placedAt}, http.StatusBadRequest},
		{"put missing", http.MethodPut, "/api/orders/42", map[string]interface{}{"order_id": 42, "customer_id": 4, "order_status": "x", "create_at": placedAt}, http.StatusNotFound},
		{"patch empty status", http.MethodPatch, "/api/orders/42", map[string]string{"order_status": ""}, http.StatusBadRequest},
		{"patch missing", http.MethodPatch, "/api/orders/42", map[string]string{"order_status": "shipped"}, http.StatusNotFound},
		{"patch existing", http.MethodPatch, "/api/orders/1", map[string]string{"order_status": "shipped"}, http.StatusNoContent},
		{"search none", http.MethodGet, "/api/orders/search/999", nil, http.StatusNotFound},
		{"search hit", http.MethodGet, "/api/orders/search/1", nil, http.StatusOK},
		{"line for missing order", http.MethodPost, "/api/order_details", map[string]interface{}{"order_id": 42, "product_id": 1, "number_of_products": 1}, http.StatusNotFound},
		{"negative line", http.MethodPost, "/api/order_details", map[string]interface{}{"order_id": 1, "product_id": 1, "number_of_products": 1, "price": -5000, "total_money": -5000}, http.StatusBadRequest},
		{"delete missing order", http.MethodDelete, "/api/orders/deleteorders/42", nil, http.StatusNotFound},
		{"delete missing user", http.MethodDelete, "/api/users/deleteUser/42", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestDeleteOrderCascade(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, 1, 4, 2, 5)

	w := env.do(http.MethodDelete, "/api/orders/deleteorders/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/orders/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/order_details/order/1", nil).Code)
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Users().Create(context.Background(), &models.User{
		ID: 1, Username: "an", Password: "secret", RoleID: models.RoleCustomer,
	}))

	form := strings.NewReader("username=an&password=wrong")
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/users/login", models.LoginRequest{Username: "an", Password: "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "User", resp.Role)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "webstore_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/api/users/session", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"an"`)

	req = httptest.NewRequest(http.MethodPost, "/api/users/logout", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/users/session", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/users/session", nil).Code)
}

func TestCurrentSession_UserDeleted(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Users().Create(context.Background(), &models.User{
		ID: 1, Username: "an", Password: "secret", RoleID: models.RoleCustomer,
	}))

	w := env.do(http.MethodPost, "/api/users/login", models.LoginRequest{Username: "an", Password: "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	require.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/users/deleteUser/1", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users/session", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProductsByPriceBand_UnknownBand(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/products/categories/1/ByPriceCategory/luxury", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProductsByIDs(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/products/by-ids", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/products/by-ids?ids=1,x", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/products/by-ids?ids=1,2", nil).Code)
}

func TestCreateRegistration_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	body := models.Registration{Username: "an", Email: "an@example.com", Password: "pw"}

	assert.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/register", body).Code)
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/register", body).Code)
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.NewValidationError("f", "bad"), http.StatusBadRequest},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"not found", apperrors.NotFound("order", 1), http.StatusNotFound},
		{"conflict", apperrors.NewConflictError("duplicate", nil), http.StatusConflict},
		{"unprocessable", &apperrors.UnprocessableError{Message: "band"}, http.StatusUnprocessableEntity},
		{"internal", apperrors.Internal("op", errors.New("boom")), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			handleError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleError(c, errors.New("secret detail"))
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "webstore-service", resp["service"])
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		store Pinger
		want  int
	}{
		{"reachable", repository.NewMemoryStore(), http.StatusOK},
		{"unreachable", failingPinger{}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(Services{}, tt.store, &config.Config{})

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			h.Ready(c)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestLive(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Live(c)

	assert.Equal(t, http.StatusOK, w.Code)
}
