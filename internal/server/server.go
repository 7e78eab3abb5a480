package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/requestctx"
)

type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *handlers.Handlers
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

func New(h *handlers.Handlers, m *metrics.Metrics, cfg *config.Config) *Server {
	router := gin.New()

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		metrics:  m,
		logger:   logging.New("http"),
	}

	router.Use(gin.Recovery(), requestID(), s.requestLogger(), m.Middleware())
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.Health)
	s.router.GET("/ready", h.Ready)
	s.router.GET("/live", h.Live)
	s.router.GET("/version", h.Version)
	s.router.GET("/metrics", s.metrics.Handler())
	if gin.Mode() != gin.ReleaseMode {
		s.router.GET("/debug", h.Debug)
	}

	api := s.router.Group("/api")

	orders := api.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.PATCH("/:id", h.UpdateOrderStatus)
		orders.DELETE("/deleteorders/:orderId", h.DeleteOrder)
		orders.GET("/search/:text", h.SearchOrders)
		orders.GET("/customer/:customerId", h.LatestCustomerOrder)
	}

	lines := api.Group("/order_details")
	{
		lines.POST("", h.CreateOrderLine)
		lines.GET("", h.ListOrderLines)
		lines.GET("/:id", h.GetOrderLine)
		lines.PUT("/:id", h.UpdateOrderLine)
		lines.DELETE("/:id", h.DeleteOrderLine)
		lines.GET("/order/:orderId", h.ListOrderLinesByOrder)
	}

	users := api.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.GET("/:id/orders", h.ListCustomerOrders)
		users.PATCH("/:id/password", h.UpdatePassword)
		users.DELETE("/deleteUser/:userId", h.DeleteUser)
		users.POST("/login", h.Login)
		users.POST("/logout", h.Logout)
		users.GET("/session", h.CurrentSession)
	}

	register := api.Group("/register")
	{
		register.GET("", h.ListRegistrations)
		register.POST("", h.CreateRegistration)
		register.GET("/:id", h.GetRegistration)
		register.PUT("/:id", h.UpdateRegistration)
		register.DELETE("/:id", h.DeleteRegistration)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.GET("/:id", h.GetCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}

	brands := api.Group("/brands")
	{
		brands.GET("", h.ListBrands)
		brands.POST("", h.CreateBrand)
		brands.GET("/:id", h.GetBrand)
		brands.PUT("/:id", h.UpdateBrand)
		brands.DELETE("/:id", h.DeleteBrand)
		brands.GET("/ByCategory/:categoryId", h.BrandsByCategory)
	}

	products := api.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", h.CreateProduct)
		products.GET("/:id", h.GetProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
		products.GET("/ByCategory/:categoryId", h.ProductsByCategory)
		products.GET("/ByBrand/:brandId", h.ProductsByBrand)
		products.GET("/by-ids", h.ProductsByIDs)
		products.GET("/search/:text", h.SearchProducts)
		products.GET("/categories/:categoryId/brands/:brandId", h.ProductsByCategoryAndBrand)
		products.GET("/categories/:categoryId/ByPriceCategory/:band", h.ProductsByPriceBand)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", h.ListReviews)
		reviews.POST("", h.CreateReview)
		reviews.GET("/:id", h.GetReview)
		reviews.PUT("/:id", h.UpdateReview)
		reviews.DELETE("/:id", h.DeleteReview)
		reviews.GET("/product/:productId", h.ReviewsByProduct)
		reviews.GET("/user/:userId", h.ReviewsByUser)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting server", logging.Fields{"addr": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// requestID reuses an inbound X-Request-ID or assigns a new one, and makes
// it available through the request context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestctx.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestctx.HeaderRequestID, id)
		c.Request = c.Request.WithContext(requestctx.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logging.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": requestctx.RequestID(c.Request.Context()),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.logger.Error("Request completed", fields)
		case c.Writer.Status() >= http.StatusBadRequest:
			s.logger.Warn("Request completed", fields)
		default:
			s.logger.Debug("Request completed", fields)
		}
	}
}
