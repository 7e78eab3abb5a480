package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
)

const serviceName = "webstore-service"

var startTime = time.Now()

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Ready handles GET /ready
func (h *Handlers) Ready(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			h.logger.Warn("Readiness check failed", logging.Fields{"error": err.Error()})
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
	})
}

// Live handles GET /live
func (h *Handlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// Version handles GET /version
func (h *Handlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    "1.0.0",
		"service":    serviceName,
		"go_version": runtime.Version(),
		"built_at":   startTime.Format(time.RFC3339),
		"uptime":     time.Since(startTime).Round(time.Second).String(),
	})
}

// Debug handles GET /debug
func (h *Handlers) Debug(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"features": gin.H{
			"enable_order_caching":   h.config.Features.EnableOrderCaching,
			"enable_order_events":    h.config.Features.EnableOrderEvents,
			"enable_status_consumer": h.config.Features.EnableStatusConsumer,
			"enable_notifications":   h.config.Features.EnableNotifications,
			"enable_redis_sessions":  h.config.Features.EnableRedisSessions,
		},
		"config": gin.H{
			"server_port":      h.config.Server.Port,
			"store_driver":     h.config.StoreDriver,
			"database_host":    h.config.Database.Host,
			"redis_host":       h.config.Redis.Host,
			"kafka_brokers":    h.config.Kafka.Brokers,
			"notification_url": h.config.NotificationService.BaseURL,
		},
	})
}
