package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// CreateOrder handles POST /api/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		h.logger.Error("Failed to bind request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.orders.CreateOrder(c.Request.Context(), &order)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListOrders handles GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrder handles PUT /api/orders/:id
func (h *Handlers) UpdateOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if !bindJSON(c, &order) {
		return
	}

	if err := h.orders.UpdateOrder(c.Request.Context(), id, &order); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateOrderStatus handles PATCH /api/orders/:id
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.orders.UpdateOrderStatusOnly(c.Request.Context(), id, req.OrderStatus); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteOrder handles DELETE /api/orders/deleteorders/:orderId
func (h *Handlers) DeleteOrder(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}

	if err := h.orders.DeleteOrderCascade(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SearchOrders handles GET /api/orders/search/:text
func (h *Handlers) SearchOrders(c *gin.Context) {
	orders, err := h.orders.SearchOrdersByIdSubstring(c.Request.Context(), c.Param("text"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// LatestCustomerOrder handles GET /api/orders/customer/:customerId
func (h *Handlers) LatestCustomerOrder(c *gin.Context) {
	customerID, ok := idParam(c, "customerId")
	if !ok {
		return
	}

	order, err := h.orders.LatestOrderForCustomer(c.Request.Context(), customerID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListCustomerOrders handles GET /api/users/:id/orders
func (h *Handlers) ListCustomerOrders(c *gin.Context) {
	customerID, ok := idParam(c, "id")
	if !ok {
		return
	}

	orders, err := h.orders.ListCustomerOrders(c.Request.Context(), customerID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}

// CreateOrderLine handles POST /api/order_details
func (h *Handlers) CreateOrderLine(c *gin.Context) {
	var line models.OrderLine
	if !bindJSON(c, &line) {
		return
	}

	created, err := h.orders.CreateOrderLine(c.Request.Context(), &line)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListOrderLines handles GET /api/order_details
func (h *Handlers) ListOrderLines(c *gin.Context) {
	lines, err := h.orders.ListOrderLines(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, lines)
}

// GetOrderLine handles GET /api/order_details/:id
func (h *Handlers) GetOrderLine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	line, err := h.orders.GetOrderLine(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}

// ListOrderLinesByOrder handles GET /api/order_details/order/:orderId
func (h *Handlers) ListOrderLinesByOrder(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}

	lines, err := h.orders.ListOrderLinesByOrder(c.Request.Context(), orderID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, lines)
}

// UpdateOrderLine handles PUT /api/order_details/:id
func (h *Handlers) UpdateOrderLine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var line models.OrderLine
	if !bindJSON(c, &line) {
		return
	}

	if err := h.orders.UpdateOrderLine(c.Request.Context(), id, &line); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteOrderLine handles DELETE /api/order_details/:id
func (h *Handlers) DeleteOrderLine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.orders.DeleteOrderLine(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
