package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// ListReviews handles GET /api/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	reviews, err := h.reviews.ListReviews(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// GetReview handles GET /api/reviews/:id
func (h *Handlers) GetReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	review, err := h.reviews.GetReview(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// ReviewsByProduct handles GET /api/reviews/product/:productId
func (h *Handlers) ReviewsByProduct(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	reviews, err := h.reviews.ReviewsByProduct(c.Request.Context(), productID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// ReviewsByUser handles GET /api/reviews/user/:userId
func (h *Handlers) ReviewsByUser(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	reviews, err := h.reviews.ReviewsByUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// CreateReview handles POST /api/reviews
func (h *Handlers) CreateReview(c *gin.Context) {
	var review models.Review
	if !bindJSON(c, &review) {
		return
	}
	created, err := h.reviews.CreateReview(c.Request.Context(), &review)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateReview handles PUT /api/reviews/:id
func (h *Handlers) UpdateReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var review models.Review
	if !bindJSON(c, &review) {
		return
	}
	updated, err := h.reviews.UpdateReview(c.Request.Context(), id, &review)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteReview handles DELETE /api/reviews/:id
func (h *Handlers) DeleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.DeleteReview(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
