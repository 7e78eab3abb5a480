package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// ListRegistrations handles GET /api/register
func (h *Handlers) ListRegistrations(c *gin.Context) {
	regs, err := h.registrations.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, regs)
}

// GetRegistration handles GET /api/register/:id
func (h *Handlers) GetRegistration(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	reg, err := h.registrations.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// CreateRegistration handles POST /api/register
func (h *Handlers) CreateRegistration(c *gin.Context) {
	var reg models.Registration
	if !bindJSON(c, &reg) {
		return
	}

	created, err := h.registrations.Create(c.Request.Context(), &reg)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateRegistration handles PUT /api/register/:id
func (h *Handlers) UpdateRegistration(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var reg models.Registration
	if !bindJSON(c, &reg) {
		return
	}

	if err := h.registrations.Update(c.Request.Context(), id, &reg); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteRegistration handles DELETE /api/register/:id
func (h *Handlers) DeleteRegistration(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.registrations.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
