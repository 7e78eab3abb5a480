package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.ListCustomers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var user models.User
	if !bindJSON(c, &user) {
		return
	}

	created, err := h.users.CreateUser(c.Request.Context(), &user)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateUser handles PUT /api/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if !bindJSON(c, &user) {
		return
	}

	if err := h.users.UpdateUser(c.Request.Context(), id, &user); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/users/deleteUser/:userId
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}

	if _, err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Login handles POST /api/users/login. Credentials may arrive as form
// fields or as a JSON body.
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, sessionID, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	cfg := h.config.Session
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, sessionID, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/users/logout
func (h *Handlers) Logout(c *gin.Context) {
	cfg := h.config.Session
	sessionID, _ := c.Cookie(cfg.CookieName)

	if err := h.users.Logout(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}

	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// CurrentSession handles GET /api/users/session
func (h *Handlers) CurrentSession(c *gin.Context) {
	sessionID, err := c.Cookie(h.config.Session.CookieName)
	if err != nil || sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	sess, err := h.users.CurrentSession(c.Request.Context(), sessionID)
	if apperrors.IsNotFound(err) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    sess.UserID,
		"username":   sess.Username,
		"role_id":    sess.RoleID,
		"expires_at": sess.ExpiresAt,
	})
}

// UpdatePassword handles PATCH /api/users/:id/password
func (h *Handlers) UpdatePassword(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.UpdatePassword(c.Request.Context(), id, &req); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
