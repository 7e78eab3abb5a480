package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
)

func handleError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var conflictErr *apperrors.ConflictError
	var unprocessableErr *apperrors.UnprocessableError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case apperrors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Message})
	case errors.As(err, &unprocessableErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": unprocessableErr.Message})
	default:
		fields := logging.Fields{"path": c.FullPath()}
		if err != nil {
			fields["error"] = err.Error()
		}
		logging.New("handlers").Error("Request failed", fields)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// idParam parses a positive integer path parameter, answering 400 when it
// is malformed.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}
