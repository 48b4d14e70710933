package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"studentquiz/middleware"
	"studentquiz/models"
	"studentquiz/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service and storage errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case models.IsIntegrityConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicts with existing data"})
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) uint {
	return c.GetUint(middleware.UserIDKey)
}
