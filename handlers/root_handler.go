package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RootHandler struct {
	projectName string
	db          Pinger
}

func NewRootHandler(projectName string, db Pinger) *RootHandler {
	return &RootHandler{projectName: projectName, db: db}
}

func (h *RootHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"project_name": h.projectName})
}

func (h *RootHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
