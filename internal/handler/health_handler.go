package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/piteam/pi_api/internal/utils"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct{}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// GetHealth handles GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	utils.Success(c, 200, "Server is running", gin.H{"status": "ok"})
}
