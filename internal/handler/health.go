// internal/handler/health.go

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"twofactor-service/internal/domain"
	"twofactor-service/internal/models"
)

type HealthHandler struct {
	store domain.ChallengeStore
	mode  string
}

func NewHealthHandler(store domain.ChallengeStore, mode string) *HealthHandler {
	return &HealthHandler{store: store, mode: mode}
}

// Check handles the health check endpoint
func (h *HealthHandler) Check(c *gin.Context) {
	storeStatus := "OK"
	status := http.StatusOK
	if err := h.store.Ping(c.Request.Context()); err != nil {
		storeStatus = "Unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, models.APIResponse{
		Status:  status,
		Message: models.StatusServiceHealth,
		Info: gin.H{
			"store_status": storeStatus,
			"server_mode":  h.mode,
		},
	})
}
