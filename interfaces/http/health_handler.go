package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"my-publisher/infrastructure/persistence"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
	Status(c *gin.Context)
}

type HealthHandler struct {
	statusRepository persistence.IStatusRepository
}

func NewHealthHandler(statusRepository persistence.IStatusRepository) IHealthHandler {
	return &HealthHandler{statusRepository: statusRepository}
}

// Healthz returns OK for liveness probes.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status pings the backing stores and reports per-component health.
func (h *HealthHandler) Status(ctx *gin.Context) {
	components := h.statusRepository.Check(ctx.Request.Context())

	code := http.StatusOK
	for _, state := range components {
		if state == "down" {
			code = http.StatusServiceUnavailable
			break
		}
	}
	ctx.JSON(code, gin.H{"components": components})
}
