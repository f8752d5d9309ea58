package handlers

import (
	"net/http"

	"transport-ops-backend/internal/health"
	"transport-ops-backend/internal/services"
	"transport-ops-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes the monitoring engine's debug surface: a manual
// full-scan trigger and the execution-health snapshot.
type SystemHandler struct {
	scanner *services.ScannerService
	monitor *health.Monitor
}

func NewSystemHandler(scanner *services.ScannerService, monitor *health.Monitor) *SystemHandler {
	return &SystemHandler{
		scanner: scanner,
		monitor: monitor,
	}
}

// RunChecks runs every scan job now, synchronously, and reports whether the
// cycle was clean. Failures inside the cycle are already logged per entity
// and per job.
func (h *SystemHandler) RunChecks(c *gin.Context) {
	if err := h.scanner.RunAllChecks(c.Request.Context()); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "System checks completed with failures", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "System checks completed", h.monitor.GetSnapshot())
}

// GetMonitoring returns the engine's execution-health snapshot.
func (h *SystemHandler) GetMonitoring(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Monitoring snapshot retrieved", h.monitor.GetSnapshot())
}
