package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"transport-ops-backend/internal/repository"
	"transport-ops-backend/internal/services"
	"transport-ops-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const defaultListLimit = 100

type AlertHandler struct {
	alertService *services.AlertService
	validator    *validator.Validate
}

func NewAlertHandler(alertService *services.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		validator:    validator.New(),
	}
}

// TriggerAlert raises a non-scan-origin alert; the entry point other
// subsystems use (e.g. a booking controller detecting urgency).
func (h *AlertHandler) TriggerAlert(c *gin.Context) {
	var req services.TriggerAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	// Alerts triggered over the API carry the caller's identity.
	if req.TriggeredBy == "" {
		if userID := c.GetString("user_id"); userID != "" {
			req.TriggeredBy = userID
		}
	}

	alert, err := h.alertService.TriggerAlert(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownAlertType),
			errors.Is(err, services.ErrInvalidSeverity),
			errors.Is(err, services.ErrMissingTitle):
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid alert data", err)
		default:
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to trigger alert", err)
		}
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Alert triggered successfully", alert)
}

// GetAlerts lists alerts, newest first, filtered by any combination of
// status, type, severity, entityType and entityId.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	filters := repository.AlertFilters{
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		Severity:   c.Query("severity"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
	}

	limit := int64(defaultListLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = parsed
	}

	alerts, err := h.alertService.ListAlerts(filters, limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve alerts", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alerts retrieved successfully", alerts)
}

// GetAlert retrieves a specific alert by ID.
func (h *AlertHandler) GetAlert(c *gin.Context) {
	alert, err := h.alertService.GetAlert(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrAlertNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Alert not found", err)
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert retrieved successfully", alert)
}

// AcknowledgeAlert moves an active alert to acknowledged.
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	alert, err := h.alertService.Acknowledge(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.transitionError(c, "Failed to acknowledge alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert acknowledged successfully", alert)
}

// ResolveAlert moves an active or acknowledged alert to resolved.
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	alert, err := h.alertService.Resolve(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.transitionError(c, "Failed to resolve alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert resolved successfully", alert)
}

// GetAlertStatistics returns aggregate counts by status and severity.
func (h *AlertHandler) GetAlertStatistics(c *gin.Context) {
	stats, err := h.alertService.GetStatistics()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve alert statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert statistics retrieved successfully", stats)
}

func (h *AlertHandler) transitionError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, services.ErrAlertNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Alert not found", err)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusConflict, "Invalid alert status transition", err)
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
	}
}
