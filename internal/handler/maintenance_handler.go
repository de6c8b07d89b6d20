package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/signup-sheets-api/internal/service"
	"github.com/noah-isme/signup-sheets-api/pkg/response"
)

// MaintenanceHandler exposes manual triggers for the background jobs.
type MaintenanceHandler struct {
	sweeps    *service.SweepService
	reminders *service.ReminderService
}

// NewMaintenanceHandler creates a new handler.
func NewMaintenanceHandler(sweeps *service.SweepService, reminders *service.ReminderService) *MaintenanceHandler {
	return &MaintenanceHandler{sweeps: sweeps, reminders: reminders}
}

// Sweep godoc
// @Summary Run the expiry sweep now
// @Description Purge expired validation codes and stale unvalidated signups.
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/sweep [post]
func (h *MaintenanceHandler) Sweep(c *gin.Context) {
	result, err := h.sweeps.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// DispatchReminders godoc
// @Summary Dispatch due reminder emails now
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/reminders [post]
func (h *MaintenanceHandler) DispatchReminders(c *gin.Context) {
	enqueued, err := h.reminders.DispatchDue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"enqueued": enqueued}, nil)
}
