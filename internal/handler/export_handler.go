package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/signup-sheets-api/internal/service"
	"github.com/noah-isme/signup-sheets-api/pkg/response"
)

// ExportHandler serves roster downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Roster godoc
// @Summary Download a sheet's signup roster
// @Description Export every signup on the sheet as CSV or PDF.
// @Tags Exports
// @Produce octet-stream
// @Param id path int true "Sheet ID"
// @Param format query string false "Export format: csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id}/export [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	sheetID, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))

	result, err := h.service.Roster(c.Request.Context(), sheetID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
