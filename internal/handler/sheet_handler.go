package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/service"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
	"github.com/noah-isme/signup-sheets-api/pkg/response"
)

// SheetHandler wires HTTP endpoints to the sheet service.
type SheetHandler struct {
	service *service.SheetService
}

// NewSheetHandler creates a new handler.
func NewSheetHandler(svc *service.SheetService) *SheetHandler {
	return &SheetHandler{service: svc}
}

// List godoc
// @Summary List sheets
// @Description List sheets with optional group, search and trash filters. Anonymous callers only see visible, non-trashed sheets.
// @Tags Sheets
// @Produce json
// @Param group query string false "Filter by sheet group"
// @Param search query string false "Search in title"
// @Param trashed query string false "Trash filter: 'only' or 'include' (privileged only)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sheets [get]
func (h *SheetHandler) List(c *gin.Context) {
	filter := models.SheetFilter{
		Group:  c.Query("group"),
		Search: c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if privilegedRequest(c) {
		switch c.Query("trashed") {
		case "only":
			filter.TrashedOnly = true
		case "include":
			filter.IncludeTrashed = true
		}
	} else {
		filter.VisibleOnly = true
	}

	sheets, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sheets, pagination)
}

// Get godoc
// @Summary Get a sheet with its tasks
// @Tags Sheets
// @Produce json
// @Param id path int true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id} [get]
func (h *SheetHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id, privilegedRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create a sheet
// @Tags Sheets
// @Accept json
// @Produce json
// @Param payload body service.SaveSheetRequest true "Sheet payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sheets [post]
func (h *SheetHandler) Create(c *gin.Context) {
	var req service.SaveSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sheet payload"))
		return
	}

	sheet, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, sheet)
}

// Update godoc
// @Summary Update a sheet
// @Description Update sheet settings. The sheet type is immutable.
// @Tags Sheets
// @Accept json
// @Produce json
// @Param id path int true "Sheet ID"
// @Param payload body service.SaveSheetRequest true "Sheet payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id} [put]
func (h *SheetHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SaveSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sheet payload"))
		return
	}

	sheet, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sheet, nil)
}

// ApplyDates godoc
// @Summary Rewrite the shared date list
// @Description Apply a new occurrence list to every task on the sheet. Refused when signups exist on removed dates unless override is set.
// @Tags Sheets
// @Accept json
// @Produce json
// @Param id path int true "Sheet ID"
// @Param payload body service.ApplyDatesRequest true "Dates payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sheets/{id}/dates [put]
func (h *SheetHandler) ApplyDates(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.ApplyDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dates payload"))
		return
	}

	sheet, err := h.service.ApplyDates(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sheet, nil)
}

// Trash godoc
// @Summary Move a sheet to the trash
// @Tags Sheets
// @Produce json
// @Param id path int true "Sheet ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id} [delete]
func (h *SheetHandler) Trash(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Trash(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Restore godoc
// @Summary Restore a sheet from the trash
// @Tags Sheets
// @Produce json
// @Param id path int true "Sheet ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id}/restore [put]
func (h *SheetHandler) Restore(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Restore(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Destroy godoc
// @Summary Permanently delete a sheet
// @Description Delete a sheet along with its tasks and signups.
// @Tags Sheets
// @Produce json
// @Param id path int true "Sheet ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id}/purge [delete]
func (h *SheetHandler) Destroy(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
