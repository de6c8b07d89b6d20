package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/signup-sheets-api/internal/service"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
	"github.com/noah-isme/signup-sheets-api/pkg/response"
)

// TaskHandler wires HTTP endpoints to the task service.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new handler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// ListBySheet godoc
// @Summary List tasks on a sheet
// @Tags Tasks
// @Produce json
// @Param id path int true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id}/tasks [get]
func (h *TaskHandler) ListBySheet(c *gin.Context) {
	sheetID, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	tasks, err := h.service.ListBySheet(c.Request.Context(), sheetID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tasks, nil)
}

// Get godoc
// @Summary Get a task
// @Tags Tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	task, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, task, nil)
}

// Create godoc
// @Summary Create a task on a sheet
// @Description Create a task. On single and recurring sheets the task inherits the shared date list.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path int true "Sheet ID"
// @Param payload body service.SaveTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sheets/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	sheetID, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SaveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.Create(c.Request.Context(), sheetID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task)
}

// Update godoc
// @Summary Update a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param payload body service.SaveTaskRequest true "Task payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SaveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, task, nil)
}

// Reorder godoc
// @Summary Reorder tasks on a sheet
// @Description Accepts the full ordered list of task IDs for the sheet.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path int true "Sheet ID"
// @Param payload body map[string][]int64 true "Ordered task IDs"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sheets/{id}/tasks/order [put]
func (h *TaskHandler) Reorder(c *gin.Context) {
	sheetID, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var payload struct {
		TaskIDs []int64 `json:"task_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "task_ids required"))
		return
	}

	if err := h.service.Reorder(c.Request.Context(), sheetID, payload.TaskIDs); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a task
// @Description Delete a task and its signups.
// @Tags Tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
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
