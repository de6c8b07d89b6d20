package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/service"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
	"github.com/noah-isme/signup-sheets-api/pkg/response"
)

// SignupHandler wires HTTP endpoints to the signup service. It resolves
// the caller's identity from JWT claims or the validation cookie.
type SignupHandler struct {
	service    *service.SignupService
	validation *service.ValidationService
	cookieName string
}

// NewSignupHandler creates a new handler.
func NewSignupHandler(svc *service.SignupService, validation *service.ValidationService, cookieName string) *SignupHandler {
	return &SignupHandler{service: svc, validation: validation, cookieName: cookieName}
}

// identity resolves the caller's identity. Authenticated admins carry
// their user id; anonymous volunteers are identified by the validation
// cookie when present.
func (h *SignupHandler) identity(c *gin.Context) *models.SignupIdentity {
	if claims := claimsFromContext(c); claims != nil {
		return &models.SignupIdentity{UserID: claims.UserID, Email: claims.Email}
	}

	raw, err := c.Cookie(h.cookieName)
	if err != nil || raw == "" {
		return nil
	}
	cookie, err := h.validation.DecodeCookie(raw)
	if err != nil {
		return nil
	}

	return &models.SignupIdentity{
		FirstName: cookie.FirstName,
		LastName:  cookie.LastName,
		Email:     cookie.Email,
	}
}

// Spots godoc
// @Summary Remaining spots for a task date
// @Tags Signups
// @Produce json
// @Param id path int true "Task ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/spots [get]
func (h *SignupHandler) Spots(c *gin.Context) {
	taskID, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.service.AvailableSpots(c.Request.Context(), taskID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// ListForTask godoc
// @Summary List signups for a task date
// @Tags Signups
// @Produce json
// @Param id path int true "Task ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/signups [get]
func (h *SignupHandler) ListForTask(c *gin.Context) {
	taskID, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	signups, err := h.service.ListForTaskDate(c.Request.Context(), taskID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, signups, nil)
}

// Mine godoc
// @Summary List the caller's signups
// @Description List signups belonging to the authenticated user or validated volunteer.
// @Tags Signups
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /signups/mine [get]
func (h *SignupHandler) Mine(c *gin.Context) {
	identity := h.identity(c)
	if identity == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "validate your email to view your signups"))
		return
	}

	signups, err := h.service.ListMine(c.Request.Context(), *identity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, signups, nil)
}

// Create godoc
// @Summary Sign up for a task
// @Description Take a spot on a task date. Admission is atomic; a full task returns 409.
// @Tags Signups
// @Accept json
// @Produce json
// @Param payload body service.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /signups [post]
func (h *SignupHandler) Create(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	result, err := h.service.Signup(c.Request.Context(), req, h.identity(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Update godoc
// @Summary Edit a signup
// @Description Edit an owned signup. The date cannot change; clear and re-sign instead.
// @Tags Signups
// @Accept json
// @Produce json
// @Param id path int true "Signup ID"
// @Param payload body service.SignupRequest true "Signup payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /signups/{id} [put]
func (h *SignupHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	result, err := h.service.Update(c.Request.Context(), id, req, h.identity(c), privilegedRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Clear godoc
// @Summary Clear a signup
// @Description Give up a spot. Blocked inside the sheet's clear window unless the caller is privileged.
// @Tags Signups
// @Produce json
// @Param id path int true "Signup ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /signups/{id} [delete]
func (h *SignupHandler) Clear(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Clear(c.Request.Context(), id, h.identity(c), privilegedRequest(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
