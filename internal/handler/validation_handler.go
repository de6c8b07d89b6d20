package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/signup-sheets-api/internal/service"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
	"github.com/noah-isme/signup-sheets-api/pkg/response"
)

// ValidationHandler wires HTTP endpoints to the validation service.
type ValidationHandler struct {
	service    *service.ValidationService
	cookieName string
	secure     bool
}

// NewValidationHandler creates a new handler. secure controls the
// cookie's Secure flag and should be true behind TLS.
func NewValidationHandler(svc *service.ValidationService, cookieName string, secure bool) *ValidationHandler {
	return &ValidationHandler{service: svc, cookieName: cookieName, secure: secure}
}

// Request godoc
// @Summary Request a validation code
// @Description Email a one-time validation code to the given address. Repeated requests re-send the unexpired code.
// @Tags Validation
// @Accept json
// @Produce json
// @Param payload body service.RequestValidationRequest true "Identity payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /validate/request [post]
func (h *ValidationHandler) Request(c *gin.Context) {
	var req service.RequestValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}

	if err := h.service.RequestCode(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, gin.H{"message": "check your email for the validation link"}, nil)
}

// Confirm godoc
// @Summary Confirm a validation code
// @Description Verify a mailed code, mark matching signups validated and set the signed identity cookie.
// @Tags Validation
// @Produce json
// @Param code query string true "Validation code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /validate [get]
func (h *ValidationHandler) Confirm(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "code is required"))
		return
	}

	value, cookie, err := h.service.Confirm(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetCookie(h.cookieName, value, int(h.service.CookieTTL().Seconds()), "/", "", h.secure, true)
	response.JSON(c, http.StatusOK, cookie, nil)
}
