package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutoring-api/internal/dto"
	"github.com/noah-isme/tutoring-api/internal/middleware"
	"github.com/noah-isme/tutoring-api/internal/service"
	appErrors "github.com/noah-isme/tutoring-api/pkg/errors"
	"github.com/noah-isme/tutoring-api/pkg/response"
)

// CapabilityHandler exposes a tutor's subject registration.
type CapabilityHandler struct {
	service *service.CapabilityService
}

// NewCapabilityHandler creates a new handler.
func NewCapabilityHandler(svc *service.CapabilityService) *CapabilityHandler {
	return &CapabilityHandler{service: svc}
}

// Get godoc
// @Summary Return the caller's subject flags by category
// @Tags Capabilities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [get]
func (h *CapabilityHandler) Get(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	resp, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Put godoc
// @Summary Replace the caller's subject flags
// @Tags Capabilities
// @Accept json
// @Produce json
// @Param payload body dto.CapabilityRequest true "Subject flags"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [put]
func (h *CapabilityHandler) Put(c *gin.Context) {
	var req dto.CapabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid capability payload"))
		return
	}

	claims := middleware.CurrentUser(c)
	if err := h.service.Replace(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
