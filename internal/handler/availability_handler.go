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

// AvailabilityHandler exposes the caller's schedule and combined
// availability.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler creates a new handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// GetSchedule godoc
// @Summary Return the caller's weekly free-period grid
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule [get]
func (h *AvailabilityHandler) GetSchedule(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	schedule, err := h.service.Schedule(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// PutSchedule godoc
// @Summary Replace the caller's weekly free-period grid
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleRequest true "Free slots"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule [put]
func (h *AvailabilityHandler) PutSchedule(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	claims := middleware.CurrentUser(c)
	if err := h.service.SubmitSchedule(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}

	schedule, err := h.service.Schedule(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// GetEffective godoc
// @Summary Return the caller's combined availability
// @Description A slot is effective when declared free and not committed.
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/effective [get]
func (h *AvailabilityHandler) GetEffective(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	view, err := h.service.EffectiveView(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
