package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutoring-api/internal/service"
	"github.com/noah-isme/tutoring-api/pkg/response"
)

// PairingHandler exposes the pairing log and the master schedule
// exports. Admin only.
type PairingHandler struct {
	service *service.PairingService
}

// NewPairingHandler creates a new handler.
func NewPairingHandler(svc *service.PairingService) *PairingHandler {
	return &PairingHandler{service: svc}
}

// List godoc
// @Summary List all pairings, newest first
// @Tags Pairings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /pairings [get]
func (h *PairingHandler) List(c *gin.Context) {
	pairings, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pairings, nil)
}

// Deactivate godoc
// @Summary Deactivate an upcoming pairing
// @Tags Pairings
// @Produce json
// @Param id path string true "Pairing id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /pairings/{id} [delete]
func (h *PairingHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Download the master schedule as CSV
// @Tags Pairings
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /pairings/export/csv [get]
func (h *PairingHandler) ExportCSV(c *gin.Context) {
	data, err := h.service.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "master-schedule-" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Download the master schedule as PDF
// @Tags Pairings
// @Produce application/pdf
// @Success 200 {file} file
// @Security BearerAuth
// @Router /pairings/export/pdf [get]
func (h *PairingHandler) ExportPDF(c *gin.Context) {
	data, err := h.service.ExportPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "master-schedule-" + time.Now().Format("2006-01-02") + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
