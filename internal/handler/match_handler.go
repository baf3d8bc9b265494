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

// MatchHandler runs the tutor matching flow: propose, review, select.
type MatchHandler struct {
	matching *service.MatchingService
	pairings *service.PairingService
}

// NewMatchHandler creates a new handler.
func NewMatchHandler(matching *service.MatchingService, pairings *service.PairingService) *MatchHandler {
	return &MatchHandler{matching: matching, pairings: pairings}
}

// Match godoc
// @Summary Propose tutors for a subject
// @Description Returns at most one tutor per slot where both sides are free. Proposals are held until selected or expired.
// @Tags Matching
// @Accept json
// @Produce json
// @Param payload body dto.MatchRequest true "Match payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /match [post]
func (h *MatchHandler) Match(c *gin.Context) {
	var req dto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid match payload"))
		return
	}

	claims := middleware.CurrentUser(c)
	resp, err := h.matching.Match(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Proposals godoc
// @Summary Return the caller's held proposals
// @Tags Matching
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Security BearerAuth
// @Router /match/proposals [get]
func (h *MatchHandler) Proposals(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	proposals, err := h.matching.HeldProposals(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MatchResponse{Proposals: proposals}, nil)
}

// Select godoc
// @Summary Commit one of the caller's held proposals
// @Description Marks the slot busy for both parties and logs the pairing.
// @Tags Matching
// @Accept json
// @Produce json
// @Param payload body dto.SelectRequest true "Selection payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Security BearerAuth
// @Router /match/select [post]
func (h *MatchHandler) Select(c *gin.Context) {
	var req dto.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}

	claims := middleware.CurrentUser(c)
	pairing, err := h.pairings.Select(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pairing)
}
