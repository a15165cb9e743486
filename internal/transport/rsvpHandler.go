package transport

import (
	"net/http"

	"github.com/gatherhub/gatherhub/internal/service"

	"github.com/gin-gonic/gin"
)

type RSVPHandler struct {
	rsvpService service.RSVPService
}

func NewRSVPHandler(rsvpService service.RSVPService) *RSVPHandler {
	return &RSVPHandler{rsvpService: rsvpService}
}

func (h *RSVPHandler) SubmitRSVP(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.SubmitRSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rsvp, err := h.rsvpService.SubmitRSVP(c.Request.Context(), actor, eventID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rsvp)
}

func (h *RSVPHandler) WithdrawRSVP(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.rsvpService.WithdrawRSVP(c.Request.Context(), actor, eventID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RSVPHandler) GetMyRSVP(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	rsvp, err := h.rsvpService.GetRSVP(c.Request.Context(), actor, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rsvp)
}

func (h *RSVPHandler) GetEventRSVPs(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	rsvps, err := h.rsvpService.GetEventRSVPs(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rsvps)
}
