package transport

import (
	"net/http"

	"github.com/gatherhub/gatherhub/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileService.UpsertProfile(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
