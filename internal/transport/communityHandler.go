package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	communityService service.CommunityService
}

func NewCommunityHandler(communityService service.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	community, err := h.communityService.CreateCommunity(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, community)
}

func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	community, err := h.communityService.GetCommunity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) GetAllCommunities(c *gin.Context) {
	communities, err := h.communityService.GetAllCommunities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, communities)
}

func (h *CommunityHandler) UpdateCommunity(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	community, err := h.communityService.UpdateCommunity(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) DeactivateCommunity(c *gin.Context) {
	h.lifecycle(c, h.communityService.DeactivateCommunity)
}

func (h *CommunityHandler) ReactivateCommunity(c *gin.Context) {
	h.lifecycle(c, h.communityService.ReactivateCommunity)
}

func (h *CommunityHandler) DeleteCommunity(c *gin.Context) {
	h.lifecycle(c, h.communityService.DeleteCommunity)
}

func (h *CommunityHandler) lifecycle(c *gin.Context, op func(ctx context.Context, actorID, id int64) (*service.LifecycleResult, error)) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := op(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	membership, err := h.communityService.JoinCommunity(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, membership)
}

func (h *CommunityHandler) LeaveCommunity(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.communityService.LeaveCommunity(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type setRoleRequest struct {
	Role entity.MemberRole `json:"role" binding:"required"`
}

func (h *CommunityHandler) SetMemberRole(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := h.communityService.SetMemberRole(c.Request.Context(), actor, id, userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, membership)
}

func (h *CommunityHandler) GetMembers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.communityService.GetMembers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

func (h *CommunityHandler) GetActivity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	activities, err := h.communityService.GetActivity(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activities)
}
