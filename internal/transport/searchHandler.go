package transport

import (
	"net/http"
	"strconv"

	"github.com/gatherhub/gatherhub/internal/service"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	searchService service.SearchService
	tagService    service.TagService
}

func NewSearchHandler(searchService service.SearchService, tagService service.TagService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		tagService:    tagService,
	}
}

func (h *SearchHandler) SearchEvents(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.searchService.SearchEvents(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SearchHandler) GetPersonalizedTags(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	communityID, err := strconv.ParseInt(c.DefaultQuery("community_id", "0"), 10, 64)
	if err != nil || communityID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community_id"})
		return
	}

	tags, err := h.tagService.GetPersonalizedTags(c.Request.Context(), actor, communityID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
