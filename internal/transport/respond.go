package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gin-gonic/gin"
)

// actorID reads the authenticated caller from the X-User-ID header, set by
// the API gateway. Requests without it are rejected before reaching the
// services.
func actorID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
		return 0, false
	}

	return id, true
}

// pathID parses a positive int64 path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}

	return id, true
}

// respondError maps domain errors onto HTTP statuses. Unknown errors become
// 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrCommunityNotFound),
		errors.Is(err, entity.ErrEventNotFound),
		errors.Is(err, entity.ErrRSVPNotFound),
		errors.Is(err, entity.ErrMembershipNotFound),
		errors.Is(err, entity.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, entity.ErrCapacityExceeded),
		errors.Is(err, entity.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, entity.ErrAuthorizationDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrInvalidRSVPStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, entity.ErrCommunityDeleted),
		errors.Is(err, entity.ErrCommunityInactive),
		errors.Is(err, entity.ErrEventCancelled),
		errors.Is(err, entity.ErrEventDeleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, entity.ErrDependencyUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
