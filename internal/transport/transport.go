package transport

import (
	"time"

	"github.com/gatherhub/gatherhub/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Community *CommunityHandler
	Event     *EventHandler
	RSVP      *RSVPHandler
	Search    *SearchHandler
	Profile   *ProfileHandler
}

func InitRoutes(h *Handlers) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30 * time.Second))

	// API routes
	api := router.Group("/api/v1")
	{
		// Community routes
		communities := api.Group("/communities")
		{
			communities.POST("", h.Community.CreateCommunity)
			communities.GET("", h.Community.GetAllCommunities)
			communities.GET("/:id", h.Community.GetCommunity)
			communities.PATCH("/:id", h.Community.UpdateCommunity)
			communities.POST("/:id/deactivate", h.Community.DeactivateCommunity)
			communities.POST("/:id/reactivate", h.Community.ReactivateCommunity)
			communities.DELETE("/:id", h.Community.DeleteCommunity)

			communities.POST("/:id/join", h.Community.JoinCommunity)
			communities.POST("/:id/leave", h.Community.LeaveCommunity)
			communities.GET("/:id/members", h.Community.GetMembers)
			communities.PUT("/:id/members/:user_id/role", h.Community.SetMemberRole)
			communities.GET("/:id/activity", h.Community.GetActivity)

			communities.GET("/:id/events", h.Event.GetCommunityEvents)
		}

		// Event routes
		events := api.Group("/events")
		{
			events.POST("", h.Event.CreateEvent)
			events.GET("/upcoming", h.Event.GetUpcomingEvents)
			events.GET("/search", h.Search.SearchEvents)
			events.GET("/:id", h.Event.GetEvent)
			events.PATCH("/:id", h.Event.UpdateEvent)
			events.POST("/:id/cancel", h.Event.CancelEvent)

			events.PUT("/:id/rsvp", h.RSVP.SubmitRSVP)
			events.DELETE("/:id/rsvp", h.RSVP.WithdrawRSVP)
			events.GET("/:id/rsvp", h.RSVP.GetMyRSVP)
			events.GET("/:id/rsvps", h.RSVP.GetEventRSVPs)
		}

		// Profile routes
		profile := api.Group("/profile")
		{
			profile.PUT("", h.Profile.UpsertProfile)
			profile.GET("", h.Profile.GetMyProfile)
			profile.GET("/tags", h.Search.GetPersonalizedTags)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}
