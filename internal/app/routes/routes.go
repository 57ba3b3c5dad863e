package routes

import (
	"github.com/afterschool/sessions-api/internal/app/controllers"
	"github.com/afterschool/sessions-api/internal/app/models"
	"github.com/afterschool/sessions-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// LoginPath is the staff login route; it carries its own strict rate limit
const LoginPath = "/api/v1/admin/auth/login"

// Controllers bundles the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth       *controllers.AuthController
	Block      *controllers.BlockController
	Exclusion  *controllers.ExclusionController
	Location   *controllers.LocationController
	Session    *controllers.SessionController
	Occurrence *controllers.OccurrenceController
	Calendar   *controllers.CalendarController
	Live       *controllers.LiveController
	Signup     *controllers.SignupController
	Catalog    *controllers.CatalogController
	Health     *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", c.Health.Ping)

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/health", c.Health.Health)
	v1.GET("/sessions", c.Catalog.ListSessions)
	v1.GET("/session/:id", c.Catalog.GetSession)
	v1.GET("/sessions/:id/calendar.ics", c.Calendar.SessionFeed)

	admin := v1.Group("/admin")
	admin.POST("/auth/login", c.Auth.Login)

	// --- Staff routes ---
	staff := admin.Group("")
	staff.Use(authMiddleware.StaffAuth())
	{
		blocks := staff.Group("/blocks")
		{
			blocks.GET("", c.Block.ListBlocks)
			blocks.POST("", c.Block.CreateBlock)
			blocks.GET("/:id", c.Block.GetBlock)
			blocks.PATCH("/:id", c.Block.UpdateBlock)
		}

		exclusions := staff.Group("/exclusions")
		{
			exclusions.GET("", c.Exclusion.ListExclusions)
			exclusions.POST("", c.Exclusion.CreateExclusion)
			exclusions.PATCH("/:id", c.Exclusion.UpdateExclusion)
			exclusions.DELETE("/:id", c.Exclusion.DeleteExclusion)
		}

		locations := staff.Group("/locations")
		{
			locations.GET("", c.Location.ListLocations)
			locations.POST("", c.Location.CreateLocation)
			locations.GET("/:id", c.Location.GetLocation)
			locations.PATCH("/:id", c.Location.UpdateLocation)
			locations.GET("/:id/sessions", c.Location.ListLocationSessions)
		}

		sessions := staff.Group("/sessions")
		{
			sessions.GET("", c.Session.ListSessions)
			sessions.POST("", c.Session.CreateSession)
			sessions.GET("/:id", c.Session.GetSession)
			sessions.PATCH("/:id", c.Session.UpdateSession)
			sessions.POST("/:id/duplicate", c.Session.DuplicateSession)

			// Deleting a session drops its occurrences, so only admins may do it
			sessions.DELETE("/:id", authMiddleware.RoleRequired(models.StaffRoleAdmin), c.Session.DeleteSession)

			sessions.GET("/:id/occurrences", c.Occurrence.ListOccurrences)
			sessions.POST("/:id/occurrences", c.Occurrence.CreateOccurrence)
			sessions.POST("/:id/occurrences/generate", c.Occurrence.GenerateOccurrences)
			sessions.POST("/:id/occurrences/regenerate", c.Occurrence.RegenerateOccurrences)
			sessions.GET("/:id/live", c.Live.WatchSession)

			sessions.GET("/:id/signups", c.Signup.ListSignups)
			sessions.POST("/:id/notify", c.Signup.NotifySession)
		}

		staff.PATCH("/occurrences/:id/cancel", c.Occurrence.CancelOccurrence)
		staff.PATCH("/signups/:id/status", c.Signup.UpdateSignupStatus)
	}
}
