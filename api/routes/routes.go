package routes

import (
	"net/http"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/config"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/handlers"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/middleware"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies holds the handlers wired by main
type HandlerDependencies struct {
	AuthHandler           *handlers.AuthHandler
	DrawHandler           *handlers.DrawHandler
	SystemSettingsHandler *handlers.SystemSettingsHandler
	Tokens                *jwt.OperatorTokenService
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Add middleware
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		public.POST("/auth/token", deps.AuthHandler.IssueToken)
		public.GET("/draws", deps.DrawHandler.GetDraws)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens))
	{
		protected.POST("/draws/trigger", deps.DrawHandler.TriggerDraw)

		admin := protected.Group("/admin")
		{
			admin.GET("/draws", deps.DrawHandler.ListAdminDraws)
			admin.GET("/draws/:drawId", deps.DrawHandler.GetAdminDraw)
			admin.GET("/settings/draws", deps.SystemSettingsHandler.GetDrawSettings)
			admin.PUT("/settings/draws", deps.SystemSettingsHandler.UpdateDrawSettings)
		}
	}

	return router
}
