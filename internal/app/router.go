package app

import (
	"time"

	"party_games_backend/docs"
	"party_games_backend/internal/config"
	"party_games_backend/internal/middleware"
	"party_games_backend/internal/model"
	"party_games_backend/pkg/monitoring"
	"party_games_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	auth := middleware.AuthMiddleware(cfg.JWT.Secret)
	optional := middleware.OptionalAuth(cfg.JWT.Secret)
	organizer := middleware.RoleMiddleware(model.RoleOrganizer)
	admin := middleware.RoleMiddleware(model.RoleAdmin)

	a.registerAuthRoutes(api, c, cfg, auth)
	a.registerEventRoutes(api, c, auth, optional, organizer)
	a.registerGameRoutes(api, c, auth, admin)

	api.PUT("/admin/users/:id/role", auth, admin, c.auth.SetRole)
}

func (a *App) registerAuthRoutes(api *gin.RouterGroup, c *controllers, cfg *config.Config, auth gin.HandlerFunc) {
	otpLimit := security.KeyedRateLimiter(cfg.RateLimit.OTPPerMinute, time.Minute, security.ClientIP)

	group := api.Group("/auth")
	{
		group.POST("/send-otp", otpLimit, c.auth.SendOTP)
		group.POST("/verify-otp", c.auth.VerifyOTP)
		group.GET("/me", auth, c.auth.Me)
		group.PUT("/me", auth, c.auth.UpdateMe)
	}
}

func (a *App) registerEventRoutes(api *gin.RouterGroup, c *controllers, auth, optional, organizer gin.HandlerFunc) {
	events := api.Group("/events")
	{
		// 公开
		events.GET("/qr/:token", c.event.GetEventByQR)
		events.GET("/:id/levels", optional, c.level.ListLevels)
		events.GET("/:id/levels/:level_id", optional, c.level.GetLevel)
		events.GET("/:id/media", c.media.ListMedia)

		// 玩家
		events.GET("/:id/progress", auth, c.progress.GetSummary)
		events.POST("/:id/levels/:level_id/start", auth, c.progress.StartLevel)
		events.PUT("/:id/levels/:level_id/progress", auth, c.progress.SaveProgress)
		events.POST("/:id/levels/:level_id/complete", auth, c.progress.CompleteLevel)
		events.GET("/:id/levels/:level_id/attempts", auth, c.progress.ListAttempts)
		events.GET("/:id/leaderboard", auth, c.leaderboard.GetLeaderboard)
		events.GET("/:id/leaderboard/me", auth, c.leaderboard.GetMyRank)

		// 组织者
		events.POST("", auth, organizer, c.event.CreateEvent)
		events.GET("", auth, organizer, c.event.ListEvents)
		events.GET("/:id", auth, organizer, c.event.GetEvent)
		events.PUT("/:id", auth, organizer, c.event.UpdateEvent)
		events.PATCH("/:id/activate", auth, organizer, c.event.SetEventActive)
		events.DELETE("/:id", auth, organizer, c.event.DeleteEvent)
		events.POST("/:id/levels", auth, organizer, c.level.AddLevel)
		events.PUT("/:id/levels/:level_id", auth, organizer, c.level.UpdateLevel)
		events.DELETE("/:id/levels/:level_id", auth, organizer, c.level.DeleteLevel)
		events.POST("/:id/media", auth, organizer, c.media.UploadMedia)
		events.POST("/:id/media/url", auth, organizer, c.media.RegisterMedia)
	}
	api.DELETE("/media/:id", auth, organizer, c.media.DeleteMedia)
}

func (a *App) registerGameRoutes(api *gin.RouterGroup, c *controllers, auth, admin gin.HandlerFunc) {
	games := api.Group("/games")
	{
		games.GET("", c.game.ListGames)
		games.GET("/:id", c.game.GetGame)
		games.POST("", auth, admin, c.game.CreateGame)
		games.PUT("/:id", auth, admin, c.game.UpdateGame)
		games.DELETE("/:id", auth, admin, c.game.DeleteGame)
	}
}
