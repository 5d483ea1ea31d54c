package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobRadar/internal/api/middleware"
	"jobRadar/internal/auth"
	"jobRadar/internal/matching"
	"jobRadar/internal/notify"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	orchestrator *matching.Orchestrator,
	gate *notify.Gate,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	refreshDailyCap int,
) {
	authHandler := NewAuthHandler(db, authService, redisClient, logger)
	profileHandler := NewProfileHandler(db)
	matchHandler := NewMatchHandler(db, orchestrator, gate, redisClient, refreshDailyCap)
	wsHandler := NewWsHandler(redisClient, authService, logger)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		profileGroup := v1.Group("/profile")
		profileGroup.Use(authMiddleware)
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.PutProfile)
		}

		matchGroup := v1.Group("/matches")
		matchGroup.Use(authMiddleware)
		{
			matchGroup.POST("/refresh", matchHandler.RefreshMatches)
			matchGroup.GET("", matchHandler.ListMatches)
			matchGroup.GET("/unviewed", matchHandler.ListUnviewedMatches)
			matchGroup.POST("/:id/viewed", matchHandler.MarkViewed)
			matchGroup.DELETE("", matchHandler.DeleteMatches)
		}
	}
}
