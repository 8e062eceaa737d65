package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookbot/internal/middleware"
	"github.com/xxxsen/bookbot/internal/pkg/authz"
)

type RouterDeps struct {
	Sessions      *SessionHandler
	Health        *HealthHandler
	JWTSecret     []byte
	Authorizer    authz.Authorizer
	ReplyCooldown time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	if deps.Health != nil {
		api.GET("/health", deps.Health.Get)
	}

	admin := api.Group("")
	admin.Use(middleware.JWTAuth(deps.JWTSecret), middleware.AdminOnly(deps.Authorizer))

	admin.GET("/sessions", deps.Sessions.List)
	admin.GET("/sessions/:id", deps.Sessions.Get)
	admin.POST("/sessions/:id/start", deps.Sessions.Start)
	admin.POST("/sessions/:id/stop", deps.Sessions.Stop)
	admin.POST("/sessions/:id/reply", middleware.RateLimit(deps.ReplyCooldown), deps.Sessions.Reply)

	admin.GET("/sessions/:id/options", deps.Sessions.GetOptions)
	admin.POST("/sessions/:id/options/step", deps.Sessions.StepOption)
	admin.POST("/sessions/:id/options/reset", deps.Sessions.ResetOptions)

	admin.GET("/sessions/:id/posts", deps.Sessions.Posts)
	admin.GET("/seeds/stats", deps.Sessions.SeedStats)
}
