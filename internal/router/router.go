package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-chat/internal/handler"
	"github.com/ashwinyue/next-chat/internal/middleware"
	"github.com/ashwinyue/next-chat/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Chat 聊天交换：匿名可用，身份可选
		v1.POST("/chat", middleware.OptionalAuth(svc.Auth), h.Chat.Exchange)

		// 会话管理：需要身份
		chats := v1.Group("/chat", middleware.RequireAuth(svc.Auth))
		{
			chats.GET("/history", h.Chat.History)
			chats.GET("/:id", h.Chat.GetSession)
			chats.DELETE("/:id", h.Chat.DeleteSession)
		}

		// Blog 一次性生成，匿名可用
		v1.POST("/blog", h.Blog.Generate)

		// Auth 认证
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", h.Auth.Signup)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/logout", h.Auth.Logout)
			authGroup.GET("/me", middleware.RequireAuth(svc.Auth), h.Auth.Me)
		}
	}

	return r
}
