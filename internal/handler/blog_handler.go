package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ashwinyue/next-chat/internal/service"
)

// BlogHandler 博客生成处理器
type BlogHandler struct {
	svc *service.Services
}

// NewBlogHandler 创建博客生成处理器
func NewBlogHandler(svc *service.Services) *BlogHandler {
	return &BlogHandler{svc: svc}
}

// BlogRequest 博客生成请求体
type BlogRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// Generate 按主题生成一篇博客 HTML
// 顺带确保会话 cookie 存在，但不写会话日志
func (h *BlogHandler) Generate(c *gin.Context) {
	var req BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Topic is required")
		return
	}

	blogHTML, err := h.svc.Blog.Generate(c.Request.Context(), req.Topic)
	if err != nil {
		Error(c, err)
		return
	}

	if _, err := c.Cookie(h.svc.Config.Chat.SessionCookie); err != nil {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.svc.Config.Chat.SessionCookie, uuid.New().String(), sessionCookieMaxAge, "/", "", false, true)
	}

	Success(c, gin.H{"blogHtml": blogHTML})
}
