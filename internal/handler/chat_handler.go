package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-chat/internal/middleware"
	"github.com/ashwinyue/next-chat/internal/service"
	"github.com/ashwinyue/next-chat/internal/service/exchange"
)

// 会话 cookie 的有效期（30天）
const sessionCookieMaxAge = 30 * 24 * 60 * 60

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// ExchangeRequest 一次聊天交换的请求体
type ExchangeRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId"`
}

// Exchange 执行一次聊天交换，流式返回回答
// 解析后的会话 ID 通过 X-Session-Id 响应头和会话 cookie 带回，
// 每次交换都刷新为当前会话
func (h *ChatHandler) Exchange(c *gin.Context) {
	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Message is required and must be a non-empty string")
		return
	}

	// 会话 ID 来源：请求体优先，其次会话 cookie
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID, _ = c.Cookie(h.svc.Config.Chat.SessionCookie)
	}

	identity, _ := middleware.GetIdentity(c)

	resolvedID, events, err := h.svc.Exchange.Stream(c.Request.Context(), &exchange.Request{
		Message:   req.Message,
		SessionID: sessionID,
		Identity:  identity,
		ClientKey: c.ClientIP(),
	})
	if err != nil {
		Error(c, err)
		return
	}

	// 流开始前写响应头与 cookie，之后只能写 body
	c.Header("X-Session-Id", resolvedID)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Transfer-Encoding", "chunked")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.svc.Config.Chat.SessionCookie, resolvedID, sessionCookieMaxAge, "/", "", false, true)
	c.Status(http.StatusOK)

	for ev := range events {
		switch ev.Type {
		case exchange.EventChunk:
			if _, err := c.Writer.WriteString(ev.Content); err != nil {
				// 调用方断开：停止投递，协调器继续累积并落库
				return
			}
			c.Writer.Flush()
		case exchange.EventEnd, exchange.EventError:
			// 中途失败时已送出的文本保持已送出，连接在此截断
			return
		}
	}
}

// History 列出当前用户的会话，最新的在前
func (h *ChatHandler) History(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	previews, err := h.svc.Chat.ListSessionHistory(c.Request.Context(), identity.UserID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, previews)
}

// GetSession 获取属于当前用户的会话消息日志
func (h *ChatHandler) GetSession(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessionID := c.Param("id")
	messages, err := h.svc.Chat.GetSessionMessagesForOwner(c.Request.Context(), sessionID, identity.UserID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{"messages": messages})
}

// DeleteSession 删除属于当前用户的会话
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessionID := c.Param("id")
	if err := h.svc.Chat.DeleteSession(c.Request.Context(), sessionID, identity.UserID); err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{"success": true})
}
