package handler

import (
	"github.com/ashwinyue/next-chat/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Chat *ChatHandler
	Auth *AuthHandler
	Blog *BlogHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Chat: NewChatHandler(svc),
		Auth: NewAuthHandler(svc),
		Blog: NewBlogHandler(svc),
	}
}
