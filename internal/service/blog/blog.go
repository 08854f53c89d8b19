// Package blog 提供按主题一次性生成博客 HTML
// 非流式：单次 Generate 调用返回完整文章
package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/next-chat/internal/service/types"
)

// blogPromptFormat 博客生成提示词，%s 为主题
const blogPromptFormat = `You are a professional blog writer. Generate a complete, well-structured blog post about the following topic: "%s"

STRICT REQUIREMENTS:
- Output ONLY valid HTML
- Do NOT use Markdown
- Do NOT include any meta commentary or explanations
- Use <h1> for the main title
- Use <h2> for section headings
- Use <p> for paragraphs
- Use <ul> and <li> for bullet lists where appropriate
- Write approximately 1000 words
- Include an introduction, multiple detailed sections, and a clear conclusion
- Use a professional, neutral tone
- Do NOT use emojis
- Do NOT start with phrases like "this blog will discuss" or "in this article"

Begin with the HTML output directly.`

// Service 博客生成服务
type Service struct {
	chatModel model.BaseChatModel
}

// NewService 创建博客生成服务
func NewService(chatModel model.BaseChatModel) *Service {
	return &Service{chatModel: chatModel}
}

// Generate 按主题生成一篇博客
// 不落库、不进会话日志，生成失败原样归类为依赖错误
func (s *Service) Generate(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("%w: topic is required", types.ErrValidation)
	}

	prompt := fmt.Sprintf(blogPromptFormat, topic)
	msg, err := s.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrDependency, err)
	}
	return msg.Content, nil
}
