// Package prompt 组装发给模型的提示词
// 两种可互换的上下文策略：recency（最近 N 条）与 semantic（向量检索 K 条）
package prompt

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/repository"
)

// 上下文策略
const (
	StrategyRecency  = "recency"
	StrategySemantic = "semantic"
)

// 固定的系统指令，recency 策略使用
const systemInstruction = "You are a helpful assistant. Use the conversation context below to answer the user's message."

// Builder 提示词组装器
// 给定相同的存储状态和 embedding 输出，结果是确定的
type Builder struct {
	repo          repository.ChatRepository
	embedder      embedding.Embedder
	strategy      string
	recencyWindow int
	semanticTopK  int
}

// NewBuilder 创建提示词组装器
func NewBuilder(repo repository.ChatRepository, embedder embedding.Embedder, strategy string, recencyWindow, semanticTopK int) *Builder {
	if recencyWindow <= 0 {
		recencyWindow = 2
	}
	if semanticTopK <= 0 {
		semanticTopK = 5
	}
	if strategy != StrategyRecency && strategy != StrategySemantic {
		strategy = StrategySemantic
	}
	return &Builder{
		repo:          repo,
		embedder:      embedder,
		strategy:      strategy,
		recencyWindow: recencyWindow,
		semanticTopK:  semanticTopK,
	}
}

// BuildPrompt 组装提示词
// embedding 失败只降级为无上下文提示，绝不让整次交换失败；
// 存储读取失败原样返回错误
func (b *Builder) BuildPrompt(ctx context.Context, sessionID, newMessage string) (string, error) {
	switch b.strategy {
	case StrategyRecency:
		return b.buildRecency(ctx, sessionID, newMessage)
	default:
		return b.buildSemantic(ctx, sessionID, newMessage)
	}
}

// buildRecency 最近 N 条消息 + 系统指令 + 当前消息
func (b *Builder) buildRecency(ctx context.Context, sessionID, newMessage string) (string, error) {
	recent, err := b.repo.GetRecentMessagesBySession(sessionID, b.recencyWindow)
	if err != nil {
		return "", fmt.Errorf("failed to load recent messages: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(systemInstruction)
	sb.WriteString("\n\n")
	if len(recent) > 0 {
		sb.WriteString(renderContext("Recent conversation context:", recent))
	}
	sb.WriteString("Current user message:\n")
	sb.WriteString(newMessage)
	return sb.String(), nil
}

// buildSemantic 向量检索 K 条相关消息 + 当前消息
// 查询 embedding 只尝试一次，失败直接降级
func (b *Builder) buildSemantic(ctx context.Context, sessionID, newMessage string) (string, error) {
	queryEmbedding := b.embedQuery(ctx, newMessage)

	var sb strings.Builder
	if queryEmbedding != nil {
		relevant, err := b.repo.GetNearestMessagesBySession(sessionID, queryEmbedding, b.semanticTopK)
		if err != nil {
			return "", fmt.Errorf("failed to load relevant messages: %w", err)
		}
		if len(relevant) > 0 {
			sb.WriteString(renderContext("Relevant conversation context:", relevant))
		}
	}
	sb.WriteString("Current user message:\n")
	sb.WriteString(newMessage)
	return sb.String(), nil
}

// embedQuery 生成查询 embedding，任何失败返回 nil
func (b *Builder) embedQuery(ctx context.Context, text string) []float32 {
	if b.embedder == nil {
		return nil
	}

	vectors, err := b.embedder.EmbedStrings(ctx, []string{text})
	if err != nil || len(vectors) == 0 {
		log.Printf("Warning: failed to embed query, degrading to bare prompt: %v", err)
		return nil
	}

	out := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		out[i] = float32(v)
	}
	return out
}

// renderContext 将历史消息渲染为 "Role: content" 行
func renderContext(header string, messages []*model.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	for _, msg := range messages {
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func roleLabel(role string) string {
	if role == model.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
