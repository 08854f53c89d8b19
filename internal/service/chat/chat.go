// Package chat 提供会话与消息的存储服务
// 持久化语义：消息一经写入不可变，会话内按创建时间全序
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/repository"
	"github.com/ashwinyue/next-chat/internal/service/session"
)

// 会话还没有消息时的占位标题
const emptySessionTitle = "New Chat"

// Service 会话存储服务
type Service struct {
	repo       repository.ChatRepository
	cache      *session.Cache
	embedder   embedding.Embedder // 为 nil 时消息不写 embedding
	previewLen int
}

// NewService 创建会话存储服务
func NewService(repo repository.ChatRepository, cache *session.Cache, embedder embedding.Embedder, previewLen int) *Service {
	if previewLen <= 0 {
		previewLen = 30
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		embedder:   embedder,
		previewLen: previewLen,
	}
}

// UpsertSession 确保会话存在并补写归属
// 每次交换都会调用，会话的存在性由此惰性保证
func (s *Service) UpsertSession(ctx context.Context, id, ownerID string) error {
	if err := s.repo.UpsertSession(id, ownerID); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// AppendMessage 向会话追加一条消息
// embedding 尽力而为：生成失败只意味着该消息不可被语义检索，绝不阻塞写入
func (s *Service) AppendMessage(ctx context.Context, sessionID, role, content string) (*model.ChatMessage, error) {
	if _, err := s.repo.GetSessionByID(sessionID); err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	msg := &model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Embedding: s.embedContent(ctx, content),
	}

	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.cache.Invalidate(ctx, sessionID)
	return msg, nil
}

// GetMessages 按时间升序获取会话全部消息
// 缓存读穿：未命中回源数据库并回填
func (s *Service) GetMessages(ctx context.Context, sessionID string) ([]*model.ChatMessage, error) {
	if messages, ok := s.cache.Load(ctx, sessionID); ok {
		return messages, nil
	}

	messages, err := s.repo.GetMessagesBySessionID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	s.cache.Prime(ctx, sessionID, messages)
	return messages, nil
}

// GetSessionMessagesForOwner 获取属于指定用户的会话消息日志
// 归属校验失败与会话不存在返回同一错误
func (s *Service) GetSessionMessagesForOwner(ctx context.Context, sessionID, ownerID string) ([]*model.ChatMessage, error) {
	if _, err := s.repo.GetSessionForOwner(sessionID, ownerID); err != nil {
		return nil, err
	}
	return s.GetMessages(ctx, sessionID)
}

// ListSessionHistory 按创建时间倒序列出用户的会话
// 标题取首条消息内容的截断，空会话用占位标题
func (s *Service) ListSessionHistory(ctx context.Context, ownerID string) ([]*model.SessionPreview, error) {
	sessions, err := s.repo.ListSessionsByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	previews := make([]*model.SessionPreview, 0, len(sessions))
	for _, sess := range sessions {
		previews = append(previews, &model.SessionPreview{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			Title:     s.sessionTitle(sess.ID),
		})
	}
	return previews, nil
}

// DeleteSession 删除属于指定用户的会话及其全部消息
func (s *Service) DeleteSession(ctx context.Context, sessionID, ownerID string) error {
	if err := s.repo.DeleteSessionOwned(sessionID, ownerID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, sessionID)
	return nil
}

// sessionTitle 生成会话标题预览
func (s *Service) sessionTitle(sessionID string) string {
	first, err := s.repo.GetFirstMessageBySession(sessionID)
	if err != nil {
		return emptySessionTitle
	}
	title := truncateContent(first.Content, s.previewLen)
	if strings.TrimSpace(title) == "" {
		return emptySessionTitle
	}
	return title
}

// embedContent 生成消息内容的 embedding，失败时返回 nil
func (s *Service) embedContent(ctx context.Context, content string) *pgvector.Vector {
	if s.embedder == nil {
		return nil
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{content})
	if err != nil || len(vectors) == 0 {
		log.Printf("Warning: failed to generate embedding: %v", err)
		return nil
	}

	vec := pgvector.NewVector(toFloat32(vectors[0]))
	return &vec
}

// truncateContent 截断字符串，超长时追加省略标记
func truncateContent(content string, maxLen int) string {
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}

// toFloat32 embedding 提供方返回 float64，pgvector 存 float32
func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
