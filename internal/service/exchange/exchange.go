// Package exchange 实现一次聊天交换的流式协调
// 流程：限流 -> 会话解析 -> 落库用户消息 -> 组装上下文 -> 流式生成 -> 落库助手消息
package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	chatmodel "github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/ratelimit"
	"github.com/ashwinyue/next-chat/internal/service/chat"
	"github.com/ashwinyue/next-chat/internal/service/prompt"
	"github.com/ashwinyue/next-chat/internal/service/types"
)

// EventType 流事件类型
type EventType string

const (
	// EventChunk 一段生成的文本
	EventChunk EventType = "chunk"
	// EventEnd 生成正常结束
	EventEnd EventType = "end"
	// EventError 生成中途失败，已送出的块保持已送出
	EventError EventType = "error"
)

// Event 流事件
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Request 一次交换的输入
type Request struct {
	// Message 用户消息，去除首尾空白后必须非空
	Message string
	// SessionID 调用方声明的会话；为空则新建
	SessionID string
	// Identity 已验证的身份；为 nil 表示匿名
	Identity *types.Identity
	// ClientKey 无会话 ID 时的限流键（调用方网络标识）
	ClientKey string
}

// Service 流式交换协调器
type Service struct {
	limiter    *ratelimit.Limiter
	store      *chat.Service
	prompts    *prompt.Builder
	chatModel  model.BaseChatModel
	genTimeout time.Duration
}

// NewService 创建交换协调器
func NewService(limiter *ratelimit.Limiter, store *chat.Service, prompts *prompt.Builder, chatModel model.BaseChatModel, genTimeout time.Duration) *Service {
	if genTimeout <= 0 {
		genTimeout = 2 * time.Minute
	}
	return &Service{
		limiter:    limiter,
		store:      store,
		prompts:    prompts,
		chatModel:  chatModel,
		genTimeout: genTimeout,
	}
}

// Stream 执行一次交换
// 生成开始之前的失败同步返回（限流、校验、存储不可用），此时不会有任何事件。
// 成功返回后，事件通道依次产出 chunk...，以 end 或 error 收尾。
func (s *Service) Stream(ctx context.Context, req *Request) (string, <-chan *Event, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", nil, fmt.Errorf("%w: message is required", types.ErrValidation)
	}

	// 限流：有会话 ID 用会话 ID，否则用调用方网络标识
	key := req.SessionID
	if key == "" {
		key = req.ClientKey
	}
	if !s.limiter.Allow(key) {
		return "", nil, types.ErrRateLimited
	}

	// 会话解析 + 落库用户消息
	// 没有记录下来的提问就不生成回答
	sessionID := resolveSessionID(req.SessionID)
	ownerID := ""
	if req.Identity != nil {
		ownerID = req.Identity.UserID
	}
	if err := s.store.UpsertSession(ctx, sessionID, ownerID); err != nil {
		return "", nil, fmt.Errorf("%w: %v", types.ErrDependency, err)
	}
	if _, err := s.store.AppendMessage(ctx, sessionID, chatmodel.RoleUser, message); err != nil {
		return "", nil, fmt.Errorf("%w: %v", types.ErrDependency, err)
	}

	// 组装上下文；embedding 失败已在组装器内部降级，走到这里的错误都是存储问题
	promptText, err := s.prompts.BuildPrompt(ctx, sessionID, message)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", types.ErrDependency, err)
	}

	// 生成用独立于请求的 context：调用方断开不截断已开始的回答，
	// 助手消息仍会被完整记录。超时仅是防御性的。
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.genTimeout)
	reader, err := s.chatModel.Stream(genCtx, []*schema.Message{schema.UserMessage(promptText)})
	if err != nil {
		// 首块之前的失败
		cancel()
		return "", nil, fmt.Errorf("%w: %v", types.ErrDependency, err)
	}

	events := make(chan *Event, 16)
	go s.pump(ctx, cancel, sessionID, reader, events)
	return sessionID, events, nil
}

// pump 单生产者双消费：每个块先进累积器，再投递给调用方
// 调用方断开只影响投递，不影响累积
func (s *Service) pump(callerCtx context.Context, cancel context.CancelFunc, sessionID string, reader *schema.StreamReader[*schema.Message], events chan<- *Event) {
	defer cancel()
	defer close(events)
	defer reader.Close()

	var full strings.Builder
	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			s.persistAnswer(sessionID, full.String())
			s.deliver(callerCtx, events, &Event{Type: EventEnd})
			return
		}
		if err != nil {
			// 中途失败：不把半截回答当成完整回答落库
			log.Printf("Warning: generation failed mid-stream for session %s: %v", sessionID, err)
			s.deliver(callerCtx, events, &Event{Type: EventError, Message: "generation failed"})
			return
		}
		if chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)
		s.deliver(callerCtx, events, &Event{Type: EventChunk, Content: chunk.Content})
	}
}

// persistAnswer 落库完整的助手消息
// 此时调用方已经收到了全部文本，落库失败只记日志，不撤回已交付的输出
func (s *Service) persistAnswer(sessionID, answer string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.store.AppendMessage(ctx, sessionID, chatmodel.RoleAssistant, answer); err != nil {
		log.Printf("Warning: failed to persist assistant message for session %s: %v", sessionID, err)
	}
}

// deliver 向调用方投递事件，调用方已断开时丢弃
func (s *Service) deliver(ctx context.Context, events chan<- *Event, ev *Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// resolveSessionID 使用调用方声明的会话 ID，缺失时新建
func resolveSessionID(provided string) string {
	if provided != "" {
		return provided
	}
	return uuid.New().String()
}
