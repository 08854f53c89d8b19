// Package service 组装所有服务
// 参考 eino-examples，使用简单的 newXxx() 函数直接初始化 eino 组件
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-chat/internal/config"
	"github.com/ashwinyue/next-chat/internal/ratelimit"
	"github.com/ashwinyue/next-chat/internal/repository"
	"github.com/ashwinyue/next-chat/internal/service/auth"
	"github.com/ashwinyue/next-chat/internal/service/blog"
	"github.com/ashwinyue/next-chat/internal/service/callback"
	"github.com/ashwinyue/next-chat/internal/service/chat"
	"github.com/ashwinyue/next-chat/internal/service/exchange"
	"github.com/ashwinyue/next-chat/internal/service/prompt"
	"github.com/ashwinyue/next-chat/internal/service/session"
)

// Services 服务集合
type Services struct {
	Chat     *chat.Service
	Auth     *auth.Service
	Exchange *exchange.Service
	Blog     *blog.Service

	Config  *config.Config
	Limiter *ratelimit.Limiter
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// 模型与 embedding 调用的日志回调
	callback.Register(cfg.App.Debug)

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	// embedder 缺失只关闭语义能力，不阻止启动
	embedder := newEmbedder(ctx, cfg)

	limiter := ratelimit.New(
		time.Duration(cfg.Chat.CooldownSeconds)*time.Second,
		time.Duration(cfg.Chat.SweepIntervalSeconds)*time.Second,
	)

	historyCache := session.NewCache(redisClient)
	chatSvc := chat.NewService(repo.Chat, historyCache, embedder, cfg.Chat.PreviewLength)

	strategy := cfg.Chat.ContextStrategy
	if embedder == nil && strategy == prompt.StrategySemantic {
		log.Printf("Warning: no embedder configured, falling back to recency context strategy")
		strategy = prompt.StrategyRecency
	}
	prompts := prompt.NewBuilder(repo.Chat, embedder, strategy, cfg.Chat.RecencyWindow, cfg.Chat.SemanticTopK)

	exchangeSvc := exchange.NewService(
		limiter,
		chatSvc,
		prompts,
		chatModel,
		time.Duration(cfg.Chat.GenerateTimeoutSeconds)*time.Second,
	)

	return &Services{
		Chat:     chatSvc,
		Auth:     auth.NewService(repo.Auth),
		Exchange: exchangeSvc,
		Blog:     blog.NewService(chatModel),
		Config:   cfg,
		Limiter:  limiter,
	}, nil
}

// Close 停止后台任务
func (s *Services) Close() {
	if s.Limiter != nil {
		s.Limiter.Stop()
	}
}

// newChatModel 创建 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (model.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}

// newEmbedder 创建 Embedding 器
func newEmbedder(ctx context.Context, cfg *config.Config) embedding.Embedder {
	embCfg := cfg.AI.Embedding

	if embCfg.APIKey == "" {
		log.Printf("Warning: embedding api_key is empty, semantic retrieval disabled")
		return nil
	}

	switch embCfg.Provider {
	case "alibaba", "qwen", "dashscope":
		embConfig := &dashscope.EmbeddingConfig{
			APIKey: embCfg.APIKey,
			Model:  embCfg.Model,
		}
		if embConfig.Model == "" {
			embConfig.Model = "text-embedding-v3"
		}
		if embCfg.Timeout > 0 {
			embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
		}
		if embCfg.Dimensions > 0 {
			embConfig.Dimensions = &embCfg.Dimensions
		}

		embedder, err := dashscope.NewEmbedder(ctx, embConfig)
		if err != nil {
			log.Printf("Warning: failed to create embedder: %v", err)
			return nil
		}
		return embedder

	case "openai", "":
		embConfig := &openaiembed.EmbeddingConfig{
			APIKey:  embCfg.APIKey,
			BaseURL: embCfg.BaseURL,
			Model:   embCfg.Model,
		}
		if embConfig.Model == "" {
			embConfig.Model = "text-embedding-3-small"
		}
		if embCfg.Timeout > 0 {
			embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
		}
		if embCfg.Dimensions > 0 {
			embConfig.Dimensions = &embCfg.Dimensions
		}

		embedder, err := openaiembed.NewEmbedder(ctx, embConfig)
		if err != nil {
			log.Printf("Warning: failed to create embedder: %v", err)
			return nil
		}
		return embedder

	default:
		log.Printf("Warning: unsupported embedding provider: %s", embCfg.Provider)
		return nil
	}
}
