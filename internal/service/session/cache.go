// Package session 提供会话消息日志的 Redis 缓存
// 读时回填、写时失效，Postgres 永远是真相源；缓存不可用时全部操作降级为 no-op
package session

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-chat/internal/model"
)

const (
	// 缓存过期时间（24小时）
	historyTTL = 24 * time.Hour
	// Redis key 前缀
	historyKeyPrefix = "chat:history:"
)

// Cache 会话消息日志缓存
type Cache struct {
	redis *redis.Client
}

// NewCache 创建缓存
// redisClient 为 nil 时所有操作直接透传
func NewCache(redisClient *redis.Client) *Cache {
	return &Cache{redis: redisClient}
}

// Load 读取缓存的消息日志
// 第二个返回值为 false 表示未命中，调用方应回源数据库
func (c *Cache) Load(ctx context.Context, sessionID string) ([]*model.ChatMessage, bool) {
	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, historyKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, false
	}

	var messages []*model.ChatMessage
	if err := json.Unmarshal([]byte(data), &messages); err != nil {
		// 脏数据直接丢弃，下次回源重建
		c.Invalidate(ctx, sessionID)
		return nil, false
	}
	return messages, true
}

// Prime 写入完整消息日志
func (c *Cache) Prime(ctx context.Context, sessionID string, messages []*model.ChatMessage) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(messages)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, historyKeyPrefix+sessionID, data, historyTTL).Err(); err != nil {
		log.Printf("Warning: failed to cache session history: %v", err)
	}
}

// Invalidate 删除缓存条目
// 写入后走失效而不是原地改写：读改写在并发追加下会互相覆盖丢消息，
// 删键让下一次 Load 从数据库重建
func (c *Cache) Invalidate(ctx context.Context, sessionID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, historyKeyPrefix+sessionID).Err(); err != nil {
		log.Printf("Warning: failed to invalidate session history: %v", err)
	}
}
