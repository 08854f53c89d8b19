// Package session 提供历史缓存单元测试
package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-chat/internal/model"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client), mr
}

// Redis 不可用时缓存整体退化为 no-op，读走数据库
func TestCache_NilClient(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	if _, ok := c.Load(ctx, "s1"); ok {
		t.Error("nil-client Load should always miss")
	}

	// 写入与失效都不应 panic
	c.Prime(ctx, "s1", []*model.ChatMessage{{ID: "m1", SessionID: "s1"}})
	c.Invalidate(ctx, "s1")

	if _, ok := c.Load(ctx, "s1"); ok {
		t.Error("nil-client cache should never hit")
	}
}

func TestCache_PrimeLoadRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	messages := []*model.ChatMessage{
		{ID: "m1", SessionID: "s1", Role: model.RoleUser, Content: "hello"},
		{ID: "m2", SessionID: "s1", Role: model.RoleAssistant, Content: "hi"},
	}
	c.Prime(ctx, "s1", messages)

	got, ok := c.Load(ctx, "s1")
	if !ok {
		t.Fatal("Load() should hit after Prime")
	}
	if len(got) != 2 || got[0].Content != "hello" || got[1].Content != "hi" {
		t.Errorf("cached log = %+v, want the primed messages in order", got)
	}
}

func TestCache_LoadMiss(t *testing.T) {
	c, _ := newTestCache(t)

	if _, ok := c.Load(context.Background(), "unknown"); ok {
		t.Error("Load() of an unknown session should miss")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Prime(ctx, "s1", []*model.ChatMessage{{ID: "m1", SessionID: "s1"}})
	c.Invalidate(ctx, "s1")

	if _, ok := c.Load(ctx, "s1"); ok {
		t.Error("Load() should miss after Invalidate")
	}
}

func TestCache_DiscardsCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	mr.Set(historyKeyPrefix+"s1", "not json")
	if _, ok := c.Load(ctx, "s1"); ok {
		t.Error("corrupt entry should be treated as a miss")
	}
	if mr.Exists(historyKeyPrefix + "s1") {
		t.Error("corrupt entry should be dropped")
	}
}
