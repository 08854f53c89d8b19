// Package ratelimit 提供按键冷却限流
// 仅用于削峰，不是安全边界；进程重启即清零
package ratelimit

import (
	"sync"
	"time"
)

// Limiter 按键冷却限流器
// 键为会话 ID 或调用方网络标识，值为最近一次放行时间
type Limiter struct {
	mu           sync.Mutex
	lastAccepted map[string]time.Time
	cooldown     time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
}

// New 创建限流器并启动后台清理
// sweepInterval 控制过期条目的回收频率，清理与 Allow 互不阻塞
func New(cooldown, sweepInterval time.Duration) *Limiter {
	l := &Limiter{
		lastAccepted: make(map[string]time.Time),
		cooldown:     cooldown,
		stop:         make(chan struct{}),
	}
	go l.sweepLoop(sweepInterval)
	return l
}

// Allow 判断该键是否放行
// 冷却窗口内的重复请求返回 false 且不刷新时间戳
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.lastAccepted[key]; ok && now.Sub(last) < l.cooldown {
		return false
	}

	l.lastAccepted[key] = now
	return true
}

// Stop 停止后台清理
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// sweepLoop 周期性移除超出冷却窗口的条目，限制内存增长
func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, last := range l.lastAccepted {
		if now.Sub(last) > l.cooldown {
			delete(l.lastAccepted, key)
		}
	}
}

// size 当前条目数（测试用）
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastAccepted)
}
