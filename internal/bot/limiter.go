package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/palemoky/group-minigames/internal/config"
	"github.com/palemoky/group-minigames/internal/logger"
	"github.com/palemoky/group-minigames/internal/metrics"
)

const (
	limiterIdleTTL         = 10 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// Limiter 按用户的令牌桶限流
type Limiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu    sync.Mutex
	users map[string]*userRate

	stop     chan struct{}
	stopOnce sync.Once
}

// userRate 单个用户的限流状态
type userRate struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	warned   bool // 本轮超限是否已提示过
}

// NewLimiter 创建限流器并启动清理协程
func NewLimiter(cfg config.ChatLimitConfig) *Limiter {
	l := &Limiter{
		limit: rate.Limit(cfg.PerSecond),
		burst: cfg.Burst,
		now:   time.Now,
		users: make(map[string]*userRate),
		stop:  make(chan struct{}),
	}

	go l.cleanup()

	return l
}

// Allow 检查用户是否还有令牌。warn 仅在一轮超限的第一条消息时为 true
func (l *Limiter) Allow(userID string) (allowed, warn bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	u, ok := l.users[userID]
	if !ok {
		u = &userRate{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.users[userID] = u
	}
	u.lastSeen = now

	if u.limiter.AllowN(now, 1) {
		u.warned = false
		return true, false
	}

	metrics.RateLimited.Inc()
	if u.warned {
		return false, false
	}
	u.warned = true
	logger.LogWarn("⚠️ 用户 %s 发送消息过于频繁，已限流", userID)
	return false, true
}

// Close 停止清理协程
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
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

// sweep 删除长时间没有消息的用户，返回删除数量
func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, u := range l.users {
		if now.Sub(u.lastSeen) > limiterIdleTTL {
			delete(l.users, id)
			removed++
		}
	}
	return removed
}
