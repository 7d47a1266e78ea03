package room

import (
	"context"
	"fmt"
	"time"

	"github.com/palemoky/group-minigames/internal/logger"
)

// supervise 每个房间一个监控协程，房间结束时由 r.cancel 取消
func (m *Manager) supervise(ctx context.Context, r *Room) {
	defer m.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			logger.LogPanic(rec)
		}
	}()

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.checkRoom(r) {
				return
			}
		}
	}
}

// checkRoom 检查房间是否超时，以及等待请求是否过期。返回房间是否已关闭。
// 等待阶段从创建时间算起，游戏阶段从最后活动时间算起。
func (m *Manager) checkRoom(r *Room) bool {
	r.mu.Lock()
	if r.status == StatusEnded {
		r.mu.Unlock()
		m.remove(r.ContextID, r)
		return true
	}

	now := r.now()
	var msgs []string
	if notice := m.expirePending(r); notice != "" {
		msgs = append(msgs, notice)
	}

	closed := false
	switch r.status {
	case StatusWaiting:
		if now.Sub(r.CreatedAt) > m.opts.WaitingTimeout {
			msgs = append(msgs, fmt.Sprintf("【%s】房间由于长时间无人加入，已自动关闭！", r.GameType))
			closed = true
		}
	case StatusRunning:
		if now.Sub(r.LastActivityAt) > m.opts.RunningTimeout {
			msg := fmt.Sprintf("【%s】由于长时间无人回应，游戏自动结束！", r.GameType)
			if reveal := r.game.Reveal(); reveal != "" {
				msg += "\n\n" + reveal
			}
			msgs = append(msgs, msg)
			closed = true
		}
	}
	if closed {
		m.endLocked(r, ReasonTimeout)
		logger.LogInfo("⏰ 房间 %s 超时已清理", r.ID)
	}
	r.mu.Unlock()

	if closed {
		m.remove(r.ContextID, r)
	}
	m.notify(context.Background(), r.ContextID, msgs...)
	return closed
}
