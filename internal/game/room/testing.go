//go:build !production

package room

import (
	"time"

	"github.com/palemoky/group-minigames/internal/game/draw"
)

// SetClock 替换房间时钟，用于测试
func (r *Room) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// NewTestRoom 创建一个未注册的房间，用于在其他包中测试游戏规则。
// 玩家按给定顺序加入，首个玩家为房主。
func NewTestRoom(g Game, rng draw.Source, players ...string) *Room {
	r := newRoom("test", players[0], players[0], g, rng, time.Now)
	for _, id := range players[1:] {
		_ = r.join(id, id)
	}
	return r
}

// StartForTest 不打乱顺序直接进入游戏阶段，并调用 Game.Start
func (r *Room) StartForTest() string {
	r.status = StatusRunning
	r.Round = 1
	r.currentIdx = 0
	r.StartedAt = r.now()
	r.LastActivityAt = r.StartedAt
	return r.game.Start(r)
}

// SetTargetForTest 设置本条消息的@目标
func (r *Room) SetTargetForTest(id string) {
	r.pendingTarget = id
}

// SetCurrentForTest 设置当前玩家
func (r *Room) SetCurrentForTest(id string) {
	for i, p := range r.roster {
		if p == id {
			r.currentIdx = i
			return
		}
	}
}

// Lookup 查找房间，用于测试
func (m *Manager) Lookup(contextID string) *Room {
	return m.lookup(contextID)
}

// CheckRoomsForTest 立即对所有房间执行一次超时检查
func (m *Manager) CheckRoomsForTest() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		m.checkRoom(r)
	}
}
