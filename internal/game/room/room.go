package room

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
)

// PendingRequest 等待玩家下一条消息补全的请求（例如未指定目标的跳过道具）
type PendingRequest struct {
	PlayerID  string
	Kind      string
	ExpiresAt time.Time
}

// Room 一个聊天上下文中的游戏房间。
// 除 Manager 外，Room 的方法都不加锁，调用方必须持有 r.mu。
type Room struct {
	ID             string    // 房间 ID
	ContextID      string    // 所属聊天上下文（群号）
	GameType       GameType  // 游戏类型
	HostID         string    // 房主
	CreatedAt      time.Time // 创建时间
	StartedAt      time.Time // 开始时间
	LastActivityAt time.Time // 最后活动时间
	Round          int       // 当前回合，开始时为 1

	status        Status
	roster        []string          // 玩家顺序
	names         map[string]string // 玩家昵称，加入时确定
	eliminated    []string          // 已淘汰玩家（按淘汰顺序）
	currentIdx    int
	skipNext      string
	pendingTarget string
	pending       *PendingRequest
	maxPlayers    int

	game       Game
	rng        draw.Source
	now        func() time.Time
	cancel     context.CancelFunc
	cancelOnce sync.Once
	endReason  string

	mu sync.Mutex
}

func newRoom(contextID, hostID, hostName string, g Game, rng draw.Source, now func() time.Time) *Room {
	t := now()
	r := &Room{
		ID:             uuid.NewString(),
		ContextID:      contextID,
		GameType:       g.Type(),
		HostID:         hostID,
		CreatedAt:      t,
		LastActivityAt: t,
		status:         StatusWaiting,
		names:          make(map[string]string),
		maxPlayers:     g.MaxPlayers(),
		game:           g,
		rng:            rng,
		now:            now,
	}
	// 房主自动加入
	r.roster = append(r.roster, hostID)
	r.names[hostID] = hostName
	return r
}

// Status 返回房间状态
func (r *Room) Status() Status { return r.status }

// Game 返回房间的游戏规则
func (r *Room) Game() Game { return r.game }

// Rand 返回房间的随机数来源
func (r *Room) Rand() draw.Source { return r.rng }

// Now 返回房间时钟的当前时间
func (r *Room) Now() time.Time { return r.now() }

// Players 返回玩家顺序的副本
func (r *Room) Players() []string { return slices.Clone(r.roster) }

// PlayerCount 返回玩家数量
func (r *Room) PlayerCount() int { return len(r.roster) }

// MaxPlayers 返回人数上限
func (r *Room) MaxPlayers() int { return r.maxPlayers }

// IsPlayer 检查用户是否是玩家
func (r *Room) IsPlayer(id string) bool { return slices.Contains(r.roster, id) }

// IsHost 检查用户是否是房主
func (r *Room) IsHost(id string) bool { return id == r.HostID }

// Name 返回玩家昵称，未知玩家返回 ID
func (r *Room) Name(id string) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	return id
}

// Names 返回昵称表的副本
func (r *Room) Names() map[string]string {
	out := make(map[string]string, len(r.names))
	for k, v := range r.names {
		out[k] = v
	}
	return out
}

// join 添加玩家
func (r *Room) join(id, name string) error {
	if r.status != StatusWaiting {
		return apperrors.ErrWrongPhase
	}
	if r.IsPlayer(id) {
		return apperrors.ErrAlreadyJoined
	}
	if len(r.roster) >= r.maxPlayers {
		return apperrors.ErrRoomFull
	}
	r.roster = append(r.roster, id)
	r.names[id] = name
	return nil
}

// start 校验开始条件，打乱一次玩家顺序并进入游戏阶段
func (r *Room) start(callerID string) error {
	if r.status != StatusWaiting {
		return apperrors.ErrWrongPhase
	}
	if !r.IsHost(callerID) {
		return apperrors.Hint(apperrors.ErrNotHost, "只有房主 "+r.Name(r.HostID)+" 才能开始游戏")
	}
	if len(r.roster) < 2 {
		return apperrors.ErrNotEnoughPlayers
	}

	draw.Shuffle(r.rng, r.roster)
	r.status = StatusRunning
	r.Round = 1
	r.currentIdx = 0
	r.StartedAt = r.now()
	r.LastActivityAt = r.StartedAt
	return nil
}

// touch 刷新活动时间
func (r *Room) touch() {
	r.LastActivityAt = r.now()
}

// CurrentPlayer 返回当前回合的玩家
func (r *Room) CurrentPlayer() string {
	if len(r.roster) == 0 {
		return ""
	}
	return r.roster[r.currentIdx]
}

// CurrentPlayerName 返回当前回合玩家的昵称
func (r *Room) CurrentPlayerName() string {
	return r.Name(r.CurrentPlayer())
}

// Advance 切换到下一个玩家：跳过已淘汰的玩家，
// 遇到被标记跳过的玩家时清除标记并继续。
// 最多遍历一圈，找不到时回退到第一个未淘汰的玩家。
func (r *Room) Advance() string {
	n := len(r.roster)
	if n == 0 {
		return ""
	}

	idx := r.currentIdx
	for range n {
		idx = (idx + 1) % n
		id := r.roster[idx]
		if r.IsEliminated(id) {
			continue
		}
		if id == r.skipNext {
			r.skipNext = ""
			continue
		}
		r.currentIdx = idx
		return id
	}

	for i, id := range r.roster {
		if !r.IsEliminated(id) {
			r.currentIdx = i
			return id
		}
	}
	return r.CurrentPlayer()
}

// SetSkipNext 标记下一次轮到该玩家时跳过
func (r *Room) SetSkipNext(id string) { r.skipNext = id }

// SkipNext 返回被标记跳过的玩家
func (r *Room) SkipNext() string { return r.skipNext }

// Eliminate 淘汰玩家，重复淘汰无效
func (r *Room) Eliminate(id string) {
	if !r.IsEliminated(id) {
		r.eliminated = append(r.eliminated, id)
	}
}

// IsEliminated 检查玩家是否已被淘汰
func (r *Room) IsEliminated(id string) bool { return slices.Contains(r.eliminated, id) }

// Eliminated 返回按淘汰顺序排列的玩家
func (r *Room) Eliminated() []string { return slices.Clone(r.eliminated) }

// Alive 返回未淘汰的玩家（按玩家顺序）
func (r *Room) Alive() []string {
	alive := make([]string, 0, len(r.roster))
	for _, id := range r.roster {
		if !r.IsEliminated(id) {
			alive = append(alive, id)
		}
	}
	return alive
}

// PendingTarget 返回本条消息@的第一个玩家
func (r *Room) PendingTarget() string { return r.pendingTarget }

// Pending 返回等待中的请求
func (r *Room) Pending() *PendingRequest { return r.pending }

// SetPending 创建等待请求，有效期由 Manager 配置
func (r *Room) SetPending(playerID, kind string, ttl time.Duration) {
	r.pending = &PendingRequest{PlayerID: playerID, Kind: kind, ExpiresAt: r.now().Add(ttl)}
}

// ClearPending 清除等待请求
func (r *Room) ClearPending() { r.pending = nil }

// stopSupervisor 取消超时监控，只执行一次
func (r *Room) stopSupervisor() {
	r.cancelOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
	})
}

// end 进入结束状态
func (r *Room) end(reason string) {
	if r.status == StatusEnded {
		return
	}
	r.status = StatusEnded
	r.endReason = reason
	r.pending = nil
	r.stopSupervisor()
}
