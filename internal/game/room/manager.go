package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
	"github.com/palemoky/group-minigames/internal/logger"
	"github.com/palemoky/group-minigames/internal/metrics"
)

// 房间内的生命周期关键字
const (
	JoinKeyword  = "加入游戏"
	StartKeyword = "开始游戏"
)

// Options 房间管理器配置
type Options struct {
	WaitingTimeout time.Duration // 等待阶段超时（从创建时间算起）
	RunningTimeout time.Duration // 游戏阶段无操作超时
	PollInterval   time.Duration // 超时检查间隔
	PendingTimeout time.Duration // 等待请求有效期

	Authorizer Authorizer
	Recorder   Recorder

	Now     func() time.Time
	NewRand func() draw.Source
}

func (o *Options) applyDefaults() {
	if o.WaitingTimeout <= 0 {
		o.WaitingTimeout = 5 * time.Minute
	}
	if o.RunningTimeout <= 0 {
		o.RunningTimeout = 10 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 30 * time.Second
	}
	if o.PendingTimeout <= 0 {
		o.PendingTimeout = time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewRand == nil {
		o.NewRand = func() draw.Source { return draw.NewSource() }
	}
}

// Manager 房间管理器：每个聊天上下文最多一个房间。
// 锁顺序固定为 m.mu → r.mu，持有 r.mu 时不能再获取 m.mu。
type Manager struct {
	catalog  Catalog
	notifier Notifier
	opts     Options

	rooms  map[string]*Room
	closed bool
	mu     sync.RWMutex
	wg     sync.WaitGroup
}

// NewManager 创建房间管理器
func NewManager(catalog Catalog, notifier Notifier, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		catalog:  catalog,
		notifier: notifier,
		opts:     opts,
		rooms:    make(map[string]*Room),
	}
}

// PendingTimeout 返回等待请求有效期
func (m *Manager) PendingTimeout() time.Duration {
	return m.opts.PendingTimeout
}

// CreateGame 创建房间，房主自动加入
func (m *Manager) CreateGame(ctx context.Context, contextID, hostID, hostName string, t GameType, params []string) error {
	rng := m.opts.NewRand()
	g, err := m.catalog.New(t, params, rng)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.ErrShuttingDown
	}
	if old, ok := m.rooms[contextID]; ok {
		old.mu.Lock()
		live := old.status != StatusEnded
		oldType := old.GameType
		old.mu.Unlock()
		if live {
			m.mu.Unlock()
			return apperrors.Hint(apperrors.ErrRoomExists,
				fmt.Sprintf("当前群已有一个%s游戏正在进行，请先使用 /game stop 停止当前游戏", oldType))
		}
		delete(m.rooms, contextID)
		metrics.ActiveRooms.Dec()
	}

	r := newRoom(contextID, hostID, hostName, g, rng, m.opts.Now)
	supCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Lock()
	notice := g.Created(r)
	r.mu.Unlock()
	m.rooms[contextID] = r
	m.wg.Add(1)
	m.mu.Unlock()

	metrics.RoomsCreated.WithLabelValues(t.Key()).Inc()
	metrics.ActiveRooms.Inc()
	logger.LogInfo("🏠 房间 %s 已创建（%s），群 %s，房主 %s", r.ID, t, contextID, hostName)

	go m.supervise(supCtx, r)

	m.notify(ctx, contextID, notice)
	return nil
}

// JoinGame 加入房间
func (m *Manager) JoinGame(ctx context.Context, contextID, playerID, playerName string) error {
	r := m.lookup(contextID)
	if r == nil {
		return apperrors.ErrNoActiveRoom
	}

	r.mu.Lock()
	if r.status == StatusEnded {
		r.mu.Unlock()
		return apperrors.ErrNoActiveRoom
	}
	msgs, err := m.joinLocked(r, playerID, playerName)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	m.notify(ctx, contextID, msgs...)
	return nil
}

func (m *Manager) joinLocked(r *Room, playerID, playerName string) ([]string, error) {
	if err := r.join(playerID, playerName); err != nil {
		if errors.Is(err, apperrors.ErrRoomFull) {
			return nil, apperrors.Hint(apperrors.ErrRoomFull,
				fmt.Sprintf("当前房间已满，最多支持%d名玩家参与", r.maxPlayers))
		}
		return nil, err
	}
	r.touch()

	logger.LogInfo("👤 玩家 %s 加入房间 %s", playerName, r.ID)
	msgs := []string{fmt.Sprintf("%s 加入了游戏！当前 %d 人参与。", playerName, len(r.roster))}
	if len(r.roster) == 2 {
		msgs = append(msgs, fmt.Sprintf("人数已满足游戏要求！房主 %s 可以发送「%s」正式开始~", r.Name(r.HostID), StartKeyword))
	}
	return msgs, nil
}

// StartGame 房主开始游戏
func (m *Manager) StartGame(ctx context.Context, contextID, callerID string) error {
	r := m.lookup(contextID)
	if r == nil {
		return apperrors.ErrNoActiveRoom
	}

	r.mu.Lock()
	if r.status == StatusEnded {
		r.mu.Unlock()
		return apperrors.ErrNoActiveRoom
	}
	msgs, err := m.startLocked(r, callerID)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	m.notify(ctx, contextID, msgs...)
	return nil
}

func (m *Manager) startLocked(r *Room, callerID string) ([]string, error) {
	if err := r.start(callerID); err != nil {
		return nil, err
	}
	logger.LogInfo("🎮 房间 %s 开始游戏（%s），%d 名玩家", r.ID, r.GameType, len(r.roster))
	return []string{r.game.Start(r)}, nil
}

// StopGame 停止游戏，只有房主或管理员可以操作
func (m *Manager) StopGame(ctx context.Context, contextID, callerID string) error {
	r := m.lookup(contextID)
	if r == nil {
		return apperrors.ErrNoActiveRoom
	}

	r.mu.Lock()
	isHost := r.IsHost(callerID)
	r.mu.Unlock()

	// 权限检查可能涉及网络请求，不能持锁
	if !isHost && (m.opts.Authorizer == nil || !m.opts.Authorizer.IsPrivileged(ctx, contextID, callerID)) {
		return apperrors.ErrNotPrivileged
	}

	r.mu.Lock()
	if r.status == StatusEnded {
		r.mu.Unlock()
		m.remove(contextID, r)
		return apperrors.ErrNoActiveRoom
	}

	by := "房主"
	if !isHost {
		by = "管理员"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "【%s】游戏已被 %s 停止！", r.GameType, by)
	if reveal := r.game.Reveal(); reveal != "" {
		b.WriteString("\n\n" + reveal)
	}
	if r.status == StatusRunning {
		if summary := r.game.Summary(r); summary != "" {
			b.WriteString("\n\n" + summary)
		}
	}
	fmt.Fprintf(&b, "\n\n共有 %d 名玩家参与了游戏", len(r.roster))
	m.endLocked(r, ReasonStop)
	r.mu.Unlock()

	m.remove(contextID, r)
	logger.LogInfo("⏹️ 房间 %s 已被 %s 停止", r.ID, callerID)
	m.notify(ctx, contextID, b.String())
	return nil
}

// RoomMessage 处理房间内的普通消息。
// 游戏进行中先交给游戏规则校验，不相关的消息再尝试「加入游戏」「开始游戏」。
func (m *Manager) RoomMessage(ctx context.Context, contextID, playerID, playerName, text string, mentions []string) error {
	r := m.lookup(contextID)
	if r == nil {
		return apperrors.ErrNoActiveRoom
	}
	text = strings.TrimSpace(text)

	r.mu.Lock()
	if r.status == StatusEnded {
		r.mu.Unlock()
		m.remove(contextID, r)
		return apperrors.ErrNoActiveRoom
	}

	var msgs []string
	if notice := m.expirePending(r); notice != "" {
		msgs = append(msgs, notice)
	}

	if r.status == StatusRunning {
		if len(mentions) > 0 {
			r.pendingTarget = mentions[0]
		}
		out := r.game.Handle(r, Move{PlayerID: playerID, PlayerName: playerName, Text: text, Mentions: mentions})
		r.pendingTarget = ""
		metrics.Moves.WithLabelValues(r.GameType.Key(), out.Verdict.String()).Inc()

		switch out.Verdict {
		case Rejected:
			r.mu.Unlock()
			m.notify(ctx, contextID, msgs...)
			if out.Err == nil {
				return apperrors.ErrInvalidMove
			}
			return out.Err
		case Accepted:
			r.touch()
			msgs = append(msgs, out.Messages...)
			var res *Result
			if out.Ended {
				m.endLocked(r, ReasonWin)
				res = r.result(out)
			}
			r.mu.Unlock()

			if out.Ended {
				m.remove(contextID, r)
				m.record(res)
			}
			m.notify(ctx, contextID, msgs...)
			return nil
		}
	}

	var (
		lifecycle []string
		err       error
	)
	switch text {
	case JoinKeyword:
		lifecycle, err = m.joinLocked(r, playerID, playerName)
	case StartKeyword:
		lifecycle, err = m.startLocked(r, playerID)
	}
	r.mu.Unlock()

	m.notify(ctx, contextID, msgs...)
	if err != nil {
		return err
	}
	m.notify(ctx, contextID, lifecycle...)
	return nil
}

// ShowRules 返回游戏规则
func (m *Manager) ShowRules(t GameType) string {
	return m.catalog.Rules(t)
}

// ShowStatus 返回房间信息
func (m *Manager) ShowStatus(contextID string) (string, error) {
	r := m.lookup(contextID)
	if r == nil {
		return "", apperrors.ErrNoActiveRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusEnded {
		return "", apperrors.ErrNoActiveRoom
	}

	var b strings.Builder
	fmt.Fprintf(&b, "【%s】房间信息\n状态: %s\n房主: %s\n玩家数: %d/%d\n\n玩家列表:",
		r.GameType, r.status, r.Name(r.HostID), len(r.roster), r.maxPlayers)
	for _, id := range r.roster {
		icon := "🎮 "
		switch {
		case r.IsHost(id):
			icon = "👑 "
		case r.IsEliminated(id):
			icon = "💀 "
		}
		b.WriteString("\n" + icon + r.Name(id))
	}

	switch r.status {
	case StatusWaiting:
		fmt.Fprintf(&b, "\n\n🎮 输入「%s」参与\n⏱️ 人数满2人后，房主可发送「%s」", JoinKeyword, StartKeyword)
	case StatusRunning:
		fmt.Fprintf(&b, "\n\n第 %d 回合，当前玩家: %s", r.Round, r.CurrentPlayerName())
		if summary := r.game.Summary(r); summary != "" {
			b.WriteString("\n" + summary)
		}
	}
	return b.String(), nil
}

// Snapshot 房间的只读快照
type Snapshot struct {
	ID             string    `json:"id"`
	ContextID      string    `json:"context_id"`
	GameType       string    `json:"game_type"`
	Status         string    `json:"status"`
	Players        []string  `json:"players"`
	Round          int       `json:"round"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Rooms 返回所有活动房间的快照
func (m *Manager) Rooms() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0, len(m.rooms))
	for _, r := range m.rooms {
		r.mu.Lock()
		if r.status != StatusEnded {
			names := make([]string, 0, len(r.roster))
			for _, id := range r.roster {
				names = append(names, r.Name(id))
			}
			out = append(out, Snapshot{
				ID:             r.ID,
				ContextID:      r.ContextID,
				GameType:       r.GameType.String(),
				Status:         r.status.String(),
				Players:        names,
				Round:          r.Round,
				CreatedAt:      r.CreatedAt,
				LastActivityAt: r.LastActivityAt,
			})
		}
		r.mu.Unlock()
	}
	return out
}

// Shutdown 结束所有房间并等待监控协程退出
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	for contextID, r := range m.rooms {
		r.mu.Lock()
		m.endLocked(r, ReasonShutdown)
		r.mu.Unlock()
		delete(m.rooms, contextID)
		metrics.ActiveRooms.Dec()
	}
	m.mu.Unlock()

	m.wg.Wait()
	logger.LogInfo("🧹 房间管理器已关闭")
}

// lookup 查找房间，已结束的房间视为不存在并立即回收
func (m *Manager) lookup(contextID string) *Room {
	m.mu.RLock()
	r := m.rooms[contextID]
	m.mu.RUnlock()
	if r == nil {
		return nil
	}

	r.mu.Lock()
	ended := r.status == StatusEnded
	r.mu.Unlock()
	if ended {
		m.remove(contextID, r)
		return nil
	}
	return r
}

// remove 从注册表中删除房间（仅当注册的仍是该房间）
func (m *Manager) remove(contextID string, r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[contextID] == r {
		delete(m.rooms, contextID)
		metrics.ActiveRooms.Dec()
	}
}

// endLocked 结束房间，调用方持有 r.mu
func (m *Manager) endLocked(r *Room, reason string) {
	if r.status == StatusEnded {
		return
	}
	r.end(reason)
	metrics.RoomsEnded.WithLabelValues(r.GameType.Key(), reason).Inc()
	logger.LogInfo("🏁 房间 %s 已结束（%s）", r.ID, reason)
}

// expirePending 清除过期的等待请求，返回提示文本
func (m *Manager) expirePending(r *Room) string {
	p := r.pending
	if p == nil || r.now().Before(p.ExpiresAt) {
		return ""
	}
	r.pending = nil
	return fmt.Sprintf("⌛ %s 的「%s」请求已超时取消", r.Name(p.PlayerID), p.Kind)
}

func (r *Room) result(out Outcome) *Result {
	if len(out.Winners) == 0 && len(out.Losers) == 0 {
		return nil
	}
	return &Result{
		RoomID:    r.ID,
		ContextID: r.ContextID,
		GameType:  r.GameType,
		Players:   r.Players(),
		Names:     r.Names(),
		Winners:   out.Winners,
		Losers:    out.Losers,
		Rounds:    r.Round,
		EndedAt:   r.now(),
	}
}

// record 异步保存胜负结果
func (m *Manager) record(res *Result) {
	if res == nil || m.opts.Recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.opts.Recorder.RecordResult(ctx, *res); err != nil {
			logger.LogError("保存房间 %s 的结果失败: %v", res.RoomID, err)
		}
	}()
}

// notify 在释放房间锁之后发送消息
func (m *Manager) notify(ctx context.Context, contextID string, msgs ...string) {
	if m.notifier == nil {
		return
	}
	for _, msg := range msgs {
		if msg == "" {
			continue
		}
		m.notifier.Notify(ctx, contextID, msg)
	}
}
