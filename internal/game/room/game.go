package room

import (
	"context"
	"time"

	"github.com/palemoky/group-minigames/internal/game/draw"
)

// Verdict 校验结果
type Verdict int

const (
	NotApplicable Verdict = iota // 与本游戏无关，交给生命周期命令处理
	Accepted
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "not_applicable"
	}
}

// Move 一条房间内的玩家消息
type Move struct {
	PlayerID   string
	PlayerName string
	Text       string
	Mentions   []string
}

// Outcome 校验并执行一次操作的结果
type Outcome struct {
	Verdict  Verdict
	Err      error    // Rejected 时的原因
	Messages []string // 需要广播的消息
	Ended    bool     // 触发了胜负条件
	Winners  []string
	Losers   []string
}

// Pass 返回 NotApplicable
func Pass() Outcome {
	return Outcome{Verdict: NotApplicable}
}

// Reject 返回 Rejected，拒绝的操作不能修改任何状态
func Reject(err error) Outcome {
	return Outcome{Verdict: Rejected, Err: err}
}

// Accept 返回 Accepted
func Accept(msgs ...string) Outcome {
	return Outcome{Verdict: Accepted, Messages: msgs}
}

// Game 一种游戏的规则实现。所有方法都在持有房间锁时调用。
type Game interface {
	Type() GameType
	MaxPlayers() int
	// Created 返回房间创建提示
	Created(r *Room) string
	// Start 初始化游戏数据并返回开局提示
	Start(r *Room) string
	// Handle 校验并执行一条玩家消息
	Handle(r *Room, mv Move) Outcome
	// Reveal 返回隐藏答案，没有时返回空串
	Reveal() string
	// Summary 返回状态/结算摘要
	Summary(r *Room) string
}

// Catalog 按类型创建游戏
type Catalog interface {
	New(t GameType, params []string, rng draw.Source) (Game, error)
	Rules(t GameType) string
}

// Notifier 向聊天上下文发送消息
type Notifier interface {
	Notify(ctx context.Context, contextID, text string)
}

// Authorizer 判断调用者是否有管理权限（仅在非房主停止游戏时调用）
type Authorizer interface {
	IsPrivileged(ctx context.Context, contextID, callerID string) bool
}

// Result 一局游戏的胜负结果
type Result struct {
	RoomID    string            `json:"room_id"`
	ContextID string            `json:"context_id"`
	GameType  GameType          `json:"game_type"`
	Players   []string          `json:"players"`
	Names     map[string]string `json:"names"`
	Winners   []string          `json:"winners"`
	Losers    []string          `json:"losers"`
	Rounds    int               `json:"rounds"`
	EndedAt   time.Time         `json:"ended_at"`
}

// Recorder 持久化胜负结果
type Recorder interface {
	RecordResult(ctx context.Context, res Result) error
}
