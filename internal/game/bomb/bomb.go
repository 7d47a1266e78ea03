// Package bomb 数字炸弹
package bomb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
	"github.com/palemoky/group-minigames/internal/game/room"
)

const (
	DefaultMin = 1
	DefaultMax = 100
	LowerLimit = 1
	UpperLimit = 1000
)

// Guess 一次猜测记录
type Guess struct {
	PlayerID string
	Value    int
}

// Game 数字炸弹：炸弹位于开区间 (min, max) 内，猜中的玩家输掉游戏
type Game struct {
	maxPlayers int

	target int
	min    int
	max    int
	log    []Guess
}

// ClampRange 修正范围：下限不小于 1，上限不大于 1000，
// 开区间内放不下炸弹时回退到 1-100
func ClampRange(lo, hi int) (int, int) {
	lo = max(LowerLimit, lo)
	hi = min(UpperLimit, hi)
	if hi-lo < 2 {
		return DefaultMin, DefaultMax
	}
	return lo, hi
}

// ParseRange 解析可选的「最小值 最大值」参数
func ParseRange(params []string) (int, int) {
	lo, hi := DefaultMin, DefaultMax
	if len(params) > 0 {
		if v, err := strconv.Atoi(params[0]); err == nil {
			lo = v
		}
	}
	if len(params) > 1 {
		if v, err := strconv.Atoi(params[1]); err == nil {
			hi = v
		}
	}
	return ClampRange(lo, hi)
}

// New 创建数字炸弹，炸弹数字严格位于 (lo, hi) 内
func New(maxPlayers, lo, hi int, rng draw.Source) *Game {
	lo, hi = ClampRange(lo, hi)
	target := lo + 1 + rng.IntN(hi-lo-1)
	return NewWithTarget(maxPlayers, lo, hi, target)
}

// NewWithTarget 使用指定炸弹数字创建游戏
func NewWithTarget(maxPlayers, lo, hi, target int) *Game {
	return &Game{maxPlayers: maxPlayers, target: target, min: lo, max: hi}
}

func (g *Game) Type() room.GameType { return room.NumberBomb }
func (g *Game) MaxPlayers() int     { return g.maxPlayers }

// Bounds 返回当前开区间
func (g *Game) Bounds() (int, int) { return g.min, g.max }

// Guesses 返回猜测记录
func (g *Game) Guesses() []Guess { return append([]Guess(nil), g.log...) }

func (g *Game) Reveal() string {
	return fmt.Sprintf("炸弹数字是：%d", g.target)
}

func (g *Game) Created(r *room.Room) string {
	return fmt.Sprintf("【数字炸弹】游戏房间创建成功！\n\n房主: %s\n炸弹范围: %d 到 %d\n\n🎮 输入「%s」参与\n⏱️ 人数满2人后，房主可发送「%s」正式开始",
		r.Name(r.HostID), g.min, g.max, room.JoinKeyword, room.StartKeyword)
}

func (g *Game) Start(r *room.Room) string {
	return fmt.Sprintf("【数字炸弹】游戏正式开始！\n\n炸弹在 %d 到 %d 之间的某个数字\n请 %s 先猜，之后按顺序轮流发送数字\n猜中炸弹数字的人就输了！",
		g.min, g.max, r.CurrentPlayerName())
}

func (g *Game) Summary(r *room.Room) string {
	return fmt.Sprintf("🔍 炸弹在 %d 到 %d 之间，已猜 %d 次", g.min, g.max, len(g.log))
}

// Handle 玩家按顺序猜测；非数字消息不处理
func (g *Game) Handle(r *room.Room, mv room.Move) room.Outcome {
	if !r.IsPlayer(mv.PlayerID) {
		return room.Pass()
	}
	guess, err := strconv.Atoi(strings.TrimSpace(mv.Text))
	if err != nil {
		return room.Pass()
	}

	if mv.PlayerID != r.CurrentPlayer() {
		return room.Reject(apperrors.Hint(apperrors.ErrNotYourTurn,
			fmt.Sprintf("还没轮到你，现在是 %s 的回合", r.CurrentPlayerName())))
	}
	if guess <= g.min || guess >= g.max {
		return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove,
			fmt.Sprintf("请猜测 %d 到 %d 之间的数字", g.min, g.max)))
	}

	g.log = append(g.log, Guess{PlayerID: mv.PlayerID, Value: guess})
	r.Round++

	if guess == g.target {
		out := room.Accept(fmt.Sprintf("💥 轰！炸弹爆炸了！\n%s 猜中了炸弹数字 %d，游戏结束！", mv.PlayerName, g.target))
		out.Ended = true
		out.Losers = []string{mv.PlayerID}
		for _, id := range r.Players() {
			if id != mv.PlayerID {
				out.Winners = append(out.Winners, id)
			}
		}
		return out
	}

	if guess < g.target {
		g.min = guess
	} else {
		g.max = guess
	}
	next := r.Advance()
	return room.Accept(fmt.Sprintf("%s 猜测: %d\n\n🔍 炸弹在 %d 到 %d 之间\n请 %s 继续猜",
		mv.PlayerName, guess, g.min, g.max, r.Name(next)))
}
