// Package chain 成语接龙与文字接龙
package chain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
	"github.com/palemoky/group-minigames/internal/game/room"
)

// Mode 接龙模式
type Mode struct {
	Type    room.GameType
	Noun    string // 「成语」或「词语」
	MinLen  int
	ExactLn int // 非零时要求长度恰好为该值
}

var (
	Idiom = Mode{Type: room.ChainIdiom, Noun: "成语", MinLen: 4, ExactLn: 4}
	Word  = Mode{Type: room.ChainWord, Noun: "词语", MinLen: 2}
)

// Game 接龙游戏
type Game struct {
	mode       Mode
	maxPlayers int

	currentTerm string
	usedTerms   []string
	idle        int            // 上次接龙成功后玩家的闲聊条数
	scores      map[string]int // 每位玩家接龙成功次数
}

// New 创建接龙游戏，起始词从词库中随机选取
func New(mode Mode, maxPlayers int, bank []string, rng draw.Source) *Game {
	start := draw.Pick(rng, bank)
	return &Game{
		mode:        mode,
		maxPlayers:  maxPlayers,
		currentTerm: start,
		usedTerms:   []string{start},
		scores:      make(map[string]int),
	}
}

func (g *Game) Type() room.GameType { return g.mode.Type }
func (g *Game) MaxPlayers() int     { return g.maxPlayers }
func (g *Game) Reveal() string      { return "" }

// CurrentTerm 返回当前词
func (g *Game) CurrentTerm() string { return g.currentTerm }

// UsedTerms 返回已使用的词
func (g *Game) UsedTerms() []string { return slices.Clone(g.usedTerms) }

// Idle 返回上次接龙成功后玩家的闲聊条数
func (g *Game) Idle() int { return g.idle }

func (g *Game) Created(r *room.Room) string {
	return fmt.Sprintf("【%s】游戏创建成功！\n\n房主: %s\n首个%s: %s\n\n🎮 请输入「%s」参与\n⏱️ 人数满2人后，房主可发送「%s」正式开始",
		g.mode.Type, r.Name(r.HostID), g.mode.Noun, g.currentTerm, room.JoinKeyword, room.StartKeyword)
}

func (g *Game) Start(r *room.Room) string {
	return fmt.Sprintf("【%s】游戏正式开始！\n\n首个%s: %s\n请回复一个以「%s」开头的%s",
		g.mode.Type, g.mode.Noun, g.currentTerm, lastRune(g.currentTerm), g.mode.Noun)
}

// Handle 校验接龙：长度不符视为闲聊；首字不符或重复使用则拒绝
func (g *Game) Handle(r *room.Room, mv room.Move) room.Outcome {
	if !r.IsPlayer(mv.PlayerID) {
		return room.Pass()
	}

	term := strings.TrimSpace(mv.Text)
	if term == room.JoinKeyword || term == room.StartKeyword {
		return room.Pass()
	}
	if !g.shapeOK(term) {
		g.idle++
		return room.Pass()
	}

	last := lastRune(g.currentTerm)
	if firstRune(term) != last {
		return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove,
			fmt.Sprintf("❌ 请发送以「%s」开头的%s", last, g.mode.Noun)))
	}
	if slices.Contains(g.usedTerms, term) {
		return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove,
			fmt.Sprintf("❌ 「%s」已经被使用过了，请换一个", term)))
	}

	g.usedTerms = append(g.usedTerms, term)
	g.currentTerm = term
	g.idle = 0
	g.scores[mv.PlayerID]++
	r.Round++

	return room.Accept(fmt.Sprintf("✅ %s 接龙成功！\n当前%s: %s\n请回复一个以「%s」开头的%s",
		mv.PlayerName, g.mode.Noun, term, lastRune(term), g.mode.Noun))
}

func (g *Game) Summary(r *room.Room) string {
	var b strings.Builder
	fmt.Fprintf(&b, "当前%s: %s（已接龙 %d 次）", g.mode.Noun, g.currentTerm, len(g.usedTerms)-1)

	ids := make([]string, 0, len(g.scores))
	for id := range g.scores {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if g.scores[ids[i]] != g.scores[ids[j]] {
			return g.scores[ids[i]] > g.scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		fmt.Fprintf(&b, "\n%s: %d", r.Name(id), g.scores[id])
	}
	return b.String()
}

func (g *Game) shapeOK(term string) bool {
	n := utf8.RuneCountInString(term)
	if g.mode.ExactLn > 0 {
		return n == g.mode.ExactLn
	}
	return n >= g.mode.MinLen && !strings.ContainsAny(term, " \t\n")
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}

func lastRune(s string) string {
	r, _ := utf8.DecodeLastRuneInString(s)
	return string(r)
}
