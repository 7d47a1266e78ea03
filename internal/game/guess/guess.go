// Package guess 猜词游戏
package guess

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
	"github.com/palemoky/group-minigames/internal/game/room"
)

const (
	MaxAttempts = 10
	blank       = '＿'
)

// Game 猜词游戏
type Game struct {
	maxPlayers int

	target   []rune
	mask     []rune
	guessed  []rune
	attempts int
}

// New 创建猜词游戏，目标词从词库中随机选取
func New(maxPlayers int, bank []string, rng draw.Source) *Game {
	target := []rune(draw.Pick(rng, bank))
	mask := make([]rune, len(target))
	for i := range mask {
		mask[i] = blank
	}
	return &Game{maxPlayers: maxPlayers, target: target, mask: mask}
}

func (g *Game) Type() room.GameType { return room.WordGuess }
func (g *Game) MaxPlayers() int     { return g.maxPlayers }

// Mask 返回当前提示
func (g *Game) Mask() string { return string(g.mask) }

// Attempts 返回已用次数
func (g *Game) Attempts() int { return g.attempts }

func (g *Game) Reveal() string {
	return "正确答案是：" + string(g.target)
}

func (g *Game) Created(r *room.Room) string {
	return fmt.Sprintf("【猜词】游戏创建成功！\n\n房主: %s\n词语长度: %d个字\n\n🎮 请输入「%s」参与\n⏱️ 人数满2人后，房主可发送「%s」正式开始",
		r.Name(r.HostID), len(g.target), room.JoinKeyword, room.StartKeyword)
}

func (g *Game) Start(r *room.Room) string {
	return fmt.Sprintf("【猜词】游戏正式开始！\n\n词语: %s\n剩余机会: %d\n请猜测一个汉字或完整词语", g.Mask(), MaxAttempts)
}

func (g *Game) Summary(r *room.Room) string {
	return fmt.Sprintf("当前提示：%s\n剩余尝试次数：%d", g.Mask(), MaxAttempts-g.attempts)
}

// Handle 单字猜测揭示对应位置；与目标等长的整词猜测直接判定胜负
func (g *Game) Handle(r *room.Room, mv room.Move) room.Outcome {
	if !r.IsPlayer(mv.PlayerID) {
		return room.Pass()
	}

	text := strings.TrimSpace(mv.Text)
	n := utf8.RuneCountInString(text)
	switch {
	case n == 1:
		ch, _ := utf8.DecodeRuneInString(text)
		if unicode.IsSpace(ch) || unicode.IsPunct(ch) {
			return room.Pass()
		}
		return g.guessChar(r, mv, ch)
	case n == len(g.target) && text != room.JoinKeyword && text != room.StartKeyword:
		return g.guessWord(r, mv, []rune(text))
	default:
		return room.Pass()
	}
}

func (g *Game) guessChar(r *room.Room, mv room.Move, ch rune) room.Outcome {
	if slices.Contains(g.guessed, ch) || slices.Contains(g.mask, ch) {
		return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove,
			fmt.Sprintf("「%c」已经猜过了，换一个字吧", ch)))
	}

	g.guessed = append(g.guessed, ch)
	g.attempts++
	r.Round++

	hit := false
	for i, c := range g.target {
		if c == ch {
			g.mask[i] = c
			hit = true
		}
	}

	if !slices.Contains(g.mask, blank) {
		return g.win(r, "【猜词游戏】恭喜大家猜出了所有字！")
	}
	if g.attempts >= MaxAttempts {
		return g.lose(r)
	}

	verb := "猜错了"
	if hit {
		verb = "猜对了一个字"
	}
	return room.Accept(fmt.Sprintf("【猜词游戏】%s %s！\n\n%s", mv.PlayerName, verb, g.Summary(r)))
}

func (g *Game) guessWord(r *room.Room, mv room.Move, word []rune) room.Outcome {
	g.attempts++
	r.Round++

	if slices.Equal(word, g.target) {
		copy(g.mask, g.target)
		return g.win(r, fmt.Sprintf("【猜词游戏】%s 直接猜出了完整词语！", mv.PlayerName))
	}
	if g.attempts >= MaxAttempts {
		return g.lose(r)
	}
	return room.Accept(fmt.Sprintf("【猜词游戏】%s 猜的「%s」不对！\n\n%s", mv.PlayerName, string(word), g.Summary(r)))
}

// win 合作模式：所有玩家共同获胜
func (g *Game) win(r *room.Room, headline string) room.Outcome {
	out := room.Accept(fmt.Sprintf("%s\n\n答案是：%s\n\n游戏结束！", headline, string(g.target)))
	out.Ended = true
	out.Winners = r.Players()
	return out
}

func (g *Game) lose(r *room.Room) room.Outcome {
	out := room.Accept(fmt.Sprintf("【猜词游戏】已达到最大尝试次数！\n\n答案是：%s\n\n游戏结束！", string(g.target)))
	out.Ended = true
	out.Losers = r.Players()
	return out
}
