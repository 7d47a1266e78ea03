// Package duel 恶魔轮盘：轮流@玩家开枪，最后存活的玩家获胜
package duel

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
	"github.com/palemoky/group-minigames/internal/game/room"
)

const (
	MaxShots = 8

	summaryShots = 3

	fireKeyword   = "开枪"
	shootKeyword  = "射击"
	useKeyword    = "使用"
	itemsKeyword  = "查看道具"
	statusKeyword = "查看状态"
)

// ShotRecord 一次开枪记录
type ShotRecord struct {
	Round  int
	Firer  string
	Target string
	Shot   Shot
	Damage int
}

// Game 恶魔轮盘
type Game struct {
	maxPlayers int
	pendingTTL time.Duration

	players  map[string]*Player
	magazine []Shot // 本回合剩余子弹，按装填顺序发射
	budget   int
	fired    int
	history  []ShotRecord
}

// New 创建恶魔轮盘，pendingTTL 为「使用跳过」等待@目标的时长
func New(maxPlayers int, pendingTTL time.Duration) *Game {
	return &Game{
		maxPlayers: maxPlayers,
		pendingTTL: pendingTTL,
		players:    make(map[string]*Player),
	}
}

func (g *Game) Type() room.GameType { return room.EliminationDuel }
func (g *Game) MaxPlayers() int     { return g.maxPlayers }
func (g *Game) Reveal() string      { return "" }

// Player 返回玩家状态
func (g *Game) Player(id string) *Player { return g.players[id] }

// Magazine 返回剩余子弹
func (g *Game) Magazine() []Shot { return slices.Clone(g.magazine) }

// Budget 返回本回合装填数
func (g *Game) Budget() int { return g.budget }

// Fired 返回本回合已发射数
func (g *Game) Fired() int { return g.fired }

func (g *Game) Created(r *room.Room) string {
	return fmt.Sprintf("【恶魔轮盘】游戏房间创建成功！\n\n房主: %s\n人数上限: %d\n\n🎮 输入「%s」参与\n⏱️ 人数满2人后，房主可发送「%s」正式开始\n📜 发送 /game rules 恶魔轮盘 可查看详细规则",
		r.Name(r.HostID), g.maxPlayers, room.JoinKeyword, room.StartKeyword)
}

func (g *Game) Start(r *room.Room) string {
	rng := r.Rand()
	for _, id := range r.Players() {
		p := newPlayer()
		p.Items = append(p.Items, drawItem(rng))
		g.players[id] = p
	}
	g.reload(r)

	var b strings.Builder
	b.WriteString("【恶魔轮盘】游戏正式开始！\n\n玩家行动顺序:")
	for i, id := range r.Players() {
		fmt.Fprintf(&b, "\n%d. %s", i+1, r.Name(id))
	}
	fmt.Fprintf(&b, "\n\n🔫 第 %d 回合，散弹枪已装填\n本回合可能的子弹: %s\n请 %s @某人 进行射击\n💊 每位玩家获得了一个随机道具，可输入「%s」\n❤️ 初始血量为%d点，血量归零即被淘汰",
		r.Round, g.listing(r), r.CurrentPlayerName(), itemsKeyword, MaxHealth)
	return b.String()
}

func (g *Game) Summary(r *room.Room) string {
	summary := fmt.Sprintf("🔫 第 %d 回合，本回合剩余 %d/%d 发子弹\n%s", r.Round, len(g.magazine), g.budget, g.Board(r))
	if len(g.history) > 0 {
		summary += "\n\n【最近开枪】" + g.recentShots(r, summaryShots)
	}
	return summary
}

// recentShots 最近 n 次开枪记录，按时间顺序
func (g *Game) recentShots(r *room.Room, n int) string {
	var b strings.Builder
	for _, rec := range g.history[max(0, len(g.history)-n):] {
		fmt.Fprintf(&b, "\n%s → %s  %s  伤害 %d", r.Name(rec.Firer), r.Name(rec.Target), rec.Shot, rec.Damage)
	}
	return b.String()
}

// Board 玩家血量与防御效果
func (g *Game) Board(r *room.Room) string {
	var b strings.Builder
	b.WriteString("【玩家状态】")
	for _, id := range r.Players() {
		p := g.players[id]
		if p == nil {
			continue
		}
		if r.IsEliminated(id) {
			fmt.Fprintf(&b, "\n%s: 💀", r.Name(id))
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", r.Name(id), p.hearts())
		for _, e := range []struct {
			flag Effect
			icon string
		}{{EffectShield, "🛡️"}, {EffectEvasion, "👟"}, {EffectVest, "🦺"}} {
			if p.Has(e.flag) {
				b.WriteString(" " + e.icon)
			}
		}
	}
	return b.String()
}

// Handle 处理开枪、使用道具与查看命令
func (g *Game) Handle(r *room.Room, mv room.Move) room.Outcome {
	if !r.IsPlayer(mv.PlayerID) {
		return room.Pass()
	}

	text := strings.TrimSpace(mv.Text)
	switch text {
	case itemsKeyword:
		return room.Accept(reply(mv.PlayerName, g.inventory(mv.PlayerID)))
	case statusKeyword:
		return room.Accept(g.Board(r))
	}

	command := isCommand(text)
	if r.IsEliminated(mv.PlayerID) {
		if command {
			return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove, "你已经被淘汰了，无法继续游戏"))
		}
		return room.Pass()
	}

	if p := r.Pending(); p != nil && p.PlayerID == mv.PlayerID && p.Kind == string(Skip) &&
		r.PendingTarget() != "" && !command {
		info, _ := Lookup(string(Skip))
		return g.useItem(r, mv, info)
	}

	switch {
	case strings.HasPrefix(text, useKeyword):
		info, ok := Lookup(strings.TrimSpace(strings.TrimPrefix(text, useKeyword)))
		if !ok {
			return room.Pass()
		}
		return g.useItem(r, mv, info)
	case strings.HasPrefix(text, fireKeyword), strings.HasPrefix(text, shootKeyword):
		return g.fire(r, mv)
	case text == "" && r.PendingTarget() != "" && mv.PlayerID == r.CurrentPlayer():
		return g.fire(r, mv)
	}
	return room.Pass()
}

func isCommand(text string) bool {
	return strings.HasPrefix(text, fireKeyword) || strings.HasPrefix(text, shootKeyword) ||
		strings.HasPrefix(text, useKeyword)
}

func reply(name, text string) string {
	return "@" + name + " " + text
}

func (g *Game) inventory(id string) string {
	p := g.players[id]
	if p == nil || len(p.Items) == 0 {
		return "你当前没有道具"
	}
	var b strings.Builder
	b.WriteString("你当前拥有的道具:")
	for _, item := range p.Items {
		b.WriteString("\n- " + string(item))
	}
	return b.String()
}

// target 校验本条消息@的目标
func (g *Game) target(r *room.Room, missing string) (string, error) {
	id := r.PendingTarget()
	switch {
	case id == "":
		return "", apperrors.Hint(apperrors.ErrInvalidMove, missing)
	case !r.IsPlayer(id):
		return "", apperrors.Hint(apperrors.ErrNotInRoom, "你@的用户不在游戏中")
	case r.IsEliminated(id):
		return "", apperrors.Hint(apperrors.ErrInvalidMove, "你@的玩家已经被淘汰了")
	}
	return id, nil
}

func (g *Game) fire(r *room.Room, mv room.Move) room.Outcome {
	if mv.PlayerID != r.CurrentPlayer() {
		return room.Reject(apperrors.Hint(apperrors.ErrNotYourTurn,
			fmt.Sprintf("还没轮到你，现在是 %s 的回合", r.CurrentPlayerName())))
	}
	target, err := g.target(r, "你需要@一名玩家进行射击")
	if err != nil {
		return room.Reject(err)
	}

	var msgs []string
	if len(g.magazine) == 0 {
		msgs = append(msgs, g.newRound(r))
	}

	firer, victim := g.players[mv.PlayerID], g.players[target]
	targetName := r.Name(target)

	shot := g.pop()
	damage := shot.Damage()
	if firer.precision {
		firer.precision = false
		damage = 2
	}
	hit := resolve(victim, damage, r.Rand())
	g.record(r, mv.PlayerID, target, shot, hit.Damage)

	var b strings.Builder
	fmt.Fprintf(&b, "%s 向 %s 开火！\n💥 %s！\n%s", mv.PlayerName, targetName, shot, describe(targetName, victim, hit))
	if hit.Defeated {
		g.eliminate(r, target)
	}

	if firer.doubleShot {
		firer.doubleShot = false
		switch {
		case r.IsEliminated(target):
		case len(g.magazine) == 0:
			b.WriteString("\n连发效果因子弹不足而失效！")
		default:
			second := g.pop()
			hit := apply(victim, second.Damage(), Hit{})
			g.record(r, mv.PlayerID, target, second, hit.Damage)
			fmt.Fprintf(&b, "\n\n连发效果触发！%s 向 %s 发射第二枪！\n💥 %s！\n%s",
				mv.PlayerName, targetName, second, describe(targetName, victim, hit))
			if hit.Defeated {
				g.eliminate(r, target)
			}
		}
	}

	if out, ended := g.checkWin(r); ended {
		out.Messages = append(append(msgs, b.String()), out.Messages...)
		return out
	}

	switch {
	case shot == Blank && target == mv.PlayerID && len(g.magazine) > 0 && !r.IsEliminated(target):
		fmt.Fprintf(&b, "\n\n空包弹，%s 继续射击\n本回合剩余 %d 发子弹\n请 %s @某人 进行射击",
			mv.PlayerName, len(g.magazine), mv.PlayerName)
		msgs = append(msgs, b.String())
	case len(g.magazine) == 0:
		r.Advance()
		msgs = append(msgs, b.String(), g.newRound(r))
	default:
		next := r.Advance()
		fmt.Fprintf(&b, "\n\n下一轮: 本回合剩余 %d 发子弹\n请 %s @某人 进行射击", len(g.magazine), r.Name(next))
		msgs = append(msgs, b.String())
	}
	return room.Accept(msgs...)
}

// useItem 使用道具；道具只在生效时从背包移除
func (g *Game) useItem(r *room.Room, mv room.Move, info ItemInfo) room.Outcome {
	p := g.players[mv.PlayerID]
	if !slices.Contains(p.Items, info.Name) {
		return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove, fmt.Sprintf("你没有【%s】道具", info.Name)))
	}
	if !info.Defensive && mv.PlayerID != r.CurrentPlayer() {
		return room.Reject(apperrors.Hint(apperrors.ErrNotYourTurn, "现在不是你的回合，只能使用防御类道具"))
	}

	switch info.Name {
	case Shield:
		return g.arm(mv, p, Shield, EffectShield, "你激活了【护盾】，可以抵挡一次伤害")
	case Evasion:
		return g.arm(mv, p, Evasion, EffectEvasion, "你激活了【闪避】，有50%几率躲避下一次攻击")
	case Vest:
		return g.arm(mv, p, Vest, EffectVest, "你穿上了【防弹衣】，下次受到的伤害将减少1点")
	case Medkit:
		if p.Health >= MaxHealth {
			return room.Accept(reply(mv.PlayerName, "你的血量已满，无法使用【医疗包】"))
		}
		p.take(Medkit)
		p.Health++
		return room.Accept(reply(mv.PlayerName, "你使用了【医疗包】，恢复1点血量，当前血量: "+p.hearts()))
	case DoubleShot:
		if p.doubleShot {
			return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove, "你已经装填了【连发】"))
		}
		p.take(DoubleShot)
		p.doubleShot = true
		return room.Accept(reply(mv.PlayerName, "你装填了【连发】弹夹，本回合将连续射击两次"))
	case Sniper:
		if p.precision {
			return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove, "你已经准备了【狙击枪】"))
		}
		p.take(Sniper)
		p.precision = true
		return room.Accept(reply(mv.PlayerName, "你准备了【狙击枪】，本回合射击将造成2点伤害"))
	case Skip:
		return g.skip(r, mv, p)
	case Peek:
		if len(g.magazine) == 0 {
			return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove, "弹匣已空，下次开枪时会重新装填"))
		}
		p.take(Peek)
		return room.Accept(reply(mv.PlayerName, fmt.Sprintf("你偷看了下一发子弹，发现是 %s！", g.magazine[0])))
	case Grenade:
		return g.grenade(r, mv, p)
	}
	return room.Pass()
}

func (g *Game) arm(mv room.Move, p *Player, item Item, e Effect, text string) room.Outcome {
	if p.Has(e) {
		return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove, fmt.Sprintf("你的【%s】已经生效，无需重复使用", item)))
	}
	p.take(item)
	p.Effects |= e
	return room.Accept(reply(mv.PlayerName, text))
}

// skip 没有@目标时挂起请求，等待同一玩家的下一条@消息
func (g *Game) skip(r *room.Room, mv room.Move, p *Player) room.Outcome {
	if r.PendingTarget() == "" {
		r.SetPending(mv.PlayerID, string(Skip), g.pendingTTL)
		return room.Accept(reply(mv.PlayerName,
			fmt.Sprintf("你需要@一名玩家来使用【跳过】道具，请在 %d 秒内@目标玩家", int(g.pendingTTL.Seconds()))))
	}

	target, err := g.target(r, "")
	if err != nil {
		return room.Reject(err)
	}
	if target == mv.PlayerID {
		return room.Reject(apperrors.Hint(apperrors.ErrInvalidMove, "不能对自己使用【跳过】道具"))
	}

	p.take(Skip)
	r.ClearPending()
	r.SetSkipNext(target)
	return room.Accept(reply(mv.PlayerName,
		fmt.Sprintf("你对 %s 使用了【跳过】道具，Ta的下个回合将被跳过", r.Name(target))))
}

// grenade 对其他所有存活玩家各结算1点伤害，不切换回合
func (g *Game) grenade(r *room.Room, mv room.Move, p *Player) room.Outcome {
	p.take(Grenade)

	lines := []string{reply(mv.PlayerName, "你投出了【手榴弹】，对所有其他玩家造成1点伤害！")}
	for _, id := range r.Alive() {
		if id == mv.PlayerID {
			continue
		}
		victim := g.players[id]
		hit := resolve(victim, 1, r.Rand())
		lines = append(lines, describe(r.Name(id), victim, hit))
		if hit.Defeated {
			g.eliminate(r, id)
		}
	}
	msg := strings.Join(lines, "\n")

	if out, ended := g.checkWin(r); ended {
		out.Messages = append([]string{msg}, out.Messages...)
		return out
	}
	return room.Accept(msg)
}

func (g *Game) eliminate(r *room.Room, id string) {
	r.Eliminate(id)
	p := g.players[id]
	p.Items = nil
	p.Effects = 0
	p.doubleShot = false
	p.precision = false
}

// checkWin 存活玩家不超过1人时结束游戏
func (g *Game) checkWin(r *room.Room) (room.Outcome, bool) {
	alive := r.Alive()
	if len(alive) > 1 {
		return room.Outcome{}, false
	}

	out := room.Accept()
	out.Ended = true
	out.Losers = r.Eliminated()
	if len(alive) == 1 {
		out.Winners = alive
		out.Messages = []string{fmt.Sprintf("🏆 游戏结束！%s 是最后的幸存者，获得胜利！", r.Name(alive[0]))}
	} else {
		out.Messages = []string{"游戏结束，所有玩家都被淘汰了！"}
	}
	return out, true
}

// reload 按回合数装填：min(8, 回合+2) 发，空包弹与实弹各50%
func (g *Game) reload(r *room.Room) {
	g.budget = min(MaxShots, r.Round+2)
	g.magazine = draw.Batch(r.Rand(), shotWeights, g.budget)
	g.fired = 0
}

// newRound 进入新回合：重新装填并重置所有存活玩家的道具
func (g *Game) newRound(r *room.Room) string {
	r.Round++
	g.reload(r)

	rng := r.Rand()
	for _, id := range r.Alive() {
		p := g.players[id]
		p.Items = nil
		if draw.Chance(rng, itemChance) {
			p.Items = append(p.Items, drawItem(rng))
		}
	}

	return fmt.Sprintf("🔄 第 %d 回合，散弹枪已装填\n本回合可能的子弹: %s\n请 %s @某人 进行射击\n💊 玩家道具已重置，有机会获得新道具",
		r.Round, g.listing(r), r.CurrentPlayerName())
}

// listing 打乱后的弹匣展示，不影响实际发射顺序
func (g *Game) listing(r *room.Room) string {
	shown := slices.Clone(g.magazine)
	draw.Shuffle(r.Rand(), shown)
	names := make([]string, len(shown))
	for i, s := range shown {
		names[i] = s.String()
	}
	return strings.Join(names, "、")
}

func (g *Game) pop() Shot {
	s := g.magazine[0]
	g.magazine = g.magazine[1:]
	g.fired++
	return s
}

func (g *Game) record(r *room.Room, firer, target string, shot Shot, damage int) {
	g.history = append(g.history, ShotRecord{
		Round:  r.Round,
		Firer:  firer,
		Target: target,
		Shot:   shot,
		Damage: damage,
	})
}
