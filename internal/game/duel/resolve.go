package duel

import (
	"fmt"
	"slices"
	"strings"

	"github.com/palemoky/group-minigames/internal/game/draw"
)

const (
	MaxHealth     = 3
	evasionChance = 0.5
)

// Shot 子弹类型
type Shot int

const (
	Blank Shot = iota // 空包弹
	Live              // 实弹
)

func (s Shot) String() string {
	if s == Live {
		return "🔴 实弹"
	}
	return "🎭 空包弹"
}

// Damage 基础伤害
func (s Shot) Damage() int {
	if s == Live {
		return 1
	}
	return 0
}

var shotWeights = []draw.Option[Shot]{
	{Value: Blank, Weight: 1},
	{Value: Live, Weight: 1},
}

// Effect 一次性防御效果
type Effect uint8

const (
	EffectShield Effect = 1 << iota
	EffectEvasion
	EffectVest
)

// Player 玩家在对局中的状态
type Player struct {
	Health  int
	Items   []Item
	Effects Effect

	doubleShot bool // 下次开枪连发
	precision  bool // 下次开枪造成2点伤害
}

func newPlayer() *Player {
	return &Player{Health: MaxHealth}
}

// Has 检查效果是否激活
func (p *Player) Has(e Effect) bool { return p.Effects&e != 0 }

func (p *Player) take(item Item) bool {
	i := slices.Index(p.Items, item)
	if i < 0 {
		return false
	}
	p.Items = slices.Delete(p.Items, i, i+1)
	return true
}

func (p *Player) hearts() string {
	if p.Health == 0 {
		return "💔"
	}
	return strings.Repeat("❤️", p.Health)
}

// Hit 一次伤害结算的结果
type Hit struct {
	Blocked  Effect // 生效的防御效果，0 表示没有
	Evaded   bool   // 闪避成功
	Damage   int    // 实际扣除的血量
	Defeated bool
}

// resolve 按护盾、闪避、防弹衣的顺序结算伤害，每次最多消耗一个效果
func resolve(p *Player, damage int, rng draw.Source) Hit {
	var hit Hit
	switch {
	case p.Has(EffectShield):
		p.Effects &^= EffectShield
		hit.Blocked = EffectShield
		damage = 0
	case p.Has(EffectEvasion):
		p.Effects &^= EffectEvasion
		hit.Blocked = EffectEvasion
		if draw.Chance(rng, evasionChance) {
			hit.Evaded = true
			damage = 0
		}
	case damage > 0 && p.Has(EffectVest):
		p.Effects &^= EffectVest
		hit.Blocked = EffectVest
		damage = max(0, damage-1)
	}
	return apply(p, damage, hit)
}

// apply 扣除血量，不检查防御效果
func apply(p *Player, damage int, hit Hit) Hit {
	damage = min(damage, p.Health)
	p.Health -= damage
	hit.Damage = damage
	hit.Defeated = damage > 0 && p.Health == 0
	return hit
}

// describe 生成伤害结算的播报
func describe(name string, p *Player, hit Hit) string {
	var lines []string
	switch {
	case hit.Blocked == EffectShield:
		return fmt.Sprintf("🛡️ %s 的护盾抵挡了伤害！", name)
	case hit.Blocked == EffectEvasion && hit.Evaded:
		return fmt.Sprintf("👟 %s 闪避了攻击！", name)
	case hit.Blocked == EffectEvasion:
		lines = append(lines, fmt.Sprintf("👟 %s 闪避失败！", name))
	case hit.Blocked == EffectVest:
		lines = append(lines, fmt.Sprintf("🦺 %s 的防弹衣减少了伤害！", name))
	}

	if hit.Damage == 0 {
		lines = append(lines, fmt.Sprintf("%s 没有受到伤害", name))
	} else {
		lines = append(lines, fmt.Sprintf("%s 受到 %d 点伤害，剩余血量: %s", name, hit.Damage, p.hearts()))
	}
	if hit.Defeated {
		lines = append(lines, fmt.Sprintf("💀 %s 血量归零，已被淘汰！", name))
	}
	return strings.Join(lines, "\n")
}
