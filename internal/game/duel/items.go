package duel

import (
	"github.com/palemoky/group-minigames/internal/game/draw"
)

// Item 道具名称
type Item string

const (
	Shield     Item = "护盾"
	DoubleShot Item = "连发"
	Medkit     Item = "医疗包"
	Sniper     Item = "狙击枪"
	Evasion    Item = "闪避"
	Skip       Item = "跳过"
	Peek       Item = "偷窥"
	Vest       Item = "防弹衣"
	Grenade    Item = "手榴弹"
)

const (
	maxRarity  = 6
	itemChance = 0.5 // 新回合每位玩家获得道具的概率
)

// ItemInfo 道具说明
type ItemInfo struct {
	Name        Item
	Description string
	Rarity      int  // 越大越稀有
	Defensive   bool // 防御类道具可以在别人的回合使用
}

// Catalog 道具目录，按展示顺序排列
var Catalog = []ItemInfo{
	{Name: Shield, Description: "抵挡一次攻击，不减血", Rarity: 3, Defensive: true},
	{Name: DoubleShot, Description: "向目标连开两枪", Rarity: 3},
	{Name: Medkit, Description: "恢复1点血量", Rarity: 2},
	{Name: Sniper, Description: "造成2点伤害", Rarity: 3},
	{Name: Evasion, Description: "有50%几率闪避下一次攻击", Rarity: 2, Defensive: true},
	{Name: Skip, Description: "跳过指定玩家的下一个回合", Rarity: 4},
	{Name: Peek, Description: "偷看下一发子弹", Rarity: 1},
	{Name: Vest, Description: "将下次受到的伤害减少1点", Rarity: 2, Defensive: true},
	{Name: Grenade, Description: "对所有其他玩家造成1点伤害", Rarity: 5},
}

// itemWeights 稀有度越高权重越低
var itemWeights = func() []draw.Option[Item] {
	opts := make([]draw.Option[Item], 0, len(Catalog))
	for _, info := range Catalog {
		opts = append(opts, draw.Option[Item]{Value: info.Name, Weight: maxRarity - info.Rarity})
	}
	return opts
}()

// Lookup 按名称查找道具
func Lookup(name string) (ItemInfo, bool) {
	for _, info := range Catalog {
		if string(info.Name) == name {
			return info, true
		}
	}
	return ItemInfo{}, false
}

func drawItem(rng draw.Source) Item {
	item, _ := draw.Draw(rng, itemWeights)
	return item
}
