package game

import (
	"fmt"
	"strings"

	"github.com/palemoky/group-minigames/internal/game/duel"
	"github.com/palemoky/group-minigames/internal/game/guess"
	"github.com/palemoky/group-minigames/internal/game/room"
)

var rules = map[room.GameType]string{
	room.ChainIdiom: "【成语接龙规则】\n1. 机器人给出一个成语作为开始\n2. 玩家需要回复一个以上一个成语最后一个字开头的成语\n3. 成语不能重复使用\n4. 回复的必须是标准成语（四个汉字）",
	room.ChainWord:  "【文字接龙规则】\n1. 机器人给出一个词语作为开始\n2. 玩家需要回复一个以上一个词语最后一个字开头的新词语\n3. 词语不能重复使用\n4. 回复必须是常用词语，可以是任意长度",
	room.WordGuess: fmt.Sprintf("【猜词游戏规则】\n1. 机器人随机选择一个词语作为答案\n2. 玩家可以猜测单个汉字或整个词语\n3. 猜中单个汉字后，对应位置会显示出来\n4. 猜中全部字或直接猜出完整词语即为获胜\n5. 大家共用%d次猜测机会", guess.MaxAttempts),
	room.NumberBomb: "【数字炸弹规则】\n1. 机器人会在指定范围内(默认1-100)随机选择一个数字作为炸弹\n2. 玩家按顺序轮流猜测一个数字\n3. 每次猜测后，机器人会提示炸弹在更小的范围内\n4. 猜中炸弹的玩家输掉游戏\n5. 可指定范围：/game start 数字炸弹 1 500",
	room.EliminationDuel: "【恶魔轮盘规则】\n1. 每个玩家有3点血量\n2. 每回合会随机装填空包弹(无伤害)、实弹(1点伤害)\n3. 轮到玩家回合时，必须@一名玩家并开枪\n4. 玩家可以对自己开枪，打出空包弹可以继续射击\n" +
		"5. 玩家可使用道具修改游戏规则，发送「使用道具名」\n6. 血量为0时淘汰，最后存活的玩家获胜\n7. 护盾、闪避、防弹衣可以在别人的回合使用",
}

// Rules 返回游戏规则
func (reg *Registry) Rules(t room.GameType) string {
	text, ok := rules[t]
	if !ok {
		return "可用的游戏类型: " + Names()
	}
	if t != room.EliminationDuel {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n可用道具:")
	for _, info := range duel.Catalog {
		fmt.Fprintf(&b, "\n- %s: %s", info.Name, info.Description)
	}
	return b.String()
}
