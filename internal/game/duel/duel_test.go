package duel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
	"github.com/palemoky/group-minigames/internal/game/room"
)

// newDuel 开局并清空初始道具；roll 决定闪避与新回合发道具的判定
func newDuel(t *testing.T, roll float64, players ...string) (*Game, *room.Room) {
	t.Helper()
	g := New(4, time.Minute)
	r := room.NewTestRoom(g, &stubSource{f: roll}, players...)
	r.StartForTest()
	for _, id := range players {
		g.players[id].Items = nil
	}
	return g, r
}

func load(g *Game, shots ...Shot) {
	g.magazine = shots
	g.budget = len(shots)
	g.fired = 0
}

func give(g *Game, id string, items ...Item) {
	g.players[id].Items = append(g.players[id].Items, items...)
}

func send(g *Game, r *room.Room, from, text, target string) room.Outcome {
	r.SetTargetForTest(target)
	defer r.SetTargetForTest("")
	return g.Handle(r, room.Move{PlayerID: from, PlayerName: from, Text: text})
}

func TestStart_InitialState(t *testing.T) {
	t.Parallel()

	g := New(4, time.Minute)
	r := room.NewTestRoom(g, &stubSource{f: 0.9}, "a", "b")
	msg := r.StartForTest()

	assert.Contains(t, msg, "【恶魔轮盘】游戏正式开始！")
	assert.Contains(t, msg, "请 a @某人 进行射击")
	assert.Equal(t, 3, g.Budget())
	assert.Len(t, g.Magazine(), 3)
	for _, id := range []string{"a", "b"} {
		assert.Equal(t, MaxHealth, g.Player(id).Health)
		assert.Len(t, g.Player(id).Items, 1)
	}
}

func TestFire_ThreeLiveShotsEliminateTarget(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Live, Live, Live)

	for i := range 2 {
		r.SetCurrentForTest("a")
		out := send(g, r, "a", "开枪", "b")
		require.Equal(t, room.Accepted, out.Verdict)
		assert.False(t, out.Ended)
		assert.Equal(t, MaxHealth-1-i, g.Player("b").Health)
	}

	r.SetCurrentForTest("a")
	out := send(g, r, "a", "开枪", "b")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.True(t, out.Ended)
	assert.Equal(t, []string{"a"}, out.Winners)
	assert.Equal(t, []string{"b"}, out.Losers)
	assert.Equal(t, 0, g.Player("b").Health)
	assert.True(t, r.IsEliminated("b"))
	assert.Contains(t, out.Messages[len(out.Messages)-1], "a 是最后的幸存者")
	assert.Len(t, g.history, 3)
}

func TestFire_ShieldNegatesLiveShot(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Live, Blank, Blank)
	g.Player("b").Effects = EffectShield

	out := send(g, r, "a", "开枪", "b")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Equal(t, MaxHealth, g.Player("b").Health)
	assert.False(t, g.Player("b").Has(EffectShield))
	assert.Contains(t, out.Messages[0], "🛡️ b 的护盾抵挡了伤害！")
	assert.Equal(t, "b", r.CurrentPlayer())
}

func TestFire_VestKeptThroughBlank(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b", "c")
	load(g, Blank, Live, Live)
	g.Player("b").Effects = EffectVest

	require.Equal(t, room.Accepted, send(g, r, "a", "开枪", "b").Verdict)
	assert.Equal(t, MaxHealth, g.Player("b").Health)
	assert.True(t, g.Player("b").Has(EffectVest))

	r.SetCurrentForTest("a")
	out := send(g, r, "a", "开枪", "b")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Equal(t, MaxHealth, g.Player("b").Health)
	assert.False(t, g.Player("b").Has(EffectVest))
	assert.Contains(t, out.Messages[0], "🦺 b 的防弹衣减少了伤害！")
}

func TestFire_Rejections(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b", "c")
	load(g, Live, Live, Live)
	r.Eliminate("c")

	tests := []struct {
		name   string
		from   string
		target string
		want   error
		hint   string
	}{
		{"not your turn", "b", "a", apperrors.ErrNotYourTurn, "还没轮到你，现在是 a 的回合"},
		{"missing target", "a", "", apperrors.ErrInvalidMove, "你需要@一名玩家进行射击"},
		{"outsider", "a", "zed", apperrors.ErrNotInRoom, "你@的用户不在游戏中"},
		{"eliminated target", "a", "c", apperrors.ErrInvalidMove, "你@的玩家已经被淘汰了"},
	}

	for _, tt := range tests {
		out := send(g, r, tt.from, "开枪", tt.target)
		assert.Equal(t, room.Rejected, out.Verdict, tt.name)
		assert.ErrorIs(t, out.Err, tt.want, tt.name)
		assert.Equal(t, tt.hint, out.Err.Error(), tt.name)
	}

	assert.Len(t, g.Magazine(), 3)
	assert.Equal(t, "a", r.CurrentPlayer())
	assert.Empty(t, g.history)
}

func TestFire_EliminatedPlayerCannotAct(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b", "c")
	r.Eliminate("c")

	out := send(g, r, "c", "开枪", "a")
	assert.Equal(t, room.Rejected, out.Verdict)
	assert.Equal(t, room.NotApplicable, send(g, r, "c", "加油", "").Verdict)
}

func TestFire_MentionOnlyFromCurrentPlayer(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Blank, Live, Live)

	assert.Equal(t, room.NotApplicable, send(g, r, "b", "", "a").Verdict)
	out := send(g, r, "a", "", "b")
	assert.Equal(t, room.Accepted, out.Verdict)
	assert.Equal(t, 1, g.Fired())
}

func TestFire_BlankSelfShotKeepsTurn(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Blank, Live, Live)

	out := send(g, r, "a", "开枪", "a")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Equal(t, "a", r.CurrentPlayer())
	assert.Equal(t, MaxHealth, g.Player("a").Health)
	assert.Contains(t, out.Messages[0], "空包弹，a 继续射击")

	out = send(g, r, "a", "开枪", "a")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Equal(t, "b", r.CurrentPlayer())
	assert.Equal(t, MaxHealth-1, g.Player("a").Health)
}

func TestFire_LastShotStartsNewRound(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.1, "a", "b", "c")
	load(g, Blank)
	r.Eliminate("c")

	out := send(g, r, "a", "开枪", "a")
	require.Equal(t, room.Accepted, out.Verdict)
	require.Len(t, out.Messages, 2)
	assert.Contains(t, out.Messages[1], "🔄 第 2 回合，散弹枪已装填")
	assert.Contains(t, out.Messages[1], "请 b @某人 进行射击")

	assert.Equal(t, 2, r.Round)
	assert.Equal(t, 4, g.Budget())
	assert.Len(t, g.Magazine(), 4)
	assert.Equal(t, "b", r.CurrentPlayer())

	// 新回合每位存活玩家按概率获得道具，已淘汰玩家没有
	assert.Equal(t, []Item{Shield}, g.Player("a").Items)
	assert.Equal(t, []Item{Shield}, g.Player("b").Items)
	assert.Empty(t, g.Player("c").Items)
}

func TestFire_ShotsNeverExceedBudget(t *testing.T) {
	t.Parallel()

	rng := draw.Seeded(3, 14)
	for range 20 {
		g := New(4, time.Minute)
		r := room.NewTestRoom(g, rng, "a", "b", "c")
		r.StartForTest()

		for step := 0; step < 200; step++ {
			alive := r.Alive()
			target := alive[rng.IntN(len(alive))]
			out := send(g, r, r.CurrentPlayer(), "开枪", target)
			require.Equal(t, room.Accepted, out.Verdict)

			assert.LessOrEqual(t, g.Fired(), g.Budget())
			assert.Equal(t, min(MaxShots, r.Round+2), g.Budget())
			assert.False(t, r.IsEliminated(r.CurrentPlayer()) && len(r.Alive()) >= 2)
			if out.Ended {
				break
			}
			assert.Equal(t, g.Budget(), g.Fired()+len(g.Magazine()))
		}
	}
}

func TestItems_DefensiveUsableOffTurn(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	give(g, "b", Shield, Sniper)

	out := send(g, r, "b", "使用护盾", "")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.True(t, g.Player("b").Has(EffectShield))
	assert.Equal(t, []Item{Sniper}, g.Player("b").Items)

	out = send(g, r, "b", "使用 狙击枪", "")
	assert.Equal(t, room.Rejected, out.Verdict)
	assert.ErrorIs(t, out.Err, apperrors.ErrNotYourTurn)
	assert.Equal(t, []Item{Sniper}, g.Player("b").Items)
}

func TestItems_MissingOrDuplicate(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")

	out := send(g, r, "a", "使用护盾", "")
	assert.Equal(t, room.Rejected, out.Verdict)
	assert.Equal(t, "你没有【护盾】道具", out.Err.Error())

	give(g, "a", Vest, Vest)
	require.Equal(t, room.Accepted, send(g, r, "a", "使用防弹衣", "").Verdict)
	out = send(g, r, "a", "使用防弹衣", "")
	assert.Equal(t, room.Rejected, out.Verdict)
	assert.Equal(t, []Item{Vest}, g.Player("a").Items)

	assert.Equal(t, room.NotApplicable, send(g, r, "a", "使用说明", "").Verdict)
}

func TestItems_Medkit(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	give(g, "a", Medkit)

	out := send(g, r, "a", "使用医疗包", "")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Contains(t, out.Messages[0], "你的血量已满")
	assert.Equal(t, []Item{Medkit}, g.Player("a").Items)

	g.Player("a").Health = 1
	require.Equal(t, room.Accepted, send(g, r, "a", "使用医疗包", "").Verdict)
	assert.Equal(t, 2, g.Player("a").Health)
	assert.Empty(t, g.Player("a").Items)
}

func TestItems_SniperDealsTwoEvenOnBlank(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Blank, Blank, Blank)
	give(g, "a", Sniper)

	require.Equal(t, room.Accepted, send(g, r, "a", "使用狙击枪", "").Verdict)
	require.Equal(t, room.Accepted, send(g, r, "a", "开枪", "b").Verdict)
	assert.Equal(t, 1, g.Player("b").Health)

	r.SetCurrentForTest("a")
	require.Equal(t, room.Accepted, send(g, r, "a", "开枪", "b").Verdict)
	assert.Equal(t, 1, g.Player("b").Health)
}

func TestItems_DoubleShot(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Live, Live, Blank)
	give(g, "a", DoubleShot)
	g.Player("b").Effects = EffectVest

	require.Equal(t, room.Accepted, send(g, r, "a", "使用连发", "").Verdict)
	out := send(g, r, "a", "开枪", "b")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Contains(t, out.Messages[0], "连发效果触发！")
	// 防弹衣只抵消第一枪
	assert.Equal(t, 2, g.Player("b").Health)
	assert.Equal(t, 2, g.Fired())
	assert.Len(t, g.history, 2)
}

func TestItems_DoubleShotWithoutAmmo(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Live)
	give(g, "a", DoubleShot)

	require.Equal(t, room.Accepted, send(g, r, "a", "使用连发", "").Verdict)
	out := send(g, r, "a", "开枪", "b")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Contains(t, out.Messages[0], "连发效果因子弹不足而失效！")
	assert.Equal(t, 2, g.Player("b").Health)
	assert.Equal(t, 2, r.Round)
}

func TestItems_SkipWithMention(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b", "c")
	load(g, Live, Live, Live)
	give(g, "a", Skip)

	out := send(g, r, "a", "使用跳过", "a")
	assert.Equal(t, room.Rejected, out.Verdict)

	out = send(g, r, "a", "使用跳过", "b")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Equal(t, "b", r.SkipNext())
	assert.Empty(t, g.Player("a").Items)

	require.Equal(t, room.Accepted, send(g, r, "a", "开枪", "c").Verdict)
	assert.Equal(t, "c", r.CurrentPlayer())
	assert.Empty(t, r.SkipNext())
}

func TestItems_SkipPendingRequest(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b", "c")
	give(g, "a", Skip)

	out := send(g, r, "a", "使用跳过", "")
	require.Equal(t, room.Accepted, out.Verdict)
	require.NotNil(t, r.Pending())
	assert.Equal(t, "a", r.Pending().PlayerID)
	assert.Equal(t, string(Skip), r.Pending().Kind)
	assert.Equal(t, []Item{Skip}, g.Player("a").Items)

	out = send(g, r, "a", "", "c")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Contains(t, out.Messages[0], "你对 c 使用了【跳过】道具")
	assert.Nil(t, r.Pending())
	assert.Equal(t, "c", r.SkipNext())
	assert.Empty(t, g.Player("a").Items)
	assert.Equal(t, 0, g.Fired())
}

func TestItems_PeekCommitsToRevealedShot(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	load(g, Live, Blank, Blank)
	give(g, "a", Peek)

	out := send(g, r, "a", "使用偷窥", "")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Contains(t, out.Messages[0], "🔴 实弹")
	assert.Len(t, g.Magazine(), 3)

	require.Equal(t, room.Accepted, send(g, r, "a", "开枪", "b").Verdict)
	assert.Equal(t, 2, g.Player("b").Health)
}

func TestItems_Grenade(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b", "c")
	give(g, "a", Grenade)
	give(g, "c", Medkit)
	g.Player("b").Effects = EffectShield
	g.Player("c").Health = 1

	out := send(g, r, "a", "使用手榴弹", "")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.False(t, out.Ended)
	assert.Equal(t, MaxHealth, g.Player("b").Health)
	assert.False(t, g.Player("b").Has(EffectShield))
	assert.True(t, r.IsEliminated("c"))
	assert.Empty(t, g.Player("c").Items)
	assert.Equal(t, MaxHealth, g.Player("a").Health)
	assert.Equal(t, "a", r.CurrentPlayer())
}

func TestItems_GrenadeCanEndGame(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	give(g, "a", Grenade)
	g.Player("b").Health = 1

	out := send(g, r, "a", "使用手榴弹", "")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.True(t, out.Ended)
	assert.Equal(t, []string{"a"}, out.Winners)
	assert.Equal(t, []string{"b"}, out.Losers)
}

func TestCommands_InventoryAndBoard(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")

	out := send(g, r, "b", "查看道具", "")
	assert.Equal(t, []string{"@b 你当前没有道具"}, out.Messages)

	give(g, "b", Shield)
	g.Player("b").Effects = EffectEvasion
	out = send(g, r, "b", "查看道具", "")
	assert.Equal(t, "@b 你当前拥有的道具:\n- 护盾", out.Messages[0])

	out = send(g, r, "a", "查看状态", "")
	require.Equal(t, room.Accepted, out.Verdict)
	assert.Contains(t, out.Messages[0], "【玩家状态】")
	assert.Contains(t, out.Messages[0], "b: ❤️❤️❤️ 👟")

	assert.Equal(t, room.NotApplicable, send(g, r, "outsider", "查看状态", "").Verdict)
}

func TestSummary_RecentShots(t *testing.T) {
	t.Parallel()

	g, r := newDuel(t, 0.9, "a", "b")
	assert.NotContains(t, g.Summary(r), "【最近开枪】")

	load(g, Blank, Live, Live, Live, Live)
	for range 4 {
		r.SetCurrentForTest("a")
		require.Equal(t, room.Accepted, send(g, r, "a", "开枪", "b").Verdict)
	}

	summary := g.Summary(r)
	assert.Contains(t, summary, "本回合剩余 1/5 发子弹")
	assert.Contains(t, summary, "【最近开枪】")
	assert.Contains(t, summary, "a → b  🔴 实弹  伤害 1")
	assert.NotContains(t, summary, "空包弹")
}
