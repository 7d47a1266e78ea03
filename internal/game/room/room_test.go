package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game/draw"
)

// stubGame 可配置的游戏规则
type stubGame struct {
	maxPlayers int
	reveal     string
	starts     int
}

func (g *stubGame) Type() GameType { return NumberBomb }
func (g *stubGame) MaxPlayers() int {
	if g.maxPlayers == 0 {
		return 8
	}
	return g.maxPlayers
}
func (g *stubGame) Created(r *Room) string { return "created by " + r.Name(r.HostID) }
func (g *stubGame) Start(r *Room) string {
	g.starts++
	return "started"
}
func (g *stubGame) Reveal() string         { return g.reveal }
func (g *stubGame) Summary(r *Room) string { return "" }

// Handle: "ok" 接受，"bad" 拒绝，"win" 结束并判当前发言者胜，"target" 回显@目标
func (g *stubGame) Handle(r *Room, mv Move) Outcome {
	switch mv.Text {
	case "ok":
		return Accept("👍 " + mv.PlayerName)
	case "bad":
		return Reject(apperrors.ErrInvalidMove)
	case "win":
		out := Accept("🏆 " + mv.PlayerName)
		out.Ended = true
		out.Winners = []string{mv.PlayerID}
		for _, id := range r.Players() {
			if id != mv.PlayerID {
				out.Losers = append(out.Losers, id)
			}
		}
		return out
	case "target":
		return Accept("target=" + r.PendingTarget())
	}
	return Pass()
}

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// notifyLog 记录所有发出的消息
type notifyLog struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func (n *notifyLog) Notify(_ context.Context, contextID, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.msgs == nil {
		n.msgs = make(map[string][]string)
	}
	n.msgs[contextID] = append(n.msgs[contextID], text)
}

func (n *notifyLog) For(contextID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs[contextID]...)
}

func (n *notifyLog) Last(contextID string) string {
	msgs := n.For(contextID)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func newTestRoom(players ...string) *Room {
	return NewTestRoom(&stubGame{}, draw.Seeded(1, 2), players...)
}

func TestRoom_HostJoinsOnCreate(t *testing.T) {
	t.Parallel()

	r := newTestRoom("host")
	assert.Equal(t, []string{"host"}, r.Players())
	assert.True(t, r.IsHost("host"))
	assert.Equal(t, StatusWaiting, r.Status())
	assert.NotEmpty(t, r.ID)
}

func TestRoom_Join(t *testing.T) {
	t.Parallel()

	r := NewTestRoom(&stubGame{maxPlayers: 2}, draw.Seeded(1, 2), "a")

	require.NoError(t, r.join("b", "Bob"))
	assert.Equal(t, "Bob", r.Name("b"))

	assert.ErrorIs(t, r.join("b", "Bob"), apperrors.ErrAlreadyJoined)
	assert.ErrorIs(t, r.join("c", "Carol"), apperrors.ErrRoomFull)
	assert.Equal(t, 2, r.PlayerCount())

	require.NoError(t, r.start("a"))
	assert.ErrorIs(t, r.join("c", "Carol"), apperrors.ErrWrongPhase)
}

func TestRoom_Start(t *testing.T) {
	t.Parallel()

	r := newTestRoom("a")
	assert.ErrorIs(t, r.start("a"), apperrors.ErrNotEnoughPlayers)

	require.NoError(t, r.join("b", "b"))
	require.NoError(t, r.join("c", "c"))

	err := r.start("b")
	assert.ErrorIs(t, err, apperrors.ErrNotHost)
	assert.Equal(t, StatusWaiting, r.Status())

	require.NoError(t, r.start("a"))
	assert.Equal(t, StatusRunning, r.Status())
	assert.Equal(t, 1, r.Round)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, r.Players())

	assert.ErrorIs(t, r.start("a"), apperrors.ErrWrongPhase)
}

func TestRoom_AdvanceSkipsEliminated(t *testing.T) {
	t.Parallel()

	r := newTestRoom("a", "b", "c", "d")
	r.StartForTest()

	r.Eliminate("b")
	r.Eliminate("c")
	assert.Equal(t, "d", r.Advance())
	assert.Equal(t, "a", r.Advance())
	assert.Equal(t, "d", r.Advance())
}

func TestRoom_AdvanceConsumesSkipFlag(t *testing.T) {
	t.Parallel()

	r := newTestRoom("a", "b", "c")
	r.StartForTest()

	r.SetSkipNext("b")
	assert.Equal(t, "c", r.Advance())
	assert.Empty(t, r.SkipNext())

	// 标记已清除，下一圈正常轮到 b
	assert.Equal(t, "a", r.Advance())
	assert.Equal(t, "b", r.Advance())
}

func TestRoom_AdvanceSkipWithTwoPlayersKeepsTurn(t *testing.T) {
	t.Parallel()

	r := newTestRoom("a", "b")
	r.StartForTest()

	r.SetSkipNext("b")
	assert.Equal(t, "a", r.Advance())
	assert.Empty(t, r.SkipNext())
	assert.Equal(t, "b", r.Advance())
}

func TestRoom_AdvanceFallsBackToFirstAlive(t *testing.T) {
	t.Parallel()

	r := newTestRoom("a", "b", "c")
	r.StartForTest()

	r.Eliminate("a")
	r.Eliminate("b")
	r.Eliminate("c")
	// 所有人都被淘汰时不能死循环
	assert.NotPanics(t, func() { r.Advance() })
}

func TestRoom_AdvanceNeverSelectsEliminated(t *testing.T) {
	t.Parallel()

	rng := draw.Seeded(11, 13)
	players := []string{"a", "b", "c", "d", "e", "f"}

	for range 200 {
		r := newTestRoom(players...)
		r.StartForTest()

		// 随机淘汰最多 4 人，保证至少 2 人存活
		for range rng.IntN(5) {
			r.Eliminate(players[rng.IntN(len(players))])
		}
		if rng.IntN(2) == 0 {
			r.SetSkipNext(players[rng.IntN(len(players))])
		}
		if len(r.Alive()) < 2 {
			continue
		}

		for range 20 {
			next := r.Advance()
			assert.False(t, r.IsEliminated(next), "selected eliminated player %s", next)
		}
	}
}

func TestRoom_EliminateIsOrderedAndIdempotent(t *testing.T) {
	t.Parallel()

	r := newTestRoom("a", "b", "c")
	r.Eliminate("c")
	r.Eliminate("a")
	r.Eliminate("c")

	assert.Equal(t, []string{"c", "a"}, r.Eliminated())
	assert.Equal(t, []string{"b"}, r.Alive())
}

func TestRoom_StopSupervisorOnce(t *testing.T) {
	t.Parallel()

	r := newTestRoom("a")
	calls := 0
	r.cancel = func() { calls++ }

	r.end(ReasonStop)
	r.end(ReasonTimeout)
	r.stopSupervisor()

	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusEnded, r.Status())
	assert.Equal(t, ReasonStop, r.endReason)
}

func TestGameType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "恶魔轮盘", EliminationDuel.String())
	assert.Equal(t, "number_bomb", NumberBomb.Key())
	assert.Equal(t, "未知游戏", GameType(42).String())
	assert.Len(t, GameTypes(), 5)
}
