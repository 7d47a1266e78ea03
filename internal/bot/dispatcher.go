// Package bot 把群消息分类为游戏命令或房间消息，交给房间管理器处理
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/game"
	"github.com/palemoky/group-minigames/internal/game/room"
	"github.com/palemoky/group-minigames/internal/logger"
	"github.com/palemoky/group-minigames/internal/onebot"
	"github.com/palemoky/group-minigames/internal/storage"
)

const (
	rankLimit   = 10
	recentLimit = 3
)

// Engine 房间管理器，由 room.Manager 实现
type Engine interface {
	CreateGame(ctx context.Context, contextID, hostID, hostName string, t room.GameType, params []string) error
	StopGame(ctx context.Context, contextID, callerID string) error
	RoomMessage(ctx context.Context, contextID, playerID, playerName, text string, mentions []string) error
	ShowRules(t room.GameType) string
	ShowStatus(contextID string) (string, error)
}

// Leaderboard 排行榜查询，由 storage.ResultStore 实现
type Leaderboard interface {
	GetLeaderboard(ctx context.Context, contextID string, limit int) ([]storage.LeaderboardEntry, error)
	GetPlayerRank(ctx context.Context, playerID string) (int64, error)
	RecentResults(ctx context.Context, contextID string, n int) ([]room.Result, error)
}

// ChatLimiter 用户消息限流
type ChatLimiter interface {
	Allow(userID string) (allowed, warn bool)
}

// GroupMessage 一条已解析的群消息
type GroupMessage struct {
	ContextID string
	UserID    string
	UserName  string
	Text      string
	Mentions  []string
}

// FromEvent 把 OneBot 事件转换为群消息，非群消息返回 false。
// selfID 未配置时使用事件携带的机器人账号
func FromEvent(ev *onebot.Event, selfID string) (GroupMessage, bool) {
	if !ev.IsGroupMessage() || ev.GroupID == 0 {
		return GroupMessage{}, false
	}
	if selfID == "" && ev.SelfID != 0 {
		selfID = strconv.FormatInt(ev.SelfID, 10)
	}
	userID := strconv.FormatInt(ev.UserID, 10)
	if userID == selfID {
		return GroupMessage{}, false
	}

	text, mentions := onebot.ParseMessage(ev.RawMessage, selfID)
	return GroupMessage{
		ContextID: strconv.FormatInt(ev.GroupID, 10),
		UserID:    userID,
		UserName:  ev.Sender.DisplayName(),
		Text:      text,
		Mentions:  mentions,
	}, true
}

// Dispatcher 群消息分发器
type Dispatcher struct {
	engine   Engine
	board    Leaderboard
	notifier room.Notifier
	limiter  ChatLimiter
	prefix   string
}

// NewDispatcher 创建分发器，board 和 limiter 可以为 nil
func NewDispatcher(engine Engine, board Leaderboard, notifier room.Notifier, limiter ChatLimiter, prefix string) *Dispatcher {
	if prefix == "" {
		prefix = "/game"
	}
	return &Dispatcher{
		engine:   engine,
		board:    board,
		notifier: notifier,
		limiter:  limiter,
		prefix:   prefix,
	}
}

// Handle 处理一条群消息
func (d *Dispatcher) Handle(ctx context.Context, msg GroupMessage) {
	args, isCommand := d.parseCommand(msg.Text)

	if d.limiter != nil {
		if allowed, warn := d.limiter.Allow(msg.UserID); !allowed {
			if warn && isCommand {
				d.reply(ctx, msg, apperrors.ErrRateLimited.Error())
			}
			return
		}
	}

	if isCommand {
		d.handleCommand(ctx, msg, args)
		return
	}

	err := d.engine.RoomMessage(ctx, msg.ContextID, msg.UserID, msg.UserName, msg.Text, msg.Mentions)
	if err != nil && !errors.Is(err, apperrors.ErrNoActiveRoom) {
		d.fail(ctx, msg, err)
	}
}

// parseCommand 识别「/game xxx」，返回前缀后的参数
func (d *Dispatcher) parseCommand(text string) ([]string, bool) {
	rest, ok := strings.CutPrefix(text, d.prefix)
	if !ok {
		return nil, false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return nil, false
	}
	return strings.Fields(rest), true
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg GroupMessage, args []string) {
	if len(args) == 0 {
		d.send(ctx, msg.ContextID, d.help())
		return
	}

	logger.LogInfo("🎮 群 %s 用户 %s(%s) 执行命令: %s", msg.ContextID, msg.UserName, msg.UserID, strings.Join(args, " "))

	action, params := strings.ToLower(args[0]), args[1:]
	switch action {
	case "start", "开始":
		d.start(ctx, msg, params)
	case "stop", "停止":
		if err := d.engine.StopGame(ctx, msg.ContextID, msg.UserID); err != nil {
			d.fail(ctx, msg, err)
		}
	case "status", "状态":
		status, err := d.engine.ShowStatus(msg.ContextID)
		if err != nil {
			d.fail(ctx, msg, err)
			return
		}
		d.send(ctx, msg.ContextID, status)
	case "rules", "规则":
		d.rules(ctx, msg, params)
	case "rank", "排行":
		d.rank(ctx, msg)
	default:
		d.send(ctx, msg.ContextID, d.help())
	}
}

func (d *Dispatcher) start(ctx context.Context, msg GroupMessage, params []string) {
	if len(params) == 0 {
		d.reply(ctx, msg, fmt.Sprintf("请指定游戏类型: %s start <游戏名>\n可用的游戏类型: %s", d.prefix, game.Names()))
		return
	}

	t, err := game.Parse(params[0])
	if err != nil {
		d.fail(ctx, msg, err)
		return
	}
	if err := d.engine.CreateGame(ctx, msg.ContextID, msg.UserID, msg.UserName, t, params[1:]); err != nil {
		d.fail(ctx, msg, err)
	}
}

func (d *Dispatcher) rules(ctx context.Context, msg GroupMessage, params []string) {
	if len(params) == 0 {
		d.reply(ctx, msg, fmt.Sprintf("请指定游戏类型: %s rules <游戏名>\n可用的游戏类型: %s", d.prefix, game.Names()))
		return
	}

	t, err := game.Parse(params[0])
	if err != nil {
		d.reply(ctx, msg, "未找到该游戏类型的规则\n可用的游戏类型: "+game.Names())
		return
	}
	d.send(ctx, msg.ContextID, d.engine.ShowRules(t))
}

func (d *Dispatcher) rank(ctx context.Context, msg GroupMessage) {
	if d.board == nil {
		d.reply(ctx, msg, "排行榜未启用")
		return
	}

	entries, err := d.board.GetLeaderboard(ctx, msg.ContextID, rankLimit)
	if err != nil {
		logger.LogError("获取群 %s 排行榜失败: %v", msg.ContextID, err)
		d.reply(ctx, msg, "获取排行榜失败，请稍后再试")
		return
	}
	if len(entries) == 0 {
		d.send(ctx, msg.ContextID, "暂无排行数据，快来玩一局吧！")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 本群小游戏排行榜 TOP%d 📊", rankLimit)
	for _, e := range entries {
		medal := strconv.Itoa(e.Rank) + "."
		switch e.Rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}
		fmt.Fprintf(&b, "\n%s %s  积分 %d  胜场 %d  胜率 %.0f%%", medal, e.PlayerName, e.Score, e.Wins, e.WinRate)
	}

	if rank, err := d.board.GetPlayerRank(ctx, msg.UserID); err != nil {
		logger.LogWarn("获取玩家 %s 总排名失败: %v", msg.UserID, err)
	} else if rank > 0 {
		fmt.Fprintf(&b, "\n\n%s 的全服排名: 第 %d 名", msg.UserName, rank)
	}

	recent, err := d.board.RecentResults(ctx, msg.ContextID, recentLimit)
	if err != nil {
		logger.LogWarn("获取群 %s 最近对局失败: %v", msg.ContextID, err)
	}
	if len(recent) > 0 {
		b.WriteString("\n\n🕹️ 最近对局")
		for _, res := range recent {
			fmt.Fprintf(&b, "\n%s  胜者: %s", res.GameType, winnerNames(res))
		}
	}
	d.send(ctx, msg.ContextID, b.String())
}

func winnerNames(res room.Result) string {
	if len(res.Winners) == 0 {
		return "无"
	}
	names := make([]string, len(res.Winners))
	for i, id := range res.Winners {
		names[i] = res.Names[id]
		if names[i] == "" {
			names[i] = id
		}
	}
	return strings.Join(names, "、")
}

func (d *Dispatcher) help() string {
	return fmt.Sprintf("🎮 群小游戏\n"+
		"%[1]s start <游戏名> [参数] - 创建游戏\n"+
		"%[1]s stop - 停止当前游戏\n"+
		"%[1]s status - 查看房间状态\n"+
		"%[1]s rules <游戏名> - 查看游戏规则\n"+
		"%[1]s rank - 查看本群排行榜\n"+
		"可用的游戏类型: %[2]s\n"+
		"创建后发送「%[3]s」参与，房主发送「%[4]s」开局",
		d.prefix, game.Names(), room.JoinKeyword, room.StartKeyword)
}

// fail 回复命令错误
func (d *Dispatcher) fail(ctx context.Context, msg GroupMessage, err error) {
	logger.LogDebug("群 %s 用户 %s 操作失败 [%d]: %v", msg.ContextID, msg.UserID, apperrors.Code(err), err)
	d.reply(ctx, msg, err.Error())
}

func (d *Dispatcher) reply(ctx context.Context, msg GroupMessage, text string) {
	d.send(ctx, msg.ContextID, "@"+msg.UserName+" "+text)
}

func (d *Dispatcher) send(ctx context.Context, contextID, text string) {
	d.notifier.Notify(ctx, contextID, text)
}
