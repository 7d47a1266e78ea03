// Package storage 对局结果与排行榜的 Redis 存储
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/group-minigames/internal/game/room"
)

const (
	// Redis key
	playerStatsKey   = "gm:stats:"
	leaderboardKey   = "gm:leaderboard:"
	globalBoardKey   = "gm:leaderboard:all"
	recentResultsKey = "gm:results:"

	recentLimit = 20
)

// 积分规则
const (
	WinScore  = 10
	LoseScore = -5

	// 连胜加成
	StreakBonus3  = 2
	StreakBonus5  = 5
	StreakBonus10 = 10
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`

	// 按游戏类型统计场次
	Games map[string]int `json:"games,omitempty"`

	Score int `json:"score"`

	// 连胜/连败
	CurrentStreak int `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// WinRate 胜率（百分比）
func (s *PlayerStats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalGames) * 100
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// ResultStore 对局结果存储，实现 room.Recorder
type ResultStore struct {
	redis *redis.Client
	now   func() time.Time
}

// NewResultStore 创建结果存储
func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{redis: client, now: time.Now}
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (s *ResultStore) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := s.redis.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化玩家统计失败: %w", err)
	}
	return &stats, nil
}

func (s *ResultStore) getOrCreateStats(ctx context.Context, playerID, playerName string) (*PlayerStats, error) {
	stats, err := s.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PlayerStats{PlayerID: playerID, CreatedAt: s.now().Unix()}
	}
	stats.PlayerName = playerName
	return stats, nil
}

// updateWinLossStats 更新胜负统计和连胜/连败，返回积分变化
func updateWinLossStats(stats *PlayerStats, isWinner bool) int {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}
	stats.MaxWinStreak = max(stats.MaxWinStreak, stats.CurrentStreak)

	if !isWinner {
		return LoseScore
	}
	return WinScore + calculateStreakBonus(stats.CurrentStreak)
}

func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordResult 记录一局结果：更新胜负双方的统计、群排行榜、总排行榜和最近对局
func (s *ResultStore) RecordResult(ctx context.Context, res room.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("序列化对局结果失败: %w", err)
	}

	pipe := s.redis.TxPipeline()
	for _, id := range slices.Concat(res.Winners, res.Losers) {
		stats, err := s.getOrCreateStats(ctx, id, res.Names[id])
		if err != nil {
			return fmt.Errorf("读取玩家统计失败: %w", err)
		}

		stats.TotalGames++
		stats.LastPlayedAt = res.EndedAt.Unix()
		if stats.Games == nil {
			stats.Games = make(map[string]int)
		}
		stats.Games[res.GameType.Key()]++
		change := updateWinLossStats(stats, slices.Contains(res.Winners, id))
		stats.Score = max(0, stats.Score+change)

		raw, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("序列化玩家统计失败: %w", err)
		}
		pipe.Set(ctx, playerStatsKey+id, raw, 0)
		pipe.ZAdd(ctx, globalBoardKey, redis.Z{Score: float64(stats.Score), Member: id})
		pipe.ZIncrBy(ctx, leaderboardKey+res.ContextID, float64(change), id)
	}

	recentKey := recentResultsKey + res.ContextID
	pipe.LPush(ctx, recentKey, data)
	pipe.LTrim(ctx, recentKey, 0, recentLimit-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入对局结果失败: %w", err)
	}
	return nil
}

// GetLeaderboard 获取排行榜；contextID 为空时返回总排行榜
func (s *ResultStore) GetLeaderboard(ctx context.Context, contextID string, limit int) ([]LeaderboardEntry, error) {
	key := globalBoardKey
	if contextID != "" {
		key = leaderboardKey + contextID
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for _, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := s.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:       len(entries) + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			WinRate:    stats.WinRate(),
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家在总排行榜的排名，未上榜返回 -1
func (s *ResultStore) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := s.redis.ZRevRank(ctx, globalBoardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}

// RecentResults 获取群内最近的对局结果，最新的在前
func (s *ResultStore) RecentResults(ctx context.Context, contextID string, n int) ([]room.Result, error) {
	raw, err := s.redis.LRange(ctx, recentResultsKey+contextID, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]room.Result, 0, len(raw))
	for _, item := range raw {
		var res room.Result
		if err := json.Unmarshal([]byte(item), &res); err != nil {
			return nil, fmt.Errorf("反序列化对局结果失败: %w", err)
		}
		results = append(results, res)
	}
	return results, nil
}
