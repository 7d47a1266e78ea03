// Package game 游戏类型注册表：名称解析、规则说明与游戏构造
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/palemoky/group-minigames/internal/apperrors"
	"github.com/palemoky/group-minigames/internal/config"
	"github.com/palemoky/group-minigames/internal/game/bomb"
	"github.com/palemoky/group-minigames/internal/game/chain"
	"github.com/palemoky/group-minigames/internal/game/draw"
	"github.com/palemoky/group-minigames/internal/game/duel"
	"github.com/palemoky/group-minigames/internal/game/guess"
	"github.com/palemoky/group-minigames/internal/game/room"
)

var aliases = map[string]room.GameType{
	"成语接龙": room.ChainIdiom,
	"文字接龙": room.ChainWord,
	"词语接龙": room.ChainWord,
	"猜词":   room.WordGuess,
	"猜词游戏": room.WordGuess,
	"数字炸弹": room.NumberBomb,
	"恶魔轮盘": room.EliminationDuel,
	"轮盘":   room.EliminationDuel,
}

// Parse 解析游戏名称，支持中文名、别名与英文 key
func Parse(name string) (room.GameType, error) {
	name = strings.TrimSpace(name)
	if t, ok := aliases[name]; ok {
		return t, nil
	}
	for _, t := range room.GameTypes() {
		if strings.EqualFold(name, t.Key()) {
			return t, nil
		}
	}
	return 0, apperrors.Hint(apperrors.ErrUnknownGame,
		fmt.Sprintf("未知的游戏类型: %s\n可用的游戏类型: %s", name, Names()))
}

// Names 返回所有游戏名称
func Names() string {
	names := make([]string, 0, len(room.GameTypes()))
	for _, t := range room.GameTypes() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

// Registry 按配置创建游戏，实现 room.Catalog
type Registry struct {
	maxPlayers     int
	duelMaxPlayers int
	pendingTTL     time.Duration
}

// NewRegistry 创建注册表
func NewRegistry(cfg config.GameConfig) *Registry {
	return &Registry{
		maxPlayers:     cfg.MaxPlayers,
		duelMaxPlayers: cfg.DuelMaxPlayers,
		pendingTTL:     cfg.PendingTimeoutDuration(),
	}
}

func (reg *Registry) New(t room.GameType, params []string, rng draw.Source) (room.Game, error) {
	switch t {
	case room.ChainIdiom:
		return chain.New(chain.Idiom, reg.maxPlayers, Idioms, rng), nil
	case room.ChainWord:
		return chain.New(chain.Word, reg.maxPlayers, ChainWords, rng), nil
	case room.WordGuess:
		return guess.New(reg.maxPlayers, GuessWords, rng), nil
	case room.NumberBomb:
		lo, hi := bomb.ParseRange(params)
		return bomb.New(reg.maxPlayers, lo, hi, rng), nil
	case room.EliminationDuel:
		return duel.New(reg.duelMaxPlayers, reg.pendingTTL), nil
	}
	return nil, apperrors.Hint(apperrors.ErrUnknownGame,
		fmt.Sprintf("未知的游戏类型: %d\n可用的游戏类型: %s", t, Names()))
}
