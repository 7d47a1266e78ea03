//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/group-minigames/internal/game/room"
	"github.com/palemoky/group-minigames/internal/storage"
)

// MockLeaderboard 排行榜 mock
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) GetLeaderboard(ctx context.Context, contextID string, limit int) ([]storage.LeaderboardEntry, error) {
	args := m.Called(ctx, contextID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboard) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	args := m.Called(ctx, playerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeaderboard) RecentResults(ctx context.Context, contextID string, n int) ([]room.Result, error) {
	args := m.Called(ctx, contextID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]room.Result), args.Error(1)
}
