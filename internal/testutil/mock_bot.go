//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/group-minigames/internal/game/room"
)

// MockEngine 房间管理器 mock
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) CreateGame(ctx context.Context, contextID, hostID, hostName string, t room.GameType, params []string) error {
	args := m.Called(ctx, contextID, hostID, hostName, t, params)
	return args.Error(0)
}

func (m *MockEngine) StopGame(ctx context.Context, contextID, callerID string) error {
	args := m.Called(ctx, contextID, callerID)
	return args.Error(0)
}

func (m *MockEngine) RoomMessage(ctx context.Context, contextID, playerID, playerName, text string, mentions []string) error {
	args := m.Called(ctx, contextID, playerID, playerName, text, mentions)
	return args.Error(0)
}

func (m *MockEngine) ShowRules(t room.GameType) string {
	args := m.Called(t)
	return args.String(0)
}

func (m *MockEngine) ShowStatus(contextID string) (string, error) {
	args := m.Called(contextID)
	return args.String(0), args.Error(1)
}

// MockMemberFetcher 群成员角色查询 mock
type MockMemberFetcher struct {
	mock.Mock
}

func (m *MockMemberFetcher) MemberRole(ctx context.Context, groupID, userID string) (string, error) {
	args := m.Called(ctx, groupID, userID)
	return args.String(0), args.Error(1)
}
