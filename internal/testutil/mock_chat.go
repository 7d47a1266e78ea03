//go:build !production

package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockChatLimiter 聊天限制器 mock
type MockChatLimiter struct {
	mock.Mock
}

func (m *MockChatLimiter) Allow(userID string) (allowed, warn bool) {
	args := m.Called(userID)
	return args.Bool(0), args.Bool(1)
}

// Notice 一条发出的群消息
type Notice struct {
	ContextID string
	Text      string
}

// RecordingNotifier 记录所有发出的消息，实现 room.Notifier
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *RecordingNotifier) Notify(_ context.Context, contextID, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{ContextID: contextID, Text: text})
}

// For 返回发往某个群的所有消息
func (n *RecordingNotifier) For(contextID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, no := range n.notices {
		if no.ContextID == contextID {
			out = append(out, no.Text)
		}
	}
	return out
}

// Last 返回发往某个群的最后一条消息
func (n *RecordingNotifier) Last(contextID string) string {
	msgs := n.For(contextID)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// All 返回全部消息
func (n *RecordingNotifier) All() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.notices)
}

// Reset 清空记录
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	n.notices = nil
	n.mu.Unlock()
}
