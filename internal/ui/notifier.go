package ui

import (
	"context"
	"sync"
)

// BotMessage 机器人发到群里的一条消息
type BotMessage struct {
	ContextID string
	Text      string
}

// ChatNotifier 把机器人消息转交给界面，实现 room.Notifier
type ChatNotifier struct {
	out  chan BotMessage
	done chan struct{}
	once sync.Once
}

// NewChatNotifier 创建通知器
func NewChatNotifier(buffer int) *ChatNotifier {
	return &ChatNotifier{
		out:  make(chan BotMessage, buffer),
		done: make(chan struct{}),
	}
}

func (n *ChatNotifier) Notify(ctx context.Context, contextID, text string) {
	select {
	case n.out <- BotMessage{ContextID: contextID, Text: text}:
	case <-ctx.Done():
	case <-n.done:
	}
}

// Messages 返回消息通道
func (n *ChatNotifier) Messages() <-chan BotMessage {
	return n.out
}

// Close 界面退出后丢弃后续消息
func (n *ChatNotifier) Close() {
	n.once.Do(func() { close(n.done) })
}
