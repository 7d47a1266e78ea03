// Package ui 本地模拟群聊的终端界面，用同一套引擎调试小游戏
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/group-minigames/internal/bot"
)

const (
	headerHeight = 2
	footerHeight = 4
)

// Handler 处理群消息，由 bot.Dispatcher 实现
type Handler interface {
	Handle(ctx context.Context, msg bot.GroupMessage)
}

// Model 模拟群聊
type Model struct {
	handler   Handler
	incoming  <-chan BotMessage
	contextID string
	speaker   string

	lines    []string
	input    textinput.Model
	viewport viewport.Model
	ready    bool
	width    int
}

// NewModel 创建模拟群聊
func NewModel(handler Handler, incoming <-chan BotMessage, contextID string) *Model {
	ti := textinput.New()
	ti.Placeholder = "alice: /game start 恶魔轮盘"
	ti.CharLimit = 200
	ti.Width = 60
	ti.Prompt = "💬 "
	ti.Focus()

	m := &Model{
		handler:   handler,
		incoming:  incoming,
		contextID: contextID,
		input:     ti,
		viewport:  viewport.New(80, 20),
	}
	m.system("输入「名字: 消息」模拟群成员发言，@名字 表示提及；/as 名字 切换默认发言人，Esc 退出")
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen())
}

// listen 等待下一条机器人消息
func (m *Model) listen() tea.Cmd {
	incoming := m.incoming
	return func() tea.Msg {
		msg, ok := <-incoming
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 3)
		m.input.Width = max(msg.Width-8, 10)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case BotMessage:
		if msg.ContextID == m.contextID {
			m.bot(msg.Text)
		}
		return m, m.listen()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit 解析输入框内容并交给机器人
func (m *Model) submit() tea.Cmd {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" {
		return nil
	}

	if line == "/quit" {
		return tea.Quit
	}
	if name, ok := strings.CutPrefix(line, "/as "); ok {
		m.speaker = strings.TrimSpace(name)
		m.system("默认发言人: " + m.speaker)
		return nil
	}

	user, text, mentions, ok := ParseLine(line, m.speaker)
	if !ok {
		m.warn("格式: 名字: 消息（或先用 /as 名字 设置默认发言人）")
		return nil
	}
	m.speaker = user
	m.say(user, text, mentions)

	handler := m.handler
	gm := bot.GroupMessage{ContextID: m.contextID, UserID: user, UserName: user, Text: text, Mentions: mentions}
	return func() tea.Msg {
		handler.Handle(context.Background(), gm)
		return nil
	}
}

func (m *Model) say(user, text string, mentions []string) {
	var b strings.Builder
	b.WriteString(speakerStyle.Render(user) + ": " + text)
	for _, target := range mentions {
		b.WriteString(" " + speakerStyle.Render("@"+target))
	}
	m.append(b.String())
}

func (m *Model) bot(text string) {
	body := strings.ReplaceAll(text, "\n", "\n   ")
	m.append(botStyle.Render("🤖 " + body))
}

func (m *Model) system(text string) {
	m.append(systemStyle.Render("· " + text))
}

func (m *Model) warn(text string) {
	m.append(errorStyle.Render("⚠️ " + text))
}

func (m *Model) append(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	if !m.ready {
		return "加载中..."
	}

	speaker := m.speaker
	if speaker == "" {
		speaker = "未设置"
	}
	header := titleStyle(fmt.Sprintf("🎮 群小游戏模拟器 · 群 %s", m.contextID))
	footer := helpStyle.Render(fmt.Sprintf("默认发言人: %s · Enter 发送 · PgUp/PgDn 翻页 · Esc 退出", speaker))

	return docStyle.Render(header + "\n" +
		boxStyle.Width(m.width-4).Render(m.viewport.View()) + "\n" +
		m.input.View() + "\n" + footer)
}
