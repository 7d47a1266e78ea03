package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/group-minigames/internal/config"
	"github.com/palemoky/group-minigames/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 重连退避
	minBackoff = time.Second
	maxBackoff = 30 * time.Second

	callTimeout = 10 * time.Second
	sendBuffer  = 256
)

var (
	ErrNotConnected = errors.New("onebot: 未连接")
	ErrSendBuffer   = errors.New("onebot: 发送缓冲区已满")
)

// Client OneBot v11 正向 WebSocket 客户端，断线后自动重连
type Client struct {
	url    string
	token  string
	selfID string

	send chan []byte

	// 事件回调，不在读协程中执行；同一群的事件按到达顺序串行回调
	OnEvent func(*Event)
	events  *lanes

	mu        sync.RWMutex
	connected bool

	pmu     sync.Mutex
	pending map[string]chan *Response
}

// NewClient 创建客户端
func NewClient(cfg config.OneBotConfig) *Client {
	return &Client{
		url:     cfg.URL,
		token:   cfg.AccessToken,
		selfID:  cfg.SelfID,
		send:    make(chan []byte, sendBuffer),
		events:  newLanes(),
		pending: make(map[string]chan *Response),
	}
}

// SelfID 机器人账号
func (c *Client) SelfID() string { return c.selfID }

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// Run 连接并处理消息，断线后按指数退避重连，直到 ctx 结束
func (c *Client) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			logger.LogWarn("🔌 连接 OneBot 失败: %v，%v 后重试", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = minBackoff
		logger.LogInfo("✅ 已连接 OneBot: %s", c.url)
		c.serve(ctx, conn)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.LogWarn("🔄 OneBot 连接已断开，准备重连")
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := dialer.DialContext(ctx, c.url, header)
	return conn, err
}

// serve 运行读写协程，连接断开后返回
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	c.setConnected(true)

	go c.writePump(conn, done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	c.readPump(conn)

	c.setConnected(false)
	close(done)
}

// readPump 读取事件与 API 响应
func (c *Client) readPump(conn *websocket.Conn) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.LogWarn("OneBot 连接异常关闭: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		c.processMessage(message)
	}
}

func (c *Client) processMessage(message []byte) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		logger.LogWarn("OneBot 消息解析错误: %v", err)
		return
	}

	switch {
	case f.Echo != "":
		var resp Response
		if err := json.Unmarshal(message, &resp); err != nil {
			logger.LogWarn("OneBot 响应解析错误: %v", err)
			return
		}
		c.resolve(&resp)
	case f.PostType != "":
		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil {
			logger.LogWarn("OneBot 事件解析错误: %v", err)
			return
		}
		if c.OnEvent != nil {
			c.events.push(laneKey(&ev), func() { c.dispatch(&ev) })
		}
	}
}

func (c *Client) dispatch(ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()
	c.OnEvent(ev)
}

func (c *Client) resolve(resp *Response) {
	c.pmu.Lock()
	ch, ok := c.pending[resp.Echo]
	delete(c.pending, resp.Echo)
	c.pmu.Unlock()

	if ok {
		ch <- resp
	}
}

// writePump 发送请求并定时 ping
func (c *Client) writePump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.LogWarn("OneBot 发送失败: %v", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

// Call 调用 API 并等待响应，echo 使用 UUID 关联
func (c *Client) Call(ctx context.Context, action string, params any) (*Response, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	echo := uuid.NewString()
	data, err := json.Marshal(Request{Action: action, Params: params, Echo: echo})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	ch := make(chan *Response, 1)
	c.pmu.Lock()
	c.pending[echo] = ch
	c.pmu.Unlock()
	defer func() {
		c.pmu.Lock()
		delete(c.pending, echo)
		c.pmu.Unlock()
	}()

	select {
	case c.send <- data:
	default:
		return nil, ErrSendBuffer
	}

	select {
	case resp := <-ch:
		if resp.Status == "failed" || resp.RetCode != 0 {
			return resp, fmt.Errorf("onebot: %s 调用失败 (retcode=%d): %s", action, resp.RetCode, resp.Message)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendGroupMessage 发送纯文本群消息
func (c *Client) SendGroupMessage(ctx context.Context, groupID, text string) error {
	gid, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return fmt.Errorf("无效的群号 %q: %w", groupID, err)
	}
	_, err = c.Call(ctx, "send_group_msg", map[string]any{
		"group_id":    gid,
		"message":     text,
		"auto_escape": true,
	})
	return err
}

// GetGroupMemberInfo 获取群成员信息
func (c *Client) GetGroupMemberInfo(ctx context.Context, groupID, userID string) (*MemberInfo, error) {
	gid, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("无效的群号 %q: %w", groupID, err)
	}
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("无效的 QQ 号 %q: %w", userID, err)
	}

	resp, err := c.Call(ctx, "get_group_member_info", map[string]any{
		"group_id": gid,
		"user_id":  uid,
		"no_cache": true,
	})
	if err != nil {
		return nil, err
	}

	var info MemberInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, fmt.Errorf("解析成员信息失败: %w", err)
	}
	return &info, nil
}

// MemberRole 返回成员在群内的角色
func (c *Client) MemberRole(ctx context.Context, groupID, userID string) (string, error) {
	info, err := c.GetGroupMemberInfo(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	return info.Role, nil
}

// Notify 向群发送消息，失败只记录日志
func (c *Client) Notify(ctx context.Context, contextID, text string) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := c.SendGroupMessage(ctx, contextID, text); err != nil {
		logger.LogError("📤 发送群消息失败 (群 %s): %v", contextID, err)
	}
}
