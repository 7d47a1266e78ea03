package onebot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/group-minigames/internal/config"
)

// fakeOneBot 模拟 OneBot 实现端：记录收到的请求并按 echo 回复
type fakeOneBot struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	requests []Request
	auth     []string
	conns    []*websocket.Conn
	retcode  int
	data     any
}

func newFakeOneBot(t *testing.T) (*fakeOneBot, *httptest.Server) {
	t.Helper()
	f := &fakeOneBot{}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOneBot) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.conns = append(f.conns, conn)
	f.mu.Unlock()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		retcode, data := f.retcode, f.data
		f.mu.Unlock()

		raw, _ := json.Marshal(data)
		status := "ok"
		if retcode != 0 {
			status = "failed"
		}
		resp, _ := json.Marshal(Response{Status: status, RetCode: retcode, Data: raw, Echo: req.Echo})
		f.mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, resp)
		f.mu.Unlock()
	}
}

func (f *fakeOneBot) push(v any) {
	data, _ := json.Marshal(v)
	f.mu.Lock()
	defer f.mu.Unlock()
	conn := f.conns[len(f.conns)-1]
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (f *fakeOneBot) dropAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		_ = c.Close()
	}
}

func (f *fakeOneBot) connCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

func (f *fakeOneBot) lastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func startClient(t *testing.T, srv *httptest.Server) (*Client, context.CancelFunc) {
	t.Helper()
	c := NewClient(config.OneBotConfig{
		URL:         "ws" + strings.TrimPrefix(srv.URL, "http"),
		AccessToken: "secret",
		SelfID:      "999",
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	t.Cleanup(cancel)

	require.Eventually(t, c.IsConnected, 2*time.Second, 10*time.Millisecond)
	return c, cancel
}

func TestClient_SendGroupMessage(t *testing.T) {
	t.Parallel()

	f, srv := newFakeOneBot(t)
	c, _ := startClient(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.SendGroupMessage(ctx, "12345", "你好"))

	req := f.lastRequest()
	assert.Equal(t, "send_group_msg", req.Action)
	assert.NotEmpty(t, req.Echo)
	params := req.Params.(map[string]any)
	assert.InDelta(t, 12345, params["group_id"], 0)
	assert.Equal(t, "你好", params["message"])
	assert.Equal(t, true, params["auto_escape"])

	f.mu.Lock()
	assert.Equal(t, "Bearer secret", f.auth[0])
	f.mu.Unlock()
}

func TestClient_CallFailure(t *testing.T) {
	t.Parallel()

	f, srv := newFakeOneBot(t)
	f.retcode = 100
	c, _ := startClient(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.SendGroupMessage(ctx, "12345", "hi")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retcode=100")

	assert.Error(t, c.SendGroupMessage(ctx, "not-a-group", "hi"))
}

func TestClient_GetGroupMemberInfo(t *testing.T) {
	t.Parallel()

	f, srv := newFakeOneBot(t)
	f.data = MemberInfo{GroupID: 12345, UserID: 10001, Nickname: "群主", Role: "owner"}
	c, _ := startClient(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	role, err := c.MemberRole(ctx, "12345", "10001")
	require.NoError(t, err)
	assert.Equal(t, "owner", role)
	assert.Equal(t, "get_group_member_info", f.lastRequest().Action)
}

func TestClient_DeliversEvents(t *testing.T) {
	t.Parallel()

	f, srv := newFakeOneBot(t)
	c := NewClient(config.OneBotConfig{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	events := make(chan *Event, 1)
	c.OnEvent = func(ev *Event) { events <- ev }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()
	require.Eventually(t, func() bool { return f.connCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.push(map[string]any{
		"post_type":    "message",
		"message_type": "group",
		"group_id":     12345,
		"user_id":      10001,
		"raw_message":  "加入游戏",
		"sender":       map[string]any{"user_id": 10001, "nickname": "小明"},
	})

	select {
	case ev := <-events:
		assert.True(t, ev.IsGroupMessage())
		assert.Equal(t, int64(12345), ev.GroupID)
		assert.Equal(t, "小明", ev.Sender.DisplayName())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestClient_Reconnects(t *testing.T) {
	t.Parallel()

	f, srv := newFakeOneBot(t)
	c, _ := startClient(t, srv)

	f.dropAll()
	require.Eventually(t, func() bool { return f.connCount() == 2 && c.IsConnected() }, 5*time.Second, 20*time.Millisecond)
}

func TestClient_NotConnected(t *testing.T) {
	t.Parallel()

	c := NewClient(config.OneBotConfig{URL: "ws://127.0.0.1:1"})
	err := c.SendGroupMessage(context.Background(), "1", "hi")
	assert.ErrorIs(t, err, ErrNotConnected)
}
