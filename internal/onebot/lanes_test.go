package onebot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/group-minigames/internal/config"
)

func TestLanes_PreservesOrderPerKey(t *testing.T) {
	t.Parallel()

	q := newLanes()
	var (
		mu   sync.Mutex
		got  []int
		wg   sync.WaitGroup
		want []int
	)
	for i := range 200 {
		want = append(want, i)
		wg.Add(1)
		q.push("g1", func() {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, want, got)
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.lanes) == 0
	}, time.Second, 5*time.Millisecond, "idle lanes are released")
}

func TestLanes_KeysDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	q := newLanes()
	release := make(chan struct{})
	done := make(chan struct{})

	q.push("g1", func() { <-release })
	q.push("g2", func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("g2 blocked behind g1")
	}
	close(release)
}

func TestLaneKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "g12345", laneKey(&Event{GroupID: 12345, UserID: 1}))
	assert.Equal(t, "u10001", laneKey(&Event{UserID: 10001}))
}

func TestClient_EventsInOrderPerGroup(t *testing.T) {
	t.Parallel()

	f, srv := newFakeOneBot(t)
	c := NewClient(config.OneBotConfig{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})

	const n = 50
	events := make(chan int64, n)
	c.OnEvent = func(ev *Event) {
		// 慢回调放大乱序的可能
		time.Sleep(time.Millisecond)
		events <- ev.MessageID
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()
	require.Eventually(t, func() bool { return f.connCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	for i := range n {
		f.push(map[string]any{
			"post_type":    "message",
			"message_type": "group",
			"message_id":   i,
			"group_id":     12345,
			"user_id":      10001,
			"raw_message":  "开枪",
		})
	}

	for i := range n {
		select {
		case id := <-events:
			require.Equal(t, int64(i), id)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}
