package onebot

import (
	"strconv"
	"sync"
)

// lanes 按 key 串行执行任务：同一群的事件按到达顺序处理，不同群之间互不阻塞。
// 每条 lane 在有任务时占用一个 goroutine，队列清空后退出
type lanes struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

type lane struct {
	tasks []func()
}

func newLanes() *lanes {
	return &lanes{lanes: make(map[string]*lane)}
}

// push 把任务追加到 key 对应的 lane
func (q *lanes) push(key string, task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if l, ok := q.lanes[key]; ok {
		l.tasks = append(l.tasks, task)
		return
	}
	l := &lane{tasks: []func(){task}}
	q.lanes[key] = l
	go q.drain(key, l)
}

func (q *lanes) drain(key string, l *lane) {
	for {
		q.mu.Lock()
		if len(l.tasks) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		q.mu.Unlock()

		task()
	}
}

// laneKey 群消息按群号排队，其余事件按用户排队
func laneKey(ev *Event) string {
	if ev.GroupID != 0 {
		return "g" + strconv.FormatInt(ev.GroupID, 10)
	}
	return "u" + strconv.FormatInt(ev.UserID, 10)
}
