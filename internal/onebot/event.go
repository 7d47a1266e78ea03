// Package onebot OneBot v11 正向 WebSocket 客户端
package onebot

import (
	"encoding/json"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Sender 消息发送者
type Sender struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
	Role     string `json:"role"` // owner / admin / member
}

// DisplayName 群名片优先，其次昵称
func (s Sender) DisplayName() string {
	if s.Card != "" {
		return s.Card
	}
	if s.Nickname != "" {
		return s.Nickname
	}
	return strconv.FormatInt(s.UserID, 10)
}

// Event 上报事件，只解析群消息需要的字段
type Event struct {
	Time        int64  `json:"time"`
	SelfID      int64  `json:"self_id"`
	PostType    string `json:"post_type"`
	MessageType string `json:"message_type"`
	SubType     string `json:"sub_type"`
	MessageID   int64  `json:"message_id"`
	GroupID     int64  `json:"group_id"`
	UserID      int64  `json:"user_id"`
	RawMessage  string `json:"raw_message"`
	Sender      Sender `json:"sender"`
}

// IsGroupMessage 是否为群消息
func (e *Event) IsGroupMessage() bool {
	return e.PostType == "message" && e.MessageType == "group"
}

// Request API 调用
type Request struct {
	Action string `json:"action"`
	Params any    `json:"params"`
	Echo   string `json:"echo"`
}

// Response API 调用结果
type Response struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
	Echo    string          `json:"echo"`
}

// MemberInfo get_group_member_info 返回的成员信息
type MemberInfo struct {
	GroupID  int64  `json:"group_id"`
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
	Role     string `json:"role"`
}

// frame 用于区分事件与 API 响应
type frame struct {
	PostType string `json:"post_type"`
	Echo     string `json:"echo"`
}

var (
	atPattern = regexp.MustCompile(`\[CQ:at,qq=(\d+|all)[^\]]*\]`)
	cqPattern = regexp.MustCompile(`\[CQ:[^\]]*\]`)

	unescaper = strings.NewReplacer("&#91;", "[", "&#93;", "]", "&#44;", ",", "&amp;", "&")
)

// ParseMessage 从 CQ 码消息中提取纯文本与被@的用户（按出现顺序，去重，忽略 @全体 和 selfID）
func ParseMessage(raw, selfID string) (string, []string) {
	var mentions []string
	for _, m := range atPattern.FindAllStringSubmatch(raw, -1) {
		id := m[1]
		if id == "all" || id == selfID {
			continue
		}
		if !slices.Contains(mentions, id) {
			mentions = append(mentions, id)
		}
	}

	text := cqPattern.ReplaceAllString(raw, " ")
	text = unescaper.Replace(text)
	return strings.Join(strings.Fields(text), " "), mentions
}

// MentionsSelf 消息是否@了机器人
func MentionsSelf(raw, selfID string) bool {
	if selfID == "" {
		return false
	}
	for _, m := range atPattern.FindAllStringSubmatch(raw, -1) {
		if m[1] == selfID {
			return true
		}
	}
	return false
}
