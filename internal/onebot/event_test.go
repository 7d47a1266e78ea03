package onebot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		raw          string
		wantText     string
		wantMentions []string
	}{
		{"plain", "加入游戏", "加入游戏", nil},
		{"fire with mention", "开枪 [CQ:at,qq=10002]", "开枪", []string{"10002"}},
		{"mention only", "[CQ:at,qq=10002,name=小明]", "", []string{"10002"}},
		{"self and all ignored", "[CQ:at,qq=999] [CQ:at,qq=all] 使用跳过 [CQ:at,qq=10003]", "使用跳过", []string{"10003"}},
		{"dedup keeps order", "[CQ:at,qq=3][CQ:at,qq=1][CQ:at,qq=3]", "", []string{"3", "1"}},
		{"other codes stripped", "[CQ:reply,id=123]猜 [CQ:face,id=1] 一下", "猜 一下", nil},
		{"unescape", "&#91;成语&#93; a&amp;b", "[成语] a&b", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			text, mentions := ParseMessage(tt.raw, "999")
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantMentions, mentions)
		})
	}
}

func TestMentionsSelf(t *testing.T) {
	t.Parallel()

	assert.True(t, MentionsSelf("[CQ:at,qq=999] 规则", "999"))
	assert.False(t, MentionsSelf("[CQ:at,qq=1000]", "999"))
	assert.False(t, MentionsSelf("[CQ:at,qq=999]", ""))
}

func TestSender_DisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "群名片", Sender{UserID: 1, Nickname: "昵称", Card: "群名片"}.DisplayName())
	assert.Equal(t, "昵称", Sender{UserID: 1, Nickname: "昵称"}.DisplayName())
	assert.Equal(t, "10001", Sender{UserID: 10001}.DisplayName())
}
