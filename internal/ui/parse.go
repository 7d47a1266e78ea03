package ui

import "strings"

// ParseLine 解析「名字: 消息 @某人」，没有名字时使用 speaker。
// @开头的词作为提及，从正文中移除
func ParseLine(line, speaker string) (user, text string, mentions []string, ok bool) {
	line = strings.TrimSpace(line)
	user = speaker
	if name, rest, found := cutSpeaker(line); found {
		user, line = name, rest
	}
	if user == "" {
		return "", "", nil, false
	}

	var words []string
	for _, w := range strings.Fields(line) {
		if target, isMention := strings.CutPrefix(w, "@"); isMention && target != "" {
			mentions = append(mentions, target)
			continue
		}
		words = append(words, w)
	}
	return user, strings.Join(words, " "), mentions, true
}

// cutSpeaker 支持半角与全角冒号
func cutSpeaker(line string) (name, rest string, found bool) {
	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return "", line, false
	}
	name = strings.TrimSpace(line[:idx])
	if name == "" || strings.ContainsAny(name, " @/") {
		return "", line, false
	}
	sep := 1
	if line[idx] != ':' {
		sep = len("：")
	}
	return name, strings.TrimSpace(line[idx+sep:]), true
}
