package room

// GameType 游戏类型
type GameType int

const (
	ChainIdiom      GameType = iota // 成语接龙
	ChainWord                       // 文字接龙
	WordGuess                       // 猜词
	NumberBomb                      // 数字炸弹
	EliminationDuel                 // 恶魔轮盘
)

var gameTypeNames = [...]string{"成语接龙", "文字接龙", "猜词", "数字炸弹", "恶魔轮盘"}

func (t GameType) String() string {
	if t < 0 || int(t) >= len(gameTypeNames) {
		return "未知游戏"
	}
	return gameTypeNames[t]
}

// GameTypes 返回所有游戏类型
func GameTypes() []GameType {
	return []GameType{ChainIdiom, ChainWord, WordGuess, NumberBomb, EliminationDuel}
}

// Status 房间状态
type Status int

const (
	StatusWaiting Status = iota
	StatusRunning
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "等待中"
	case StatusRunning:
		return "游戏中"
	default:
		return "已结束"
	}
}

// 房间结束原因
const (
	ReasonWin      = "win"
	ReasonStop     = "stop"
	ReasonTimeout  = "timeout"
	ReasonShutdown = "shutdown"
)

var gameTypeKeys = [...]string{"chain_idiom", "chain_word", "word_guess", "number_bomb", "elimination_duel"}

// Key 返回游戏类型的英文标识，用于指标标签和存储键
func (t GameType) Key() string {
	if t < 0 || int(t) >= len(gameTypeKeys) {
		return "unknown"
	}
	return gameTypeKeys[t]
}
