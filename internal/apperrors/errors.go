package apperrors

import "errors"

// 错误码
const (
	CodeUnknown          = 1000
	CodeRateLimited      = 1002 // 速率限制
	CodeUnknownGame      = 1003
	CodeShuttingDown     = 1004
	CodeNoActiveRoom     = 2001
	CodeRoomFull         = 2002
	CodeNotInRoom        = 2003
	CodeWrongPhase       = 2004
	CodeRoomExists       = 2005
	CodeAlreadyJoined    = 2006
	CodeNotEnoughPlayers = 2007
	CodeNotYourTurn      = 3002
	CodeInvalidMove      = 3003
	CodeNotHost          = 4001
	CodeNotPrivileged    = 4002
)

// GameError 游戏错误，所有错误都只报告给调用方，不改变房间状态
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRateLimited      = &GameError{Code: CodeRateLimited, Message: "操作过于频繁，请稍后再试"}
	ErrUnknownGame      = &GameError{Code: CodeUnknownGame, Message: "未知的游戏类型"}
	ErrShuttingDown     = &GameError{Code: CodeShuttingDown, Message: "服务正在关闭，暂时无法创建游戏"}
	ErrNoActiveRoom     = &GameError{Code: CodeNoActiveRoom, Message: "当前没有正在进行的游戏"}
	ErrRoomFull         = &GameError{Code: CodeRoomFull, Message: "当前房间已满"}
	ErrNotInRoom        = &GameError{Code: CodeNotInRoom, Message: "你不在游戏中"}
	ErrWrongPhase       = &GameError{Code: CodeWrongPhase, Message: "当前阶段不能进行该操作"}
	ErrRoomExists       = &GameError{Code: CodeRoomExists, Message: "已经有一个游戏正在进行，请先使用 /game stop 停止当前游戏"}
	ErrAlreadyJoined    = &GameError{Code: CodeAlreadyJoined, Message: "你已经在游戏中了"}
	ErrNotEnoughPlayers = &GameError{Code: CodeNotEnoughPlayers, Message: "至少需要2名玩家才能开始游戏"}
	ErrNotYourTurn      = &GameError{Code: CodeNotYourTurn, Message: "还没轮到你"}
	ErrInvalidMove      = &GameError{Code: CodeInvalidMove, Message: "无效的操作"}
	ErrNotHost          = &GameError{Code: CodeNotHost, Message: "只有房主才能进行该操作"}
	ErrNotPrivileged    = &GameError{Code: CodeNotPrivileged, Message: "⚠️ 只有游戏房主或管理员才能停止游戏"}
)

// hinted 携带面向用户提示的错误，errors.Is 仍然匹配原始错误
type hinted struct {
	base *GameError
	hint string
}

func (h *hinted) Error() string { return h.hint }
func (h *hinted) Unwrap() error { return h.base }

// Hint 为预定义错误附加提示文本
func Hint(base *GameError, hint string) error {
	return &hinted{base: base, hint: hint}
}

// Code 返回错误对应的错误码，非 GameError 返回 CodeUnknown
func Code(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return CodeUnknown
}
