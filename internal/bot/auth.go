package bot

import (
	"context"
	"slices"
	"time"

	"github.com/palemoky/group-minigames/internal/logger"
)

const roleLookupTimeout = 5 * time.Second

// MemberFetcher 查询群成员角色（owner / admin / member）
type MemberFetcher interface {
	MemberRole(ctx context.Context, groupID, userID string) (string, error)
}

// Authorizer 超级用户或群主/管理员拥有管理权限，实现 room.Authorizer
type Authorizer struct {
	superusers []string
	members    MemberFetcher
}

// NewAuthorizer 创建权限检查器，members 可以为 nil
func NewAuthorizer(superusers []string, members MemberFetcher) *Authorizer {
	return &Authorizer{superusers: superusers, members: members}
}

// IsPrivileged 判断调用者是否可以停止别人的游戏
func (a *Authorizer) IsPrivileged(ctx context.Context, contextID, callerID string) bool {
	if slices.Contains(a.superusers, callerID) {
		return true
	}
	if a.members == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, roleLookupTimeout)
	defer cancel()

	role, err := a.members.MemberRole(ctx, contextID, callerID)
	if err != nil {
		logger.LogWarn("查询群 %s 成员 %s 角色失败: %v", contextID, callerID, err)
		return false
	}
	return role == "owner" || role == "admin"
}
