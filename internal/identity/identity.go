// Package identity 将已认证的用户 ID 解析为调用方上下文 Caller。
// Caller 显式传入每个业务调用，业务层不读取任何隐式会话状态。
package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/model"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

var (
	ErrUnknownCaller  = errors.New("用户不存在")
	ErrInactiveCaller = errors.New("账号已停用")
)

// Caller 已认证的调用方（user_id, role, manager_id）
type Caller struct {
	UserID    string
	Role      model.Role
	ManagerID *string
}

// IsManager 是否为经理
func (c Caller) IsManager() bool { return c.Role == model.RoleManager }

// IsEmployee 是否为员工
func (c Caller) IsEmployee() bool { return c.Role == model.RoleEmployee }

// FromUser 由用户记录构造 Caller
func FromUser(u *model.User) Caller {
	c := Caller{UserID: u.UserID, Role: u.Role}
	if u.ManagerID != nil {
		mid := *u.ManagerID
		c.ManagerID = &mid
	}
	return c
}

// UserReader Resolver 依赖的最小用户查询接口
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Resolver 每次请求从存储加载用户，角色与上级关系以数据库当前值为准
type Resolver struct {
	users  UserReader
	logger *zap.Logger
}

// NewResolver 创建 Resolver
func NewResolver(users UserReader, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, logger: logger}
}

// Resolve 解析调用方；用户不存在或已停用时拒绝
func (r *Resolver) Resolve(ctx context.Context, userID string) (Caller, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Caller{}, ErrUnknownCaller
		}
		r.logger.Error("解析调用方失败", zap.String("user_id", userID), zap.Error(err))
		return Caller{}, pkgerrors.Store(err)
	}
	if !user.IsActive {
		return Caller{}, ErrInactiveCaller
	}
	if !user.Role.Valid() {
		return Caller{}, ErrUnknownCaller
	}
	return FromUser(user), nil
}
