package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/internal/policy"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// UserService 用户业务接口
// 用户资料注册后不可修改，唯一可变字段为 is_active（由直属经理维护）
type UserService interface {
	Me(ctx context.Context, caller identity.Caller) (*dto.UserResponse, error)
	Team(ctx context.Context, caller identity.Caller) ([]dto.UserResponse, error)
	Managers(ctx context.Context) ([]dto.UserBrief, error)
	SetActive(ctx context.Context, caller identity.Caller, userID string, active bool) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Me(ctx context.Context, caller identity.Caller) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// Team 经理的直属团队成员（含已停用）
func (s *userService) Team(ctx context.Context, caller identity.Caller) ([]dto.UserResponse, error) {
	if err := policy.RequireManager(caller); err != nil {
		return nil, err
	}
	users, err := s.repo.User.ListTeam(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("查询团队成员失败", zap.String("manager_id", caller.UserID), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, nil
}

// Managers 在职经理列表，供员工注册时选择直属经理
func (s *userService) Managers(ctx context.Context) ([]dto.UserBrief, error) {
	users, err := s.repo.User.ListManagers(ctx, true)
	if err != nil {
		s.logger.Error("查询经理列表失败", zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	result := make([]dto.UserBrief, 0, len(users))
	for i := range users {
		result = append(result, *toUserBrief(&users[i]))
	}
	return result, nil
}

func (s *userService) SetActive(ctx context.Context, caller identity.Caller, userID string, active bool) (*dto.UserResponse, error) {
	target, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanSetUserActive(caller, target); err != nil {
		return nil, err
	}

	if target.IsActive != active {
		if err := s.repo.User.SetActive(ctx, userID, active); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			s.logger.Error("更新用户状态失败", zap.String("user_id", userID), zap.Error(err))
			return nil, pkgerrors.Store(err)
		}
		target.IsActive = active
		s.logger.Info("用户状态已变更",
			zap.String("user_id", userID),
			zap.Bool("is_active", active),
			zap.String("operator", caller.UserID),
		)
	}

	resp := toUserResponse(target)
	return &resp, nil
}

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", id), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	return user, nil
}
