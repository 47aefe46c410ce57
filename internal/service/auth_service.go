package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
	"github.com/abhijeets54/feedback-backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.KindNotAuthorized, "邮箱或密码错误")
	ErrAccountInactive    = pkgerrors.New(pkgerrors.KindNotAuthorized, "账号已停用")
	ErrUserNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "用户不存在")
	ErrEmailTaken         = pkgerrors.Validation("邮箱已被注册")
	ErrManagerIDRequired  = pkgerrors.Validation("员工注册必须指定 manager_id")
	ErrManagerIDForbidden = pkgerrors.Validation("经理注册不得指定 manager_id")
	ErrManagerInvalid     = pkgerrors.Validation("manager_id 必须指向在职经理")
	ErrInvalidRefresh     = pkgerrors.New(pkgerrors.KindNotAuthorized, "refresh token 无效或已过期")
)

// TokenBlacklist 登出时吊销 Token（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────── Register ──────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, pkgerrors.Validation("role 必须为 manager 或 employee")
	}

	var managerID *string
	switch role {
	case model.RoleManager:
		if req.ManagerID != nil && *req.ManagerID != "" {
			return nil, ErrManagerIDForbidden
		}
	case model.RoleEmployee:
		if req.ManagerID == nil || *req.ManagerID == "" {
			return nil, ErrManagerIDRequired
		}
		mgr, err := s.repo.User.GetByID(ctx, *req.ManagerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrManagerInvalid
			}
			s.logger.Error("查询经理失败", zap.String("manager_id", *req.ManagerID), zap.Error(err))
			return nil, pkgerrors.Store(err)
		}
		if mgr.Role != model.RoleManager || !mgr.IsActive {
			return nil, ErrManagerInvalid
		}
		mid := mgr.UserID
		managerID = &mid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		Role:         role,
		ManagerID:    managerID,
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("创建用户失败", zap.String("email", user.Email), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID), zap.String("role", string(role)))
	return s.issueTokens(user, false)
}

// ────── Login ──────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, pkgerrors.Store(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.issueTokens(user, req.RememberMe)
}

// ────── Refresh ──────

// Refresh 以 Refresh Token 换发新的 Token 对；角色以数据库当前值为准
func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefresh
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	// 旧 Refresh Token 作废，防止重放
	s.revoke(ctx, claims)
	return s.issueTokens(user, claims.RememberMe)
}

// ────── Logout ──────

// Logout 将 Access Token 及可选的 Refresh Token 加入黑名单
// 未启用 Redis 时仅依赖 Token 自然过期
func (s *authService) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if s.blacklist == nil {
		return nil
	}
	if access != nil {
		if err := s.blacklist.BlacklistToken(ctx, access.ID, access.RemainingTTL()); err != nil {
			s.logger.Error("Access Token 加入黑名单失败", zap.Error(err))
			return pkgerrors.Store(err)
		}
	}
	if refreshToken != "" {
		claims, err := s.jwtMgr.ParseToken(refreshToken)
		if err == nil && claims.TokenType == jwt.TokenTypeRefresh {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("Token 加入黑名单失败", zap.String("user_id", claims.UserID), zap.Error(err))
	}
}

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, string(user.Role))
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, string(user.Role), rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}
