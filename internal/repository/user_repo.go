package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// ListTeam 列出 manager_id 等于指定经理的所有成员
	ListTeam(ctx context.Context, managerID string) ([]model.User, error)
	ListManagers(ctx context.Context, activeOnly bool) ([]model.User, error)
	// SetActive 唯一允许的用户字段修改
	SetActive(ctx context.Context, id string, active bool) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListTeam(ctx context.Context, managerID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("full_name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListManagers(ctx context.Context, activeOnly bool) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).Where("role = ?", model.RoleManager)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("full_name ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
