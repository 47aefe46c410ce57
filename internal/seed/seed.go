// Package seed 从 YAML 夹具文件批量创建初始用户（经理与员工）。
// 已存在的邮箱跳过，可重复执行。
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/model"
)

const minPasswordLen = 8

// UserEntry 夹具中的一名用户
type UserEntry struct {
	Email        string `yaml:"email"`
	FullName     string `yaml:"full_name"`
	Password     string `yaml:"password"`
	ManagerEmail string `yaml:"manager_email"`
}

// Fixture 夹具文件结构
type Fixture struct {
	Managers  []UserEntry `yaml:"managers"`
	Employees []UserEntry `yaml:"employees"`
}

// UserStore 写入所需的最小用户存储接口
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Result 执行结果
type Result struct {
	Created int
	Skipped int
}

// Load 读取并校验夹具文件
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取夹具文件 %s 失败: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析并校验夹具内容
func Parse(data []byte) (*Fixture, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("夹具文件为空")
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析夹具文件失败: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate 校验必填字段、邮箱唯一与员工的经理引用
func (f *Fixture) Validate() error {
	seen := make(map[string]bool)
	managers := make(map[string]bool)

	check := func(kind string, i int, e UserEntry) error {
		email := normalizeEmail(e.Email)
		switch {
		case email == "" || !strings.Contains(email, "@"):
			return fmt.Errorf("%s[%d]: email 无效", kind, i)
		case strings.TrimSpace(e.FullName) == "":
			return fmt.Errorf("%s[%d]: full_name 不能为空", kind, i)
		case len(e.Password) < minPasswordLen:
			return fmt.Errorf("%s[%d]: password 长度不能少于 %d", kind, i, minPasswordLen)
		case seen[email]:
			return fmt.Errorf("%s[%d]: email %s 重复", kind, i, email)
		}
		seen[email] = true
		return nil
	}

	for i, m := range f.Managers {
		if err := check("managers", i, m); err != nil {
			return err
		}
		if m.ManagerEmail != "" {
			return fmt.Errorf("managers[%d]: 经理不得指定 manager_email", i)
		}
		managers[normalizeEmail(m.Email)] = true
	}
	for i, e := range f.Employees {
		if err := check("employees", i, e); err != nil {
			return err
		}
		if normalizeEmail(e.ManagerEmail) == "" {
			return fmt.Errorf("employees[%d]: manager_email 不能为空", i)
		}
	}
	return nil
}

// Apply 先创建经理再创建员工；员工的经理可以是本次创建的，也可以是库中已有的在职经理
func Apply(ctx context.Context, store UserStore, f *Fixture, logger *zap.Logger) (Result, error) {
	var res Result
	managerIDs := make(map[string]string)

	for _, m := range f.Managers {
		u, created, err := ensureUser(ctx, store, m, model.RoleManager, nil)
		if err != nil {
			return res, err
		}
		if u.Role != model.RoleManager {
			return res, fmt.Errorf("%s 已存在且不是经理", u.Email)
		}
		managerIDs[u.Email] = u.UserID
		res.count(created)
		logSeeded(logger, u, created)
	}

	for _, e := range f.Employees {
		managerID, err := resolveManager(ctx, store, managerIDs, normalizeEmail(e.ManagerEmail))
		if err != nil {
			return res, fmt.Errorf("员工 %s: %w", e.Email, err)
		}
		u, created, err := ensureUser(ctx, store, e, model.RoleEmployee, &managerID)
		if err != nil {
			return res, err
		}
		res.count(created)
		logSeeded(logger, u, created)
	}

	return res, nil
}

func (r *Result) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Skipped++
	}
}

func resolveManager(ctx context.Context, store UserStore, known map[string]string, email string) (string, error) {
	if id, ok := known[email]; ok {
		return id, nil
	}
	u, err := store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("经理 %s 不存在", email)
		}
		return "", err
	}
	if u.Role != model.RoleManager || !u.IsActive {
		return "", fmt.Errorf("%s 不是在职经理", email)
	}
	known[email] = u.UserID
	return u.UserID, nil
}

func ensureUser(ctx context.Context, store UserStore, e UserEntry, role model.Role, managerID *string) (*model.User, bool, error) {
	email := normalizeEmail(e.Email)
	existing, err := store.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("查询用户 %s 失败: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(e.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("密码加密失败: %w", err)
	}

	u := &model.User{
		Email:        email,
		FullName:     strings.TrimSpace(e.FullName),
		PasswordHash: string(hash),
		Role:         role,
		ManagerID:    managerID,
		IsActive:     true,
	}
	if err := store.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("创建用户 %s 失败: %w", email, err)
	}
	return u, true, nil
}

func logSeeded(logger *zap.Logger, u *model.User, created bool) {
	if created {
		logger.Info("已创建用户", zap.String("email", u.Email), zap.String("role", string(u.Role)))
		return
	}
	logger.Info("用户已存在，跳过", zap.String("email", u.Email))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
