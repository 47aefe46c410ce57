package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/config"
	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/pkg/jwt"
)

// ── 测试辅助 ──

type fakeBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jtis == nil {
		f.jtis = make(map[string]time.Duration)
	}
	f.jtis[jti] = ttl
	return nil
}

func (f *fakeBlacklist) has(jti string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.jtis[jti]
	return ok
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-for-unit-tests",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

func setupTestAuthService() (AuthService, *testEnv, *fakeBlacklist, *jwt.Manager) {
	env := newTestEnv(nil)
	bl := &fakeBlacklist{}
	jwtMgr := newTestJWT()
	return NewAuthService(env.repo, jwtMgr, bl, zap.NewNop()), env, bl, jwtMgr
}

// ── Register 测试 ──

func TestRegister_ManagerAndEmployee(t *testing.T) {
	svc, _, _, jwtMgr := setupTestAuthService()
	ctx := context.Background()

	mgr, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "Alice@Example.com", FullName: "Alice", Password: "password123", Role: "manager",
	})
	if err != nil {
		t.Fatalf("经理注册应成功: %v", err)
	}
	if mgr.User.Email != "alice@example.com" {
		t.Errorf("邮箱应统一小写，实际=%s", mgr.User.Email)
	}
	if mgr.TokenType != "Bearer" || mgr.ExpiresIn != 900 {
		t.Errorf("Token 元信息不正确: type=%s expires_in=%d", mgr.TokenType, mgr.ExpiresIn)
	}
	claims, err := jwtMgr.ParseToken(mgr.AccessToken)
	if err != nil || claims.UserID != mgr.User.ID || claims.TokenType != jwt.TokenTypeAccess {
		t.Fatalf("AccessToken 不正确: %+v err=%v", claims, err)
	}

	emp, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: "bob@example.com", FullName: "Bob", Password: "password123", Role: "employee", ManagerID: &mgr.User.ID,
	})
	if err != nil {
		t.Fatalf("员工注册应成功: %v", err)
	}
	if emp.User.ManagerID == nil || *emp.User.ManagerID != mgr.User.ID {
		t.Error("员工应关联直属经理")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	m := env.addManager("Alice")
	e := env.addEmployee("Bob", m)
	inactive := env.addManager("Carol")
	_ = env.repo.User.SetActive(context.Background(), inactive.UserID, false)

	cases := []struct {
		name string
		req  dto.RegisterRequest
		want error
	}{
		{"员工缺少经理", dto.RegisterRequest{Email: "x1@example.com", Role: "employee"}, ErrManagerIDRequired},
		{"经理指定上级", dto.RegisterRequest{Email: "x2@example.com", Role: "manager", ManagerID: &m.UserID}, ErrManagerIDForbidden},
		{"上级不是经理", dto.RegisterRequest{Email: "x3@example.com", Role: "employee", ManagerID: &e.UserID}, ErrManagerInvalid},
		{"上级已停用", dto.RegisterRequest{Email: "x4@example.com", Role: "employee", ManagerID: &inactive.UserID}, ErrManagerInvalid},
		{"上级不存在", dto.RegisterRequest{Email: "x5@example.com", Role: "employee", ManagerID: strPtr("missing")}, ErrManagerInvalid},
		{"邮箱已注册", dto.RegisterRequest{Email: "ALICE@example.com", Role: "manager"}, ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.FullName, tc.req.Password = "Someone", "password123"
			_, err := svc.Register(context.Background(), &tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际: %v", tc.want, err)
			}
		})
	}
}

// ── Login 测试 ──

func TestLogin_Success(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	env.addManager("Alice")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "ALICE@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Token 不应为空")
	}
	if result.User.Role != string(model.RoleManager) {
		t.Errorf("期望 role=manager，实际=%s", result.User.Role)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	m := env.addManager("Alice")

	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("错误密码期望 ErrInvalidCredentials，实际: %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@example.com", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在期望 ErrInvalidCredentials，实际: %v", err)
	}

	_ = env.repo.User.SetActive(context.Background(), m.UserID, false)
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@example.com", Password: "password123"}); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("停用账号期望 ErrAccountInactive，实际: %v", err)
	}
}

func TestLogin_RememberMe(t *testing.T) {
	svc, env, _, jwtMgr := setupTestAuthService()
	env.addManager("Alice")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@example.com", Password: "password123", RememberMe: true})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	claims, err := jwtMgr.ParseToken(result.RefreshToken)
	if err != nil || !claims.RememberMe {
		t.Fatalf("RefreshToken 应携带 remember_me: %+v err=%v", claims, err)
	}
	if claims.RemainingTTL() < 6*24*time.Hour {
		t.Errorf("remember_me 应使用长有效期，实际剩余 %v", claims.RemainingTTL())
	}
}

// ── Refresh / Logout 测试 ──

func TestRefresh_RotatesToken(t *testing.T) {
	svc, env, bl, jwtMgr := setupTestAuthService()
	env.addManager("Alice")
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@example.com", Password: "password123"})

	refreshed, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == login.RefreshToken {
		t.Error("应换发新的 Token 对")
	}
	old, _ := jwtMgr.ParseToken(login.RefreshToken)
	if !bl.has(old.ID) {
		t.Error("旧 RefreshToken 应加入黑名单")
	}

	if _, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.AccessToken}); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("AccessToken 不能用于刷新，实际: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: "garbage"}); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("非法 Token 期望 ErrInvalidRefresh，实际: %v", err)
	}
}

func TestLogout_BlacklistsBothTokens(t *testing.T) {
	svc, env, bl, jwtMgr := setupTestAuthService()
	env.addManager("Alice")
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "alice@example.com", Password: "password123"})

	access, _ := jwtMgr.ParseToken(login.AccessToken)
	if err := svc.Logout(context.Background(), access, login.RefreshToken); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	refresh, _ := jwtMgr.ParseToken(login.RefreshToken)
	if !bl.has(access.ID) || !bl.has(refresh.ID) {
		t.Error("Access 与 Refresh Token 均应加入黑名单")
	}
}

func TestLogout_WithoutBlacklist(t *testing.T) {
	env := newTestEnv(nil)
	svc := NewAuthService(env.repo, newTestJWT(), nil, zap.NewNop())
	if err := svc.Logout(context.Background(), &jwt.Claims{}, ""); err != nil {
		t.Fatalf("未启用黑名单时 Logout 应直接成功: %v", err)
	}
}
