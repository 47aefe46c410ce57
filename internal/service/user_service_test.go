package service

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// ── Me / Team / Managers 测试 ──

func TestUserService_Me(t *testing.T) {
	env := newTestEnv(nil)
	m := env.addManager("Alice")
	e := env.addEmployee("Bob", m)

	me, err := env.svc.User.Me(context.Background(), e)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.ID != e.UserID || me.Manager == nil || me.Manager.FullName != "Alice" {
		t.Errorf("Me 返回不正确: %+v", me)
	}
}

func TestUserService_Team(t *testing.T) {
	env := newTestEnv(nil)
	m := env.addManager("Alice")
	m2 := env.addManager("Carol")
	e := env.addEmployee("Bob", m)
	env.addEmployee("Dan", m)
	env.addEmployee("Eve", m2)

	team, err := env.svc.User.Team(context.Background(), m)
	if err != nil {
		t.Fatalf("Team 应成功: %v", err)
	}
	if len(team) != 2 || team[0].FullName != "Bob" || team[1].FullName != "Dan" {
		t.Errorf("团队成员不正确: %+v", team)
	}

	if _, err := env.svc.User.Team(context.Background(), e); !errors.Is(err, pkgerrors.ErrInsufficientRole) {
		t.Errorf("员工查询团队期望 InsufficientRole，实际: %v", err)
	}
}

func TestUserService_ManagersActiveOnly(t *testing.T) {
	env := newTestEnv(nil)
	m := env.addManager("Alice")
	gone := env.addManager("Carol")
	env.addEmployee("Bob", m)
	_ = env.repo.User.SetActive(context.Background(), gone.UserID, false)

	managers, err := env.svc.User.Managers(context.Background())
	if err != nil {
		t.Fatalf("Managers 应成功: %v", err)
	}
	if len(managers) != 1 || managers[0].ID != m.UserID {
		t.Errorf("应只返回在职经理: %+v", managers)
	}
}

// ── SetActive 测试 ──

func TestUserService_SetActive(t *testing.T) {
	env := newTestEnv(nil)
	m := env.addManager("Alice")
	m2 := env.addManager("Carol")
	e := env.addEmployee("Bob", m)
	e2 := env.addEmployee("Dan", m)
	ctx := context.Background()

	resp, err := env.svc.User.SetActive(ctx, m, e.UserID, false)
	if err != nil {
		t.Fatalf("直属经理停用成员应成功: %v", err)
	}
	if resp.IsActive || env.store.users[e.UserID].IsActive {
		t.Error("成员应被停用")
	}

	if _, err := env.svc.User.SetActive(ctx, m2, e.UserID, true); !errors.Is(err, pkgerrors.ErrNotTeamMember) {
		t.Errorf("非直属经理期望 NotTeamMember，实际: %v", err)
	}
	if _, err := env.svc.User.SetActive(ctx, e2, e.UserID, true); !errors.Is(err, pkgerrors.ErrInsufficientRole) {
		t.Errorf("员工操作期望 InsufficientRole，实际: %v", err)
	}
	if _, err := env.svc.User.SetActive(ctx, m, "missing", true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}

	resp, err = env.svc.User.SetActive(ctx, m, e.UserID, true)
	if err != nil || !resp.IsActive {
		t.Fatalf("重新启用应成功: %+v err=%v", resp, err)
	}
}
