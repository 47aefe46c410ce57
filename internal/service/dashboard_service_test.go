package service

import (
	"context"
	"errors"
	"testing"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/internal/sentiment"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// scriptedClassifier 按创建顺序依次返回给定的分类结果
func scriptedClassifier(seq []model.Sentiment) sentiment.Classifier {
	i := 0
	return sentiment.Func(func(context.Context, string) (model.Sentiment, error) {
		s := seq[i%len(seq)]
		i++
		return s, nil
	})
}

// 构造 N 条已知情感的反馈，断言经理视图计数与团队反馈行一致
func TestDashboard_ManagerCountsMatchTeamFeedback(t *testing.T) {
	seq := []model.Sentiment{
		model.SentimentPositive, model.SentimentPositive, model.SentimentNegative,
		model.SentimentNeutral, model.SentimentPositive, model.SentimentNegative, model.SentimentPositive,
	}
	env := newTestEnv(scriptedClassifier(seq))
	m := env.addManager("Alice")
	m2 := env.addManager("Carol")
	team := []identity.Caller{env.addEmployee("Bob", m), env.addEmployee("Dan", m), env.addEmployee("Eve", m)}
	outsider := env.addEmployee("Finn", m2)
	ctx := context.Background()

	want := map[model.Sentiment]int64{}
	for i, s := range seq {
		emp := team[i%len(team)]
		createFeedback(t, env, m, emp, "text", "text")
		want[s]++
	}
	// 其他团队的反馈不计入
	createFeedback(t, env, m2, outsider, "text", "text")

	askFeedback(t, env, team[0], "")
	askFeedback(t, env, team[1], "")
	done := askFeedback(t, env, team[2], "")
	if _, err := env.svc.Request.Cancel(ctx, team[2], done.ID); err != nil {
		t.Fatal(err)
	}

	resp, err := env.svc.Dashboard.Get(ctx, m)
	if err != nil {
		t.Fatalf("Dashboard 应成功: %v", err)
	}
	if resp.Role != string(model.RoleManager) || resp.Manager == nil || resp.Employee != nil {
		t.Fatalf("经理应得到经理视图: %+v", resp)
	}
	view := resp.Manager

	got := dto.SentimentCounts{Positive: want[model.SentimentPositive], Neutral: want[model.SentimentNeutral], Negative: want[model.SentimentNegative]}
	if view.Sentiment != got {
		t.Errorf("情感计数不一致: 期望 %+v，实际 %+v", got, view.Sentiment)
	}
	if view.TotalFeedback != int64(len(seq)) {
		t.Errorf("期望 total=%d，实际=%d", len(seq), view.TotalFeedback)
	}

	// 与存储中的团队反馈逐行比对
	var rows int64
	for _, fb := range env.store.feedback {
		if env.store.isTeam(fb.EmployeeID, m.UserID) {
			rows++
		}
	}
	if rows != view.TotalFeedback {
		t.Errorf("聚合总数 %d 与团队反馈行数 %d 不一致", view.TotalFeedback, rows)
	}

	if view.PendingRequests != 2 {
		t.Errorf("期望 pending=2，实际=%d", view.PendingRequests)
	}
	if view.TeamMembersCount != 3 {
		t.Errorf("期望团队人数=3，实际=%d", view.TeamMembersCount)
	}
	if len(view.RecentFeedback) != 5 {
		t.Errorf("最近反馈应截断为 5 条，实际=%d", len(view.RecentFeedback))
	}
	for i := 1; i < len(view.RecentFeedback); i++ {
		if view.RecentFeedback[i-1].CreatedAt < view.RecentFeedback[i].CreatedAt {
			t.Error("最近反馈应按创建时间倒序")
		}
	}
}

func TestDashboard_ManagerDegradedCount(t *testing.T) {
	env := newTestEnv(failingClassifier())
	m := env.addManager("Alice")
	e := env.addEmployee("Bob", m)
	createFeedback(t, env, m, e, "a", "b")
	createFeedback(t, env, m, e, "a", "b")

	resp, err := env.svc.Dashboard.Get(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Manager.DegradedCount != 2 || resp.Manager.Sentiment.Neutral != 2 {
		t.Errorf("降级计数不正确: %+v", resp.Manager)
	}
}

func TestDashboard_EmployeeView(t *testing.T) {
	env := newTestEnv(scriptedClassifier([]model.Sentiment{model.SentimentPositive, model.SentimentNegative, model.SentimentNegative}))
	m := env.addManager("Alice")
	e := env.addEmployee("Bob", m)
	e2 := env.addEmployee("Dan", m)
	ctx := context.Background()

	first := createFeedback(t, env, m, e, "a", "b")
	createFeedback(t, env, m, e, "a", "b")
	createFeedback(t, env, m, e2, "a", "b")
	if _, err := env.svc.Feedback.Acknowledge(ctx, e, first.ID); err != nil {
		t.Fatal(err)
	}

	r1 := askFeedback(t, env, e, "")
	if _, err := env.svc.Request.Complete(ctx, m, r1.ID, &dto.CompleteFeedbackAskRequest{}); err != nil {
		t.Fatal(err)
	}
	r2 := askFeedback(t, env, e, "")
	if _, err := env.svc.Request.Cancel(ctx, e, r2.ID); err != nil {
		t.Fatal(err)
	}
	askFeedback(t, env, e, "")

	resp, err := env.svc.Dashboard.Get(ctx, e)
	if err != nil {
		t.Fatalf("Dashboard 应成功: %v", err)
	}
	if resp.Employee == nil || resp.Manager != nil {
		t.Fatalf("员工应得到员工视图: %+v", resp)
	}
	view := resp.Employee
	if view.Sentiment != (dto.SentimentCounts{Positive: 1, Negative: 1}) || view.TotalFeedback != 2 {
		t.Errorf("员工情感计数不正确: %+v", view.Sentiment)
	}
	if view.UnacknowledgedCount != 1 {
		t.Errorf("期望未确认=1，实际=%d", view.UnacknowledgedCount)
	}
	if view.Requests != (dto.RequestStatusCounts{Pending: 1, Completed: 1, Cancelled: 1}) {
		t.Errorf("请求状态计数不正确: %+v", view.Requests)
	}
	if len(view.RecentRequests) != 3 || view.RecentRequests[0].Status != string(model.RequestStatusPending) {
		t.Errorf("最近请求不正确: %+v", view.RecentRequests)
	}
}

func TestDashboard_StoreUnavailable(t *testing.T) {
	env := newTestEnv(nil)
	m := env.addManager("Alice")
	env.store.failStore = errors.New("connection refused")

	_, err := env.svc.Dashboard.Get(context.Background(), m)
	if pkgerrors.KindOf(err) != pkgerrors.KindStoreUnavailable {
		t.Fatalf("期望 StoreUnavailable，实际: %v", err)
	}
}

func TestDashboard_UnknownRole(t *testing.T) {
	env := newTestEnv(nil)
	_, err := env.svc.Dashboard.Get(context.Background(), identity.Caller{UserID: "x", Role: "admin"})
	if !errors.Is(err, pkgerrors.ErrInsufficientRole) {
		t.Fatalf("未知角色期望 InsufficientRole，实际: %v", err)
	}
}
