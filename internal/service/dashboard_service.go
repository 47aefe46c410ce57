package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

const defaultRecentLimit = 5

// DashboardService 仪表盘只读聚合，按调用方角色返回经理视图或员工视图
type DashboardService interface {
	Get(ctx context.Context, caller identity.Caller) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo        *repository.Repository
	recentLimit int
	logger      *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, recentLimit int, logger *zap.Logger) DashboardService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &dashboardService{repo: repo, recentLimit: recentLimit, logger: logger}
}

// Get 所有聚合在同一个只读快照事务内计算
func (s *dashboardService) Get(ctx context.Context, caller identity.Caller) (*dto.DashboardResponse, error) {
	tx, err := s.repo.BeginSnapshot(ctx)
	if err != nil {
		s.logger.Error("开启快照事务失败", zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	if tx != nil {
		defer tx.Rollback()
	}
	snap := s.repo.WithTx(tx)

	resp := &dto.DashboardResponse{Role: string(caller.Role)}
	switch caller.Role {
	case model.RoleManager:
		resp.Manager, err = s.managerView(ctx, snap, caller.UserID)
	case model.RoleEmployee:
		resp.Employee, err = s.employeeView(ctx, snap, caller.UserID)
	default:
		return nil, pkgerrors.ErrInsufficientRole
	}
	if err != nil {
		s.logger.Error("计算仪表盘失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	return resp, nil
}

func (s *dashboardService) managerView(ctx context.Context, snap *repository.Repository, managerID string) (*dto.ManagerDashboard, error) {
	counts, err := snap.Dashboard.TeamSentimentCounts(ctx, managerID)
	if err != nil {
		return nil, err
	}
	degraded, err := snap.Dashboard.TeamDegradedCount(ctx, managerID)
	if err != nil {
		return nil, err
	}
	pending, err := snap.Dashboard.PendingRequestsFor(ctx, managerID)
	if err != nil {
		return nil, err
	}
	members, err := snap.Dashboard.TeamMemberCount(ctx, managerID)
	if err != nil {
		return nil, err
	}
	recent, err := snap.Dashboard.RecentTeamFeedback(ctx, managerID, s.recentLimit)
	if err != nil {
		return nil, err
	}

	view := &dto.ManagerDashboard{
		Sentiment:        toSentimentCounts(counts),
		DegradedCount:    degraded,
		PendingRequests:  pending,
		TeamMembersCount: members,
		RecentFeedback:   make([]dto.FeedbackResponse, 0, len(recent)),
	}
	view.TotalFeedback = view.Sentiment.Positive + view.Sentiment.Neutral + view.Sentiment.Negative
	for i := range recent {
		view.RecentFeedback = append(view.RecentFeedback, toFeedbackResponse(&recent[i]))
	}
	return view, nil
}

func (s *dashboardService) employeeView(ctx context.Context, snap *repository.Repository, employeeID string) (*dto.EmployeeDashboard, error) {
	counts, err := snap.Dashboard.EmployeeSentimentCounts(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	backlog, err := snap.Dashboard.UnacknowledgedCount(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	statuses, err := snap.Dashboard.RequestStatusCounts(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	recent, err := snap.Dashboard.RecentRequests(ctx, employeeID, s.recentLimit)
	if err != nil {
		return nil, err
	}

	view := &dto.EmployeeDashboard{
		Sentiment:           toSentimentCounts(counts),
		UnacknowledgedCount: backlog,
		Requests: dto.RequestStatusCounts{
			Pending:   statuses[model.RequestStatusPending],
			Completed: statuses[model.RequestStatusCompleted],
			Cancelled: statuses[model.RequestStatusCancelled],
		},
		RecentRequests: make([]dto.FeedbackAskResponse, 0, len(recent)),
	}
	view.TotalFeedback = view.Sentiment.Positive + view.Sentiment.Neutral + view.Sentiment.Negative
	for i := range recent {
		view.RecentRequests = append(view.RecentRequests, toFeedbackAskResponse(&recent[i]))
	}
	return view, nil
}

func toSentimentCounts(m map[model.Sentiment]int64) dto.SentimentCounts {
	return dto.SentimentCounts{
		Positive: m[model.SentimentPositive],
		Neutral:  m[model.SentimentNeutral],
		Negative: m[model.SentimentNegative],
	}
}
