package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/model"
)

// DashboardRepository 仪表盘聚合查询；调用方负责在同一快照事务内调用
type DashboardRepository interface {
	// TeamSentimentCounts 团队成员收到的反馈按情感计数
	TeamSentimentCounts(ctx context.Context, managerID string) (map[model.Sentiment]int64, error)
	TeamDegradedCount(ctx context.Context, managerID string) (int64, error)
	TeamMemberCount(ctx context.Context, managerID string) (int64, error)
	RecentTeamFeedback(ctx context.Context, managerID string, limit int) ([]model.Feedback, error)
	PendingRequestsFor(ctx context.Context, managerID string) (int64, error)

	EmployeeSentimentCounts(ctx context.Context, employeeID string) (map[model.Sentiment]int64, error)
	UnacknowledgedCount(ctx context.Context, employeeID string) (int64, error)
	RequestStatusCounts(ctx context.Context, employeeID string) (map[model.RequestStatus]int64, error)
	RecentRequests(ctx context.Context, employeeID string, limit int) ([]model.FeedbackRequest, error)
}

type dashboardRepo struct {
	db *gorm.DB
}

// NewDashboardRepo 创建 DashboardRepository 实例
func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db: db}
}

type sentimentRow struct {
	Sentiment model.Sentiment
	Count     int64
}

type statusRow struct {
	Status model.RequestStatus
	Count  int64
}

// teamSubquery 团队 = 当前 manager_id 等于该经理的用户
func (r *dashboardRepo) teamSubquery(managerID string) *gorm.DB {
	return r.db.Model(&model.User{}).Select("user_id").Where("manager_id = ?", managerID)
}

func (r *dashboardRepo) sentimentCounts(db *gorm.DB) (map[model.Sentiment]int64, error) {
	var rows []sentimentRow
	if err := db.Select("sentiment, COUNT(*) AS count").Group("sentiment").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.Sentiment]int64, len(model.Sentiments))
	for _, row := range rows {
		counts[row.Sentiment] = row.Count
	}
	return counts, nil
}

func (r *dashboardRepo) TeamSentimentCounts(ctx context.Context, managerID string) (map[model.Sentiment]int64, error) {
	return r.sentimentCounts(r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("employee_id IN (?)", r.teamSubquery(managerID)))
}

func (r *dashboardRepo) TeamDegradedCount(ctx context.Context, managerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("employee_id IN (?) AND sentiment_degraded = ?", r.teamSubquery(managerID), true).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepo) TeamMemberCount(ctx context.Context, managerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("manager_id = ?", managerID).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepo) RecentTeamFeedback(ctx context.Context, managerID string, limit int) ([]model.Feedback, error) {
	var list []model.Feedback
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Preload("Employee").
		Where("employee_id IN (?)", r.teamSubquery(managerID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *dashboardRepo) PendingRequestsFor(ctx context.Context, managerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.FeedbackRequest{}).
		Where("manager_id = ? AND status = ?", managerID, model.RequestStatusPending).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepo) EmployeeSentimentCounts(ctx context.Context, employeeID string) (map[model.Sentiment]int64, error) {
	return r.sentimentCounts(r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("employee_id = ?", employeeID))
}

func (r *dashboardRepo) UnacknowledgedCount(ctx context.Context, employeeID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("employee_id = ? AND acknowledged = ?", employeeID, false).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepo) RequestStatusCounts(ctx context.Context, employeeID string) (map[model.RequestStatus]int64, error) {
	var rows []statusRow
	err := r.db.WithContext(ctx).
		Model(&model.FeedbackRequest{}).
		Select("status, COUNT(*) AS count").
		Where("employee_id = ?", employeeID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.RequestStatus]int64, len(model.RequestStatuses))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *dashboardRepo) RecentRequests(ctx context.Context, employeeID string, limit int) ([]model.FeedbackRequest, error) {
	var list []model.FeedbackRequest
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
