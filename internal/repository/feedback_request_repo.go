package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhijeets54/feedback-backend/internal/model"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// FeedbackRequestFilter 请求列表筛选条件；EmployeeID 与 ManagerID 按调用方角色二选一
type FeedbackRequestFilter struct {
	EmployeeID string
	ManagerID  string
	Status     model.RequestStatus
}

// FeedbackRequestRepository 反馈请求数据访问接口
type FeedbackRequestRepository interface {
	Create(ctx context.Context, req *model.FeedbackRequest) error
	GetByID(ctx context.Context, id string) (*model.FeedbackRequest, error)
	// GetByIDForUpdate SELECT ... FOR UPDATE，必须在事务内调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.FeedbackRequest, error)
	// HasPending 员工对同一经理是否已有待处理请求
	HasPending(ctx context.Context, employeeID, managerID string) (bool, error)
	// SaveTransition 乐观锁写入状态迁移结果，仅对 pending 记录生效
	SaveTransition(ctx context.Context, req *model.FeedbackRequest) error
	List(ctx context.Context, filter FeedbackRequestFilter, offset, limit int) ([]model.FeedbackRequest, int64, error)
}

type feedbackRequestRepo struct {
	db *gorm.DB
}

// NewFeedbackRequestRepo 创建 FeedbackRequestRepository 实例
func NewFeedbackRequestRepo(db *gorm.DB) FeedbackRequestRepository {
	return &feedbackRequestRepo{db: db}
}

func (r *feedbackRequestRepo) Create(ctx context.Context, req *model.FeedbackRequest) error {
	if req.Version == 0 {
		req.Version = 1
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *feedbackRequestRepo) GetByID(ctx context.Context, id string) (*model.FeedbackRequest, error) {
	var req model.FeedbackRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Manager").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *feedbackRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.FeedbackRequest, error) {
	var req model.FeedbackRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *feedbackRequestRepo) HasPending(ctx context.Context, employeeID, managerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FeedbackRequest{}).
		Where("employee_id = ? AND manager_id = ? AND status = ?", employeeID, managerID, model.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *feedbackRequestRepo) SaveTransition(ctx context.Context, req *model.FeedbackRequest) error {
	oldVersion := req.Version
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&model.FeedbackRequest{}).
		Where("request_id = ? AND version = ? AND status = ?", req.RequestID, oldVersion, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":                req.Status,
			"completed_at":          req.CompletedAt,
			"cancelled_at":          req.CancelledAt,
			"cancelled_by":          req.CancelledBy,
			"resulting_feedback_id": req.ResultingFeedbackID,
			"updated_at":            now,
			"version":               oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	req.UpdatedAt = now
	return nil
}

func (r *feedbackRequestRepo) List(ctx context.Context, filter FeedbackRequestFilter, offset, limit int) ([]model.FeedbackRequest, int64, error) {
	var list []model.FeedbackRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.FeedbackRequest{})
	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.ManagerID != "" {
		db = db.Where("manager_id = ?", filter.ManagerID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Employee").Preload("Manager").Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}
