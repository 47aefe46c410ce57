package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhijeets54/feedback-backend/internal/model"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// FeedbackFilter 反馈列表筛选条件
// 员工视角设置 SubjectID；经理视角设置 VisibleToManager（本人撰写或团队成员收到的反馈）
type FeedbackFilter struct {
	SubjectID        string
	VisibleToManager string
	EmployeeID       string
	Sentiment        model.Sentiment
	Acknowledged     *bool
}

// FeedbackRepository 反馈数据访问接口
type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	GetByID(ctx context.Context, id string) (*model.Feedback, error)
	// GetByIDForUpdate SELECT ... FOR UPDATE，必须在事务内调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.Feedback, error)
	// UpdateContent 乐观锁更新内容与情感字段
	UpdateContent(ctx context.Context, fb *model.Feedback) error
	// MarkAcknowledged 乐观锁写入确认状态，仅对未确认记录生效
	MarkAcknowledged(ctx context.Context, fb *model.Feedback) error
	List(ctx context.Context, filter FeedbackFilter, offset, limit int) ([]model.Feedback, int64, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

// NewFeedbackRepo 创建 FeedbackRepository 实例
func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	if fb.Version == 0 {
		fb.Version = 1
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(fb).Error
}

func (r *feedbackRepo) GetByID(ctx context.Context, id string) (*model.Feedback, error) {
	var fb model.Feedback
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Preload("Employee").
		Where("feedback_id = ?", id).
		First(&fb).Error
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Feedback, error) {
	var fb model.Feedback
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("feedback_id = ?", id).
		First(&fb).Error
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepo) UpdateContent(ctx context.Context, fb *model.Feedback) error {
	oldVersion := fb.Version
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("feedback_id = ? AND version = ? AND acknowledged = ?", fb.FeedbackID, oldVersion, false).
		Updates(map[string]interface{}{
			"strengths":          fb.Strengths,
			"areas_to_improve":   fb.AreasToImprove,
			"notes":              fb.Notes,
			"sentiment":          fb.Sentiment,
			"sentiment_degraded": fb.SentimentDegraded,
			"updated_at":         now,
			"version":            oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	fb.Version = oldVersion + 1
	fb.UpdatedAt = now
	return nil
}

func (r *feedbackRepo) MarkAcknowledged(ctx context.Context, fb *model.Feedback) error {
	oldVersion := fb.Version
	result := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("feedback_id = ? AND version = ? AND acknowledged = ?", fb.FeedbackID, oldVersion, false).
		Updates(map[string]interface{}{
			"acknowledged":    true,
			"acknowledged_at": fb.AcknowledgedAt,
			"updated_at":      *fb.AcknowledgedAt,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	fb.Version = oldVersion + 1
	fb.UpdatedAt = *fb.AcknowledgedAt
	return nil
}

func (r *feedbackRepo) List(ctx context.Context, filter FeedbackFilter, offset, limit int) ([]model.Feedback, int64, error) {
	var list []model.Feedback
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Feedback{})
	if filter.SubjectID != "" {
		db = db.Where("employee_id = ?", filter.SubjectID)
	}
	if filter.VisibleToManager != "" {
		db = db.Where("(manager_id = ? OR employee_id IN (?))",
			filter.VisibleToManager,
			r.db.Model(&model.User{}).Select("user_id").Where("manager_id = ?", filter.VisibleToManager),
		)
	}
	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Sentiment != "" {
		db = db.Where("sentiment = ?", filter.Sentiment)
	}
	if filter.Acknowledged != nil {
		db = db.Where("acknowledged = ?", *filter.Acknowledged)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Manager").Preload("Employee").Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}
