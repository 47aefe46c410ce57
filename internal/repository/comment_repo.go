package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhijeets54/feedback-backend/internal/model"
)

// CommentRepository 反馈评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, c *model.FeedbackComment) error
	ListByFeedback(ctx context.Context, feedbackID string) ([]model.FeedbackComment, error)
}

type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, c *model.FeedbackComment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *commentRepo) ListByFeedback(ctx context.Context, feedbackID string) ([]model.FeedbackComment, error) {
	var list []model.FeedbackComment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("feedback_id = ?", feedbackID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
