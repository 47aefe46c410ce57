package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/internal/policy"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	"github.com/abhijeets54/feedback-backend/internal/sentiment"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// ── 反馈模块业务错误 ──

var (
	ErrFeedbackNotFound  = pkgerrors.New(pkgerrors.KindNotFound, "反馈不存在")
	ErrEmployeeNotFound  = pkgerrors.New(pkgerrors.KindNotFound, "员工不存在")
	ErrStrengthsRequired = pkgerrors.Validation("strengths 不能为空")
	ErrAreasRequired     = pkgerrors.Validation("areas_to_improve 不能为空")
	ErrEmptyPatch        = pkgerrors.Validation("未提交任何修改字段")
	ErrEmployeeInactive  = pkgerrors.Validation("员工账号已停用")
	ErrCommentRequired   = pkgerrors.Validation("评论内容不能为空")
)

// FeedbackService 反馈生命周期：创建、修改、确认（未确认 → 已确认）
type FeedbackService interface {
	Create(ctx context.Context, caller identity.Caller, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error)
	Update(ctx context.Context, caller identity.Caller, id string, req *dto.UpdateFeedbackRequest) (*dto.FeedbackResponse, error)
	// Acknowledge 已确认时幂等成功，返回原记录且 Transitioned=false
	Acknowledge(ctx context.Context, caller identity.Caller, id string) (*dto.AcknowledgeResponse, error)
	Get(ctx context.Context, caller identity.Caller, id string) (*dto.FeedbackResponse, error)
	List(ctx context.Context, caller identity.Caller, req *dto.FeedbackListRequest) ([]dto.FeedbackResponse, int64, error)
	AddComment(ctx context.Context, caller identity.Caller, id string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, caller identity.Caller, id string) ([]dto.CommentResponse, error)
}

type feedbackService struct {
	repo       *repository.Repository
	classifier sentiment.Classifier
	logger     *zap.Logger
}

// NewFeedbackService 创建 FeedbackService 实例
func NewFeedbackService(repo *repository.Repository, classifier sentiment.Classifier, logger *zap.Logger) FeedbackService {
	return &feedbackService{repo: repo, classifier: classifier, logger: logger}
}

// ── 反馈内容与情感分类（与请求完成流程共用） ──

// feedbackContent 反馈正文，写入前去除首尾空白
type feedbackContent struct {
	Strengths      string
	AreasToImprove string
	Notes          string
}

func (c *feedbackContent) normalize() error {
	c.Strengths = strings.TrimSpace(c.Strengths)
	c.AreasToImprove = strings.TrimSpace(c.AreasToImprove)
	c.Notes = strings.TrimSpace(c.Notes)
	if c.Strengths == "" {
		return ErrStrengthsRequired
	}
	if c.AreasToImprove == "" {
		return ErrAreasRequired
	}
	return nil
}

// verdict 分类结果；degraded 表示分类器不可用时回退的 neutral
type verdict struct {
	sentiment model.Sentiment
	degraded  bool
}

// classifyContent 调用一次分类器；失败时回退为 neutral 并标记 degraded，不阻塞写入
func classifyContent(ctx context.Context, classifier sentiment.Classifier, logger *zap.Logger, c feedbackContent) verdict {
	fb := model.Feedback{Strengths: c.Strengths, AreasToImprove: c.AreasToImprove, Notes: c.Notes}
	s, err := classifier.Classify(ctx, fb.SentimentSource())
	if err == nil && s.Valid() {
		return verdict{sentiment: s}
	}
	if err == nil {
		err = sentiment.ErrUnavailable
	}
	logger.Warn("情感分类降级为 neutral",
		zap.Stringer("kind", pkgerrors.KindClassifierUnavailable), zap.Error(err))
	return verdict{sentiment: model.SentimentNeutral, degraded: true}
}

// loadFeedbackTarget 加载反馈对象并校验创建权限
func loadFeedbackTarget(ctx context.Context, repo *repository.Repository, logger *zap.Logger, caller identity.Caller, employeeID string) (*model.User, error) {
	employee, err := repo.User.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	if err := policy.CanCreateFeedback(caller, employee); err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return nil, ErrEmployeeInactive
	}
	return employee, nil
}

// insertFeedback 在给定（事务）聚合上写入新反馈，acknowledged=false
func insertFeedback(ctx context.Context, repo *repository.Repository, logger *zap.Logger, caller identity.Caller, employee *model.User, c feedbackContent, v verdict) (*model.Feedback, error) {
	fb := &model.Feedback{
		ManagerID:         caller.UserID,
		EmployeeID:        employee.UserID,
		Strengths:         c.Strengths,
		AreasToImprove:    c.AreasToImprove,
		Notes:             c.Notes,
		Sentiment:         v.sentiment,
		SentimentDegraded: v.degraded,
	}
	if err := repo.Feedback.Create(ctx, fb); err != nil {
		logger.Error("创建反馈失败", zap.String("employee_id", employee.UserID), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	return fb, nil
}

// reloadFeedback 提交后带关联重新读取，用于响应
func (s *feedbackService) reloadFeedback(ctx context.Context, fb *model.Feedback) *model.Feedback {
	full, err := s.repo.Feedback.GetByID(ctx, fb.FeedbackID)
	if err != nil {
		s.logger.Warn("重新读取反馈失败，返回未带关联的记录", zap.String("id", fb.FeedbackID), zap.Error(err))
		return fb
	}
	return full
}

// ────────────────────── Create ──────────────────────

func (s *feedbackService) Create(ctx context.Context, caller identity.Caller, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	content := feedbackContent{Strengths: req.Strengths, AreasToImprove: req.AreasToImprove, Notes: req.Notes}
	if err := content.normalize(); err != nil {
		return nil, err
	}

	employee, err := loadFeedbackTarget(ctx, s.repo, s.logger, caller, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	v := classifyContent(ctx, s.classifier, s.logger, content)

	fb, err := insertFeedback(ctx, s.repo, s.logger, caller, employee, content, v)
	if err != nil {
		return nil, err
	}

	resp := toFeedbackResponse(s.reloadFeedback(ctx, fb))
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

// Update 先无锁读取并分类（避免持锁调用外部分类器），再在事务内加锁校验版本后写入
func (s *feedbackService) Update(ctx context.Context, caller identity.Caller, id string, req *dto.UpdateFeedbackRequest) (*dto.FeedbackResponse, error) {
	if req.Strengths == nil && req.AreasToImprove == nil && req.Notes == nil {
		return nil, ErrEmptyPatch
	}

	var updated *model.Feedback
	err := withRetry(ctx, s.logger, "feedback.update", func() error {
		current, err := s.getFeedback(ctx, s.repo, id, false)
		if err != nil {
			return err
		}
		if err := policy.CanUpdateFeedback(caller, current); err != nil {
			return err
		}

		content := feedbackContent{Strengths: current.Strengths, AreasToImprove: current.AreasToImprove, Notes: current.Notes}
		if req.Strengths != nil {
			content.Strengths = *req.Strengths
		}
		if req.AreasToImprove != nil {
			content.AreasToImprove = *req.AreasToImprove
		}
		if req.Notes != nil {
			content.Notes = *req.Notes
		}
		if err := content.normalize(); err != nil {
			return err
		}
		v := classifyContent(ctx, s.classifier, s.logger, content)

		return inTx(ctx, s.repo, func(tx *repository.Repository) error {
			locked, err := s.getFeedback(ctx, tx, id, true)
			if err != nil {
				return err
			}
			if err := policy.CanUpdateFeedback(caller, locked); err != nil {
				return err
			}
			if locked.Version != current.Version {
				return pkgerrors.ErrOptimisticLock
			}

			locked.Strengths = content.Strengths
			locked.AreasToImprove = content.AreasToImprove
			locked.Notes = content.Notes
			locked.Sentiment = v.sentiment
			locked.SentimentDegraded = v.degraded
			if err := tx.Feedback.UpdateContent(ctx, locked); err != nil {
				if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
					s.logger.Error("更新反馈失败", zap.String("id", id), zap.Error(err))
				}
				return pkgerrors.Store(err)
			}
			updated = locked
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	resp := toFeedbackResponse(s.reloadFeedback(ctx, updated))
	return &resp, nil
}

// ────────────────────── Acknowledge ──────────────────────

func (s *feedbackService) Acknowledge(ctx context.Context, caller identity.Caller, id string) (*dto.AcknowledgeResponse, error) {
	var (
		result       *model.Feedback
		transitioned bool
	)
	err := runInTx(ctx, s.repo, s.logger, "feedback.acknowledge", func(tx *repository.Repository) error {
		transitioned = false

		fb, err := s.getFeedback(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := policy.CanAcknowledgeFeedback(caller, fb); err != nil {
			return err
		}

		result = fb
		if !fb.Acknowledge(time.Now().UTC()) {
			return nil
		}
		if err := tx.Feedback.MarkAcknowledged(ctx, fb); err != nil {
			if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
				s.logger.Error("确认反馈失败", zap.String("id", id), zap.Error(err))
			}
			return pkgerrors.Store(err)
		}
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.AcknowledgeResponse{
		Feedback:     toFeedbackResponse(s.reloadFeedback(ctx, result)),
		Transitioned: transitioned,
	}, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *feedbackService) Get(ctx context.Context, caller identity.Caller, id string) (*dto.FeedbackResponse, error) {
	fb, err := s.getFeedback(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadFeedback(caller, fb, policy.ScopeDirect, employeeManagerID(fb)); err != nil {
		return nil, err
	}
	resp := toFeedbackResponse(fb)
	return &resp, nil
}

func (s *feedbackService) List(ctx context.Context, caller identity.Caller, req *dto.FeedbackListRequest) ([]dto.FeedbackResponse, int64, error) {
	filter := repository.FeedbackFilter{
		EmployeeID:   req.EmployeeID,
		Sentiment:    model.Sentiment(req.Sentiment),
		Acknowledged: req.Acknowledged,
	}
	switch caller.Role {
	case model.RoleManager:
		filter.VisibleToManager = caller.UserID
	case model.RoleEmployee:
		filter.SubjectID = caller.UserID
	default:
		return nil, 0, pkgerrors.ErrInsufficientRole
	}

	list, total, err := s.repo.Feedback.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询反馈列表失败", zap.Error(err))
		return nil, 0, pkgerrors.Store(err)
	}

	result := make([]dto.FeedbackResponse, 0, len(list))
	for i := range list {
		if policy.CanReadFeedback(caller, &list[i], policy.ScopeList, employeeManagerID(&list[i])) != nil {
			continue
		}
		result = append(result, toFeedbackResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── Comments ──────────────────────

func (s *feedbackService) AddComment(ctx context.Context, caller identity.Caller, id string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	text := strings.TrimSpace(req.Comment)
	if text == "" {
		return nil, ErrCommentRequired
	}

	fb, err := s.getFeedback(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCommentFeedback(caller, fb); err != nil {
		return nil, err
	}

	comment := &model.FeedbackComment{FeedbackID: fb.FeedbackID, UserID: caller.UserID, Comment: text}
	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		s.logger.Error("添加评论失败", zap.String("feedback_id", id), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}

	resp := toCommentResponse(comment)
	return &resp, nil
}

func (s *feedbackService) ListComments(ctx context.Context, caller identity.Caller, id string) ([]dto.CommentResponse, error) {
	fb, err := s.getFeedback(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCommentFeedback(caller, fb); err != nil {
		return nil, err
	}

	comments, err := s.repo.Comment.ListByFeedback(ctx, fb.FeedbackID)
	if err != nil {
		s.logger.Error("查询评论失败", zap.String("feedback_id", id), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}

	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, toCommentResponse(&comments[i]))
	}
	return result, nil
}

// ── 辅助函数 ──

func (s *feedbackService) getFeedback(ctx context.Context, repo *repository.Repository, id string, forUpdate bool) (*model.Feedback, error) {
	var (
		fb  *model.Feedback
		err error
	)
	if forUpdate {
		fb, err = repo.Feedback.GetByIDForUpdate(ctx, id)
	} else {
		fb, err = repo.Feedback.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		s.logger.Error("查询反馈失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	return fb, nil
}

// employeeManagerID 反馈对象当前的 manager_id（需预加载 Employee）
func employeeManagerID(fb *model.Feedback) *string {
	if fb.Employee == nil {
		return nil
	}
	return fb.Employee.ManagerID
}
