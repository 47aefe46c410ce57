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

// ── 反馈请求模块业务错误 ──

var (
	ErrRequestNotFound          = pkgerrors.New(pkgerrors.KindNotFound, "反馈请求不存在")
	ErrResultingFeedbackMissing = pkgerrors.New(pkgerrors.KindNotFound, "关联的反馈不存在")
	ErrNoManagerAssigned        = pkgerrors.Validation("尚未分配直属经理")
	ErrPendingRequestExists     = pkgerrors.New(pkgerrors.KindInvalidState, "已有待处理的反馈请求")
	ErrCompletionConflict       = pkgerrors.Validation("resulting_feedback_id 与 feedback 不能同时提供")
	ErrResultingFeedbackInvalid = pkgerrors.Validation("关联的反馈必须由本人撰写且对象为请求发起人")
)

// FeedbackRequestService 反馈请求生命周期：pending → completed | cancelled
type FeedbackRequestService interface {
	Create(ctx context.Context, caller identity.Caller, req *dto.CreateFeedbackAskRequest) (*dto.FeedbackAskResponse, error)
	// Complete 可选关联已有反馈或内联创建反馈；内联创建与状态迁移在同一事务内
	Complete(ctx context.Context, caller identity.Caller, id string, req *dto.CompleteFeedbackAskRequest) (*dto.CompleteFeedbackAskResponse, error)
	Cancel(ctx context.Context, caller identity.Caller, id string) (*dto.FeedbackAskResponse, error)
	Get(ctx context.Context, caller identity.Caller, id string) (*dto.FeedbackAskResponse, error)
	List(ctx context.Context, caller identity.Caller, req *dto.FeedbackAskListRequest) ([]dto.FeedbackAskResponse, int64, error)
}

type feedbackRequestService struct {
	repo       *repository.Repository
	classifier sentiment.Classifier
	logger     *zap.Logger
}

// NewFeedbackRequestService 创建 FeedbackRequestService 实例
func NewFeedbackRequestService(repo *repository.Repository, classifier sentiment.Classifier, logger *zap.Logger) FeedbackRequestService {
	return &feedbackRequestService{repo: repo, classifier: classifier, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *feedbackRequestService) Create(ctx context.Context, caller identity.Caller, req *dto.CreateFeedbackAskRequest) (*dto.FeedbackAskResponse, error) {
	if caller.IsEmployee() && caller.ManagerID == nil {
		return nil, ErrNoManagerAssigned
	}

	target := ""
	if caller.ManagerID != nil {
		target = *caller.ManagerID
	}
	if req.ManagerID != nil {
		target = *req.ManagerID
	}
	if err := policy.CanCreateRequest(caller, target); err != nil {
		return nil, err
	}

	fr := &model.FeedbackRequest{
		EmployeeID: caller.UserID,
		ManagerID:  target,
		Message:    strings.TrimSpace(req.Message),
		Status:     model.RequestStatusPending,
	}

	err := inTx(ctx, s.repo, func(tx *repository.Repository) error {
		pending, err := tx.Request.HasPending(ctx, fr.EmployeeID, fr.ManagerID)
		if err != nil {
			s.logger.Error("检查待处理请求失败", zap.Error(err))
			return pkgerrors.Store(err)
		}
		if pending {
			return ErrPendingRequestExists
		}
		if err := tx.Request.Create(ctx, fr); err != nil {
			// 并发创建由部分唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPendingRequestExists
			}
			s.logger.Error("创建反馈请求失败", zap.Error(err))
			return pkgerrors.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toFeedbackAskResponse(s.reload(ctx, fr))
	return &resp, nil
}

// ────────────────────── Complete ──────────────────────

func (s *feedbackRequestService) Complete(ctx context.Context, caller identity.Caller, id string, req *dto.CompleteFeedbackAskRequest) (*dto.CompleteFeedbackAskResponse, error) {
	if req.ResultingFeedbackID != nil && req.Feedback != nil {
		return nil, ErrCompletionConflict
	}

	var (
		content *feedbackContent
		v       verdict
	)
	if req.Feedback != nil {
		content = &feedbackContent{
			Strengths:      req.Feedback.Strengths,
			AreasToImprove: req.Feedback.AreasToImprove,
			Notes:          req.Feedback.Notes,
		}
		if err := content.normalize(); err != nil {
			return nil, err
		}

		// 分类前先做一次无锁预检，避免对注定失败的请求调用外部分类器
		current, err := s.getRequest(ctx, s.repo, id, false)
		if err != nil {
			return nil, err
		}
		if err := policy.CanCompleteRequest(caller, current); err != nil {
			return nil, err
		}
		v = classifyContent(ctx, s.classifier, s.logger, *content)
	}

	var (
		completed *model.FeedbackRequest
		created   *model.Feedback
	)
	err := runInTx(ctx, s.repo, s.logger, "request.complete", func(tx *repository.Repository) error {
		completed, created = nil, nil

		fr, err := s.getRequest(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := policy.CanCompleteRequest(caller, fr); err != nil {
			return err
		}

		var resultingID *string
		switch {
		case content != nil:
			employee, err := loadFeedbackTarget(ctx, tx, s.logger, caller, fr.EmployeeID)
			if err != nil {
				return err
			}
			fb, err := insertFeedback(ctx, tx, s.logger, caller, employee, *content, v)
			if err != nil {
				return err
			}
			created = fb
			resultingID = &fb.FeedbackID
		case req.ResultingFeedbackID != nil:
			if err := s.checkResultingFeedback(ctx, tx, caller, fr, *req.ResultingFeedbackID); err != nil {
				return err
			}
			resultingID = req.ResultingFeedbackID
		}

		if err := fr.Complete(time.Now().UTC(), resultingID); err != nil {
			return err
		}
		if err := tx.Request.SaveTransition(ctx, fr); err != nil {
			if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
				s.logger.Error("完成反馈请求失败", zap.String("id", id), zap.Error(err))
			}
			return pkgerrors.Store(err)
		}
		completed = fr
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.CompleteFeedbackAskResponse{Request: toFeedbackAskResponse(s.reload(ctx, completed))}
	if created != nil {
		fbResp := toFeedbackResponse(created)
		if full, err := s.repo.Feedback.GetByID(ctx, created.FeedbackID); err == nil {
			fbResp = toFeedbackResponse(full)
		}
		resp.Feedback = &fbResp
	}
	return resp, nil
}

// checkResultingFeedback 关联反馈须存在，由调用方撰写，且对象为请求发起人
func (s *feedbackRequestService) checkResultingFeedback(ctx context.Context, tx *repository.Repository, caller identity.Caller, fr *model.FeedbackRequest, feedbackID string) error {
	fb, err := tx.Feedback.GetByID(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResultingFeedbackMissing
		}
		s.logger.Error("查询关联反馈失败", zap.String("feedback_id", feedbackID), zap.Error(err))
		return pkgerrors.Store(err)
	}
	if fb.ManagerID != caller.UserID || fb.EmployeeID != fr.EmployeeID {
		return ErrResultingFeedbackInvalid
	}
	return nil
}

// ────────────────────── Cancel ──────────────────────

func (s *feedbackRequestService) Cancel(ctx context.Context, caller identity.Caller, id string) (*dto.FeedbackAskResponse, error) {
	var cancelled *model.FeedbackRequest
	err := runInTx(ctx, s.repo, s.logger, "request.cancel", func(tx *repository.Repository) error {
		fr, err := s.getRequest(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := policy.CanCancelRequest(caller, fr); err != nil {
			return err
		}
		if err := fr.Cancel(time.Now().UTC(), caller.UserID); err != nil {
			return err
		}
		if err := tx.Request.SaveTransition(ctx, fr); err != nil {
			if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
				s.logger.Error("取消反馈请求失败", zap.String("id", id), zap.Error(err))
			}
			return pkgerrors.Store(err)
		}
		cancelled = fr
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toFeedbackAskResponse(s.reload(ctx, cancelled))
	return &resp, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *feedbackRequestService) Get(ctx context.Context, caller identity.Caller, id string) (*dto.FeedbackAskResponse, error) {
	fr, err := s.getRequest(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadRequest(caller, fr); err != nil {
		return nil, err
	}
	resp := toFeedbackAskResponse(fr)
	return &resp, nil
}

func (s *feedbackRequestService) List(ctx context.Context, caller identity.Caller, req *dto.FeedbackAskListRequest) ([]dto.FeedbackAskResponse, int64, error) {
	filter := repository.FeedbackRequestFilter{Status: model.RequestStatus(req.Status)}
	switch caller.Role {
	case model.RoleManager:
		filter.ManagerID = caller.UserID
	case model.RoleEmployee:
		filter.EmployeeID = caller.UserID
	default:
		return nil, 0, pkgerrors.ErrInsufficientRole
	}

	list, total, err := s.repo.Request.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询反馈请求列表失败", zap.Error(err))
		return nil, 0, pkgerrors.Store(err)
	}

	result := make([]dto.FeedbackAskResponse, 0, len(list))
	for i := range list {
		result = append(result, toFeedbackAskResponse(&list[i]))
	}
	return result, total, nil
}

// ── 辅助函数 ──

func (s *feedbackRequestService) getRequest(ctx context.Context, repo *repository.Repository, id string, forUpdate bool) (*model.FeedbackRequest, error) {
	var (
		fr  *model.FeedbackRequest
		err error
	)
	if forUpdate {
		fr, err = repo.Request.GetByIDForUpdate(ctx, id)
	} else {
		fr, err = repo.Request.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询反馈请求失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Store(err)
	}
	return fr, nil
}

func (s *feedbackRequestService) reload(ctx context.Context, fr *model.FeedbackRequest) *model.FeedbackRequest {
	full, err := s.repo.Request.GetByID(ctx, fr.RequestID)
	if err != nil {
		s.logger.Warn("重新读取反馈请求失败", zap.String("id", fr.RequestID), zap.Error(err))
		return fr
	}
	return full
}
