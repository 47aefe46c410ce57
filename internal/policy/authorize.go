package policy

import (
	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// Operation 受授权控制的操作
type Operation int

const (
	OpCreateFeedback Operation = iota + 1
	OpUpdateFeedback
	OpAcknowledgeFeedback
	OpReadFeedback
	OpCreateRequest
	OpCompleteRequest
	OpCancelRequest
	OpReadRequest
)

// Target 被操作对象；按 Operation 填写对应字段
type Target struct {
	Employee          *model.User
	Feedback          *model.Feedback
	Request           *model.FeedbackRequest
	ManagerID         string
	Scope             Scope
	EmployeeManagerID *string
}

// Authorize 按操作分派到对应规则；缺少目标或未知操作默认拒绝
func Authorize(caller identity.Caller, op Operation, target Target) error {
	switch op {
	case OpCreateFeedback:
		return CanCreateFeedback(caller, target.Employee)
	case OpUpdateFeedback:
		if target.Feedback == nil {
			return pkgerrors.ErrNotResourceOwner
		}
		return CanUpdateFeedback(caller, target.Feedback)
	case OpAcknowledgeFeedback:
		if target.Feedback == nil {
			return pkgerrors.ErrNotResourceOwner
		}
		return CanAcknowledgeFeedback(caller, target.Feedback)
	case OpReadFeedback:
		if target.Feedback == nil {
			return pkgerrors.ErrNotResourceOwner
		}
		return CanReadFeedback(caller, target.Feedback, target.Scope, target.EmployeeManagerID)
	case OpCreateRequest:
		return CanCreateRequest(caller, target.ManagerID)
	case OpCompleteRequest:
		if target.Request == nil {
			return pkgerrors.ErrNotResourceOwner
		}
		return CanCompleteRequest(caller, target.Request)
	case OpCancelRequest:
		if target.Request == nil {
			return pkgerrors.ErrNotResourceOwner
		}
		return CanCancelRequest(caller, target.Request)
	case OpReadRequest:
		if target.Request == nil {
			return pkgerrors.ErrNotResourceOwner
		}
		return CanReadRequest(caller, target.Request)
	default:
		return pkgerrors.ErrInsufficientRole
	}
}
