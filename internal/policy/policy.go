// Package policy 授权决策：纯函数，无 I/O、无日志。
// 每条规则返回 nil 表示放行，否则返回 pkg/errors 中带类别的拒绝错误。
// 角色按封闭枚举穷举匹配，未知角色一律拒绝。
package policy

import (
	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// Scope 读取场景
type Scope int

const (
	// ScopeDirect 按 ID 直接读取：仅反馈双方
	ScopeDirect Scope = iota
	// ScopeList 列表读取：经理额外可见本团队成员的反馈
	ScopeList
)

// ── 反馈 ──

// CanCreateFeedback 经理只能为直属下属撰写反馈
func CanCreateFeedback(caller identity.Caller, employee *model.User) error {
	switch caller.Role {
	case model.RoleManager:
		if employee == nil || !employee.ReportsTo(caller.UserID) {
			return pkgerrors.ErrNotTeamMember
		}
		return nil
	case model.RoleEmployee:
		return pkgerrors.ErrInsufficientRole
	default:
		return pkgerrors.ErrInsufficientRole
	}
}

// CanUpdateFeedback 仅作者且反馈未确认时可修改；先判断确认状态
func CanUpdateFeedback(caller identity.Caller, fb *model.Feedback) error {
	if fb.Acknowledged {
		return pkgerrors.ErrAlreadyAcknowledged
	}
	switch caller.Role {
	case model.RoleManager:
		if fb.ManagerID != caller.UserID {
			return pkgerrors.ErrNotAuthor
		}
		return nil
	case model.RoleEmployee:
		return pkgerrors.ErrNotAuthor
	default:
		return pkgerrors.ErrInsufficientRole
	}
}

// CanAcknowledgeFeedback 仅反馈对象本人可确认
// 已确认的情况由生命周期按幂等成功处理，此处不拒绝
func CanAcknowledgeFeedback(caller identity.Caller, fb *model.Feedback) error {
	switch caller.Role {
	case model.RoleEmployee:
		if fb.EmployeeID != caller.UserID {
			return pkgerrors.ErrNotSubject
		}
		return nil
	case model.RoleManager:
		return pkgerrors.ErrNotSubject
	default:
		return pkgerrors.ErrInsufficientRole
	}
}

// CanReadFeedback 反馈双方可读；列表场景下经理还可读取团队成员的反馈
// employeeManagerID 为反馈对象当前的 manager_id
func CanReadFeedback(caller identity.Caller, fb *model.Feedback, scope Scope, employeeManagerID *string) error {
	if !caller.Role.Valid() {
		return pkgerrors.ErrInsufficientRole
	}
	if caller.UserID == fb.ManagerID || caller.UserID == fb.EmployeeID {
		return nil
	}
	if scope == ScopeList && caller.Role == model.RoleManager &&
		employeeManagerID != nil && *employeeManagerID == caller.UserID {
		return nil
	}
	return pkgerrors.ErrNotResourceOwner
}

// CanCommentFeedback 评论权限与直接读取一致
func CanCommentFeedback(caller identity.Caller, fb *model.Feedback) error {
	return CanReadFeedback(caller, fb, ScopeDirect, nil)
}

// ── 反馈请求 ──

// CanCreateRequest 员工只能向自己当前的直属经理发起请求
func CanCreateRequest(caller identity.Caller, managerID string) error {
	switch caller.Role {
	case model.RoleEmployee:
		if caller.ManagerID == nil || *caller.ManagerID != managerID {
			return pkgerrors.ErrNotYourManager
		}
		return nil
	case model.RoleManager:
		return pkgerrors.ErrInsufficientRole
	default:
		return pkgerrors.ErrInsufficientRole
	}
}

// CanCompleteRequest 仅目标经理可完成，且请求须处于 pending
func CanCompleteRequest(caller identity.Caller, req *model.FeedbackRequest) error {
	if _, err := req.Status.Next(model.RequestEventComplete); err != nil {
		return err
	}
	switch caller.Role {
	case model.RoleManager:
		if req.ManagerID != caller.UserID {
			return pkgerrors.ErrNotTarget
		}
		return nil
	case model.RoleEmployee:
		return pkgerrors.ErrNotTarget
	default:
		return pkgerrors.ErrInsufficientRole
	}
}

// CanCancelRequest 请求发起人或目标经理可取消，且请求须处于 pending
func CanCancelRequest(caller identity.Caller, req *model.FeedbackRequest) error {
	if _, err := req.Status.Next(model.RequestEventCancel); err != nil {
		return err
	}
	switch caller.Role {
	case model.RoleEmployee:
		if req.EmployeeID != caller.UserID {
			return pkgerrors.ErrNotResourceOwner
		}
		return nil
	case model.RoleManager:
		if req.ManagerID != caller.UserID {
			return pkgerrors.ErrNotResourceOwner
		}
		return nil
	default:
		return pkgerrors.ErrInsufficientRole
	}
}

// CanReadRequest 员工只能看自己发起的请求，经理只能看发给自己的请求
func CanReadRequest(caller identity.Caller, req *model.FeedbackRequest) error {
	switch caller.Role {
	case model.RoleEmployee:
		if req.EmployeeID == caller.UserID {
			return nil
		}
	case model.RoleManager:
		if req.ManagerID == caller.UserID {
			return nil
		}
	default:
		return pkgerrors.ErrInsufficientRole
	}
	return pkgerrors.ErrNotResourceOwner
}

// ── 用户 ──

// CanSetUserActive 经理可停用/启用本团队成员
func CanSetUserActive(caller identity.Caller, target *model.User) error {
	switch caller.Role {
	case model.RoleManager:
		if !target.ReportsTo(caller.UserID) {
			return pkgerrors.ErrNotTeamMember
		}
		return nil
	case model.RoleEmployee:
		return pkgerrors.ErrInsufficientRole
	default:
		return pkgerrors.ErrInsufficientRole
	}
}

// RequireManager 仅经理可访问（团队列表、导出）
func RequireManager(caller identity.Caller) error {
	if caller.Role != model.RoleManager {
		return pkgerrors.ErrInsufficientRole
	}
	return nil
}
