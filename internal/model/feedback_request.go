package model

import (
	"time"

	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// RequestStatus 反馈请求状态
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// RequestStatuses 全部状态取值
var RequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusCompleted, RequestStatusCancelled}

// RequestEvent 反馈请求状态机事件
type RequestEvent string

const (
	RequestEventComplete RequestEvent = "complete"
	RequestEventCancel   RequestEvent = "cancel"
)

// requestTransitions 完整迁移表；表中没有的组合一律为非法迁移
var requestTransitions = map[RequestStatus]map[RequestEvent]RequestStatus{
	RequestStatusPending: {
		RequestEventComplete: RequestStatusCompleted,
		RequestEventCancel:   RequestStatusCancelled,
	},
	RequestStatusCompleted: {},
	RequestStatusCancelled: {},
}

// Valid 是否为已知状态
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// IsTerminal 是否为终态
func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

// Next 计算事件作用后的状态，非法迁移返回 ErrInvalidState
func (s RequestStatus) Next(event RequestEvent) (RequestStatus, error) {
	next, ok := requestTransitions[s][event]
	if !ok {
		return s, pkgerrors.ErrInvalidState
	}
	return next, nil
}

// FeedbackRequest 反馈请求表，对应 feedback_requests
// ResultingFeedbackID 为软关联，不建外键
type FeedbackRequest struct {
	RequestID           string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	EmployeeID          string        `gorm:"type:uuid;not null"                             json:"employee_id"`
	ManagerID           string        `gorm:"type:uuid;not null"                             json:"manager_id"`
	Message             string        `gorm:"type:text;not null;default:''"                  json:"message"`
	Status              RequestStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty"`
	CancelledBy         *string       `gorm:"type:uuid"                                      json:"cancelled_by,omitempty"`
	ResultingFeedbackID *string       `gorm:"type:uuid"                                      json:"resulting_feedback_id,omitempty"`
	VersionedModel

	// 关联
	Employee *User `gorm:"foreignKey:EmployeeID;references:UserID" json:"employee,omitempty"`
	Manager  *User `gorm:"foreignKey:ManagerID;references:UserID"  json:"manager,omitempty"`
}

// TableName 指定表名
func (FeedbackRequest) TableName() string { return "feedback_requests" }

// Complete 迁移到 completed 并记录完成时间
func (r *FeedbackRequest) Complete(now time.Time, resultingFeedbackID *string) error {
	next, err := r.Status.Next(RequestEventComplete)
	if err != nil {
		return err
	}
	r.Status = next
	r.CompletedAt = &now
	r.ResultingFeedbackID = resultingFeedbackID
	return nil
}

// Cancel 迁移到 cancelled 并记录操作人
func (r *FeedbackRequest) Cancel(now time.Time, by string) error {
	next, err := r.Status.Next(RequestEventCancel)
	if err != nil {
		return err
	}
	r.Status = next
	r.CancelledAt = &now
	r.CancelledBy = &by
	return nil
}
