package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// Kind 业务失败类别，由边界层映射为传输层状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotAuthorized
	KindNotAuthor
	KindNotSubject
	KindNotTarget
	KindNotTeamMember
	KindNotYourManager
	KindInvalidState
	KindAlreadyAcknowledged
	KindNotFound
	KindClassifierUnavailable
	KindStoreUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:              "Internal",
	KindValidation:            "ValidationError",
	KindNotAuthorized:         "NotAuthorized",
	KindNotAuthor:             "NotAuthor",
	KindNotSubject:            "NotSubject",
	KindNotTarget:             "NotTarget",
	KindNotTeamMember:         "NotTeamMember",
	KindNotYourManager:        "NotYourManager",
	KindInvalidState:          "InvalidState",
	KindAlreadyAcknowledged:   "AlreadyAcknowledged",
	KindNotFound:              "NotFound",
	KindClassifierUnavailable: "ClassifierUnavailable",
	KindStoreUnavailable:      "StoreUnavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsDenial 是否为授权拒绝类错误（与参数校验、状态冲突严格区分）
func (k Kind) IsDenial() bool {
	switch k {
	case KindNotAuthorized, KindNotAuthor, KindNotSubject, KindNotTarget, KindNotTeamMember, KindNotYourManager:
		return true
	default:
		return false
	}
}

// Error 带类别的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建指定类别的业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation 创建参数校验错误
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Store 将持久化层错误包装为 StoreUnavailable（调用方可重试）
// 已分类的业务错误与乐观锁冲突原样返回
func Store(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) || errors.Is(err, ErrOptimisticLock) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Message: "存储服务暂不可用，请稍后重试", Err: err}
}

// KindOf 提取错误类别；未分类错误视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable 调用方是否可以原样重试
func IsRetryable(err error) bool {
	return KindOf(err) == KindStoreUnavailable || errors.Is(err, ErrOptimisticLock)
}

// ── 授权与状态机失败 ──

var (
	ErrInsufficientRole      = New(KindNotAuthorized, "角色权限不足")
	ErrNotResourceOwner      = New(KindNotAuthorized, "非资源所有者")
	ErrNotAuthor             = New(KindNotAuthor, "只能修改自己撰写的反馈")
	ErrNotSubject            = New(KindNotSubject, "只能确认发给自己的反馈")
	ErrNotTarget             = New(KindNotTarget, "只能处理发给自己的反馈请求")
	ErrNotTeamMember         = New(KindNotTeamMember, "只能为本团队成员撰写反馈")
	ErrNotYourManager        = New(KindNotYourManager, "只能向自己的直属经理请求反馈")
	ErrAlreadyAcknowledged   = New(KindAlreadyAcknowledged, "反馈已确认，不可修改")
	ErrInvalidState          = New(KindInvalidState, "当前状态不允许此操作")
	ErrClassifierUnavailable = New(KindClassifierUnavailable, "情感分类服务不可用")
)
