package dto

// ── 反馈请求模块 DTO ──

// CreateFeedbackAskRequest 员工发起反馈请求
// manager_id 可省略，默认为本人当前经理；填写时必须与之相同
type CreateFeedbackAskRequest struct {
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
	Message   string  `json:"message"    binding:"max=2000"`
}

// InlineFeedback 完成请求时一并创建的反馈内容（对象为请求发起人）
type InlineFeedback struct {
	Strengths      string `json:"strengths"        binding:"required,max=5000"`
	AreasToImprove string `json:"areas_to_improve" binding:"required,max=5000"`
	Notes          string `json:"notes"            binding:"max=5000"`
}

// CompleteFeedbackAskRequest 完成请求
// resulting_feedback_id 与 feedback 至多填写一项；均不填表示仅标记完成
type CompleteFeedbackAskRequest struct {
	ResultingFeedbackID *string         `json:"resulting_feedback_id" binding:"omitempty,uuid"`
	Feedback            *InlineFeedback `json:"feedback"`
}

// FeedbackAskListRequest 请求列表查询参数
type FeedbackAskListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending completed cancelled"`
}

// FeedbackAskResponse 反馈请求响应
type FeedbackAskResponse struct {
	ID                  string     `json:"id"`
	EmployeeID          string     `json:"employee_id"`
	ManagerID           string     `json:"manager_id"`
	Employee            *UserBrief `json:"employee,omitempty"`
	Manager             *UserBrief `json:"manager,omitempty"`
	Message             string     `json:"message,omitempty"`
	Status              string     `json:"status"`
	CompletedAt         *string    `json:"completed_at,omitempty"`
	CancelledAt         *string    `json:"cancelled_at,omitempty"`
	CancelledBy         *string    `json:"cancelled_by,omitempty"`
	ResultingFeedbackID *string    `json:"resulting_feedback_id,omitempty"`
	Version             int        `json:"version"`
	CreatedAt           string     `json:"created_at"`
}

// CompleteFeedbackAskResponse 完成结果；内联创建反馈时 feedback 非空
type CompleteFeedbackAskResponse struct {
	Request  FeedbackAskResponse `json:"request"`
	Feedback *FeedbackResponse   `json:"feedback,omitempty"`
}
