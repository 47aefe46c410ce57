package dto

// ── 反馈模块 DTO ──

// CreateFeedbackRequest 创建反馈请求
type CreateFeedbackRequest struct {
	EmployeeID     string `json:"employee_id"      binding:"required,uuid"`
	Strengths      string `json:"strengths"        binding:"required,max=5000"`
	AreasToImprove string `json:"areas_to_improve" binding:"required,max=5000"`
	Notes          string `json:"notes"            binding:"max=5000"`
}

// UpdateFeedbackRequest 修改反馈（仅提交的字段生效）
type UpdateFeedbackRequest struct {
	Strengths      *string `json:"strengths"        binding:"omitempty,max=5000"`
	AreasToImprove *string `json:"areas_to_improve" binding:"omitempty,max=5000"`
	Notes          *string `json:"notes"            binding:"omitempty,max=5000"`
}

// FeedbackListRequest 反馈列表查询参数
type FeedbackListRequest struct {
	PaginationRequest
	EmployeeID   string `form:"employee_id"  binding:"omitempty,uuid"`
	Sentiment    string `form:"sentiment"    binding:"omitempty,oneof=positive neutral negative"`
	Acknowledged *bool  `form:"acknowledged"`
}

// FeedbackResponse 反馈信息响应
type FeedbackResponse struct {
	ID                string     `json:"id"`
	ManagerID         string     `json:"manager_id"`
	EmployeeID        string     `json:"employee_id"`
	Manager           *UserBrief `json:"manager,omitempty"`
	Employee          *UserBrief `json:"employee,omitempty"`
	Strengths         string     `json:"strengths"`
	AreasToImprove    string     `json:"areas_to_improve"`
	Notes             string     `json:"notes,omitempty"`
	Sentiment         string     `json:"sentiment"`
	SentimentDegraded bool       `json:"sentiment_degraded"`
	Acknowledged      bool       `json:"acknowledged"`
	AcknowledgedAt    *string    `json:"acknowledged_at,omitempty"`
	Version           int        `json:"version"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

// AcknowledgeResponse 确认结果；transitioned=false 表示此前已确认（幂等）
type AcknowledgeResponse struct {
	Feedback     FeedbackResponse `json:"feedback"`
	Transitioned bool             `json:"transitioned"`
}

// CreateCommentRequest 添加评论
type CreateCommentRequest struct {
	Comment string `json:"comment" binding:"required,max=2000"`
}

// CommentResponse 评论信息
type CommentResponse struct {
	ID         string     `json:"id"`
	FeedbackID string     `json:"feedback_id"`
	UserID     string     `json:"user_id"`
	User       *UserBrief `json:"user,omitempty"`
	Comment    string     `json:"comment"`
	CreatedAt  string     `json:"created_at"`
}
