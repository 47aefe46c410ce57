package dto

// ── 仪表盘 DTO ──

// SentimentCounts 按情感分组计数
type SentimentCounts struct {
	Positive int64 `json:"positive"`
	Neutral  int64 `json:"neutral"`
	Negative int64 `json:"negative"`
}

// RequestStatusCounts 按状态分组计数
type RequestStatusCounts struct {
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// ManagerDashboard 经理视图（团队范围）
type ManagerDashboard struct {
	Sentiment        SentimentCounts    `json:"sentiment"`
	TotalFeedback    int64              `json:"total_feedback"`
	DegradedCount    int64              `json:"degraded_count"`
	PendingRequests  int64              `json:"pending_requests"`
	TeamMembersCount int64              `json:"team_members_count"`
	RecentFeedback   []FeedbackResponse `json:"recent_feedback"`
}

// EmployeeDashboard 员工视图（本人范围）
type EmployeeDashboard struct {
	Sentiment           SentimentCounts       `json:"sentiment"`
	TotalFeedback       int64                 `json:"total_feedback"`
	UnacknowledgedCount int64                 `json:"unacknowledged_count"`
	Requests            RequestStatusCounts   `json:"requests"`
	RecentRequests      []FeedbackAskResponse `json:"recent_requests"`
}

// DashboardResponse 按调用方角色填充其中一个视图
type DashboardResponse struct {
	Role     string             `json:"role"`
	Manager  *ManagerDashboard  `json:"manager,omitempty"`
	Employee *EmployeeDashboard `json:"employee,omitempty"`
}
