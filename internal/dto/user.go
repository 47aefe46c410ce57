package dto

// ── 用户模块 DTO ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	ManagerID *string    `json:"manager_id,omitempty"`
	Manager   *UserBrief `json:"manager,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt string     `json:"created_at"`
}

// UserBrief 用户简要信息（嵌入反馈、请求响应）
type UserBrief struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// SetActiveRequest 经理停用/启用团队成员
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
