package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
// role=employee 时 manager_id 必填且须为在职经理；role=manager 时不得填写
type RegisterRequest struct {
	Email     string  `json:"email"      binding:"required,email,max=255"`
	FullName  string  `json:"full_name"  binding:"required,min=2,max=100"`
	Password  string  `json:"password"   binding:"required,min=8,max=64"`
	Role      string  `json:"role"       binding:"required,oneof=manager employee"`
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 登出请求，refresh_token 可选，一并加入黑名单
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}
