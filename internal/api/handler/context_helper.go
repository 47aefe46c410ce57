package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/pkg/jwt"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// MustGetCaller 从 Gin 上下文中安全提取调用方。
// 如果 ResolveCaller 中间件未注入 caller，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetCaller(c *gin.Context) (identity.Caller, bool) {
	v, exists := c.Get("caller")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return identity.Caller{}, false
	}
	caller, ok := v.(identity.Caller)
	if !ok || caller.UserID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return identity.Caller{}, false
	}
	return caller, true
}

// MustGetClaims 从 Gin 上下文中安全提取 Access Token 声明。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// MustGetPathID 提取并校验路径中的 :id（UUID）
func MustGetPathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, 10001, "ID 格式无效")
		return "", false
	}
	return id, true
}
