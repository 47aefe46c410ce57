package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
	"github.com/abhijeets54/feedback-backend/pkg/jwt"
	"github.com/abhijeets54/feedback-backend/pkg/redis"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// 上下文键
const (
	CtxUserID = "user_id"
	CtxClaims = "claims"
	CtxCaller = "caller"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// rdb 为 nil 时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxClaims, claims)

		c.Next()
	}
}

// CallerResolver 由用户 ID 解析调用方
type CallerResolver interface {
	Resolve(ctx context.Context, userID string) (identity.Caller, error)
}

// ResolveCaller 每次请求按数据库当前值解析角色与直属经理，注入 Caller
// 必须位于 JWTAuth 之后
func ResolveCaller(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		if userID == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		caller, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInactiveCaller):
				response.Unauthorized(c, 10002, "账号已停用")
			case errors.Is(err, identity.ErrUnknownCaller):
				response.Unauthorized(c, 10002, "用户不存在")
			case pkgerrors.KindOf(err) == pkgerrors.KindStoreUnavailable:
				response.ServiceUnavailable(c, "存储服务暂不可用，请稍后重试")
			default:
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		c.Set(CtxCaller, caller)
		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前调用方是否具有指定角色之一
func RoleAuth(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxCaller)
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		caller, ok := v.(identity.Caller)
		if ok {
			for _, r := range allowedRoles {
				if caller.Role == r {
					c.Next()
					return
				}
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
