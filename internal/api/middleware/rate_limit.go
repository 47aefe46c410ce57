package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/pkg/redis"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

const rateLimitPrefix = "feedback:rate_limit"

// RateLimit 按客户端 IP + 路由的滑动窗口限流
// rdb 为 nil 或 Redis 出错时放行，不影响登录注册可用性
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s:%s", rateLimitPrefix, c.FullPath(), c.ClientIP())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("限流检查失败，放行请求", zap.String("path", c.FullPath()), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", retryAfter)
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
