package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkglogger "github.com/abhijeets54/feedback-backend/pkg/logger"
)

// Logger 请求日志中间件（基于 Zap 结构化日志）
// 需位于 RequestID 之后，日志携带 request_id
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		reqLogger := pkglogger.WithRequestID(logger, c.GetString(CtxRequestID))

		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if uid := c.GetString(CtxUserID); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		if statusCode >= 500 {
			reqLogger.Error("请求处理失败", fields...)
		} else if statusCode >= 400 {
			reqLogger.Warn("客户端错误", fields...)
		} else {
			reqLogger.Info("请求完成", fields...)
		}
	}
}
