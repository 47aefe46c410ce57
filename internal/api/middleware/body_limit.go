package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// BodyLimit 请求体大小限制
// 声明长度超限时直接返回 413；未声明长度的请求由 MaxBytesReader 截断，
// 读取失败在绑定阶段映射为 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10007, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
