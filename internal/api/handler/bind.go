package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// bindJSON 绑定并校验 JSON 请求体；失败时写入响应并返回 false
func bindJSON(c *gin.Context, obj interface{}) bool {
	return bind(c, obj, false)
}

// bindOptionalJSON 同 bindJSON，但允许空请求体
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	return bind(c, obj, true)
}

func bind(c *gin.Context, obj interface{}, optional bool) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10007, "请求体过大")
		return false
	}
	response.BadRequest(c, 10001, "参数校验失败")
	return false
}
