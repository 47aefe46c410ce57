package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/internal/service"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

type errorStatus struct {
	httpStatus int
	code       int
}

// 业务错误类别 → HTTP 状态码与业务码
var kindStatus = map[pkgerrors.Kind]errorStatus{
	pkgerrors.KindValidation:            {http.StatusBadRequest, 10001},
	pkgerrors.KindNotAuthorized:         {http.StatusForbidden, 10003},
	pkgerrors.KindNotAuthor:             {http.StatusForbidden, 12001},
	pkgerrors.KindNotSubject:            {http.StatusForbidden, 12002},
	pkgerrors.KindNotTeamMember:         {http.StatusForbidden, 12003},
	pkgerrors.KindNotTarget:             {http.StatusForbidden, 13001},
	pkgerrors.KindNotYourManager:        {http.StatusForbidden, 13002},
	pkgerrors.KindNotFound:              {http.StatusNotFound, 10005},
	pkgerrors.KindAlreadyAcknowledged:   {http.StatusConflict, 12004},
	pkgerrors.KindInvalidState:          {http.StatusConflict, 13003},
	pkgerrors.KindClassifierUnavailable: {http.StatusServiceUnavailable, 50301},
}

// writeError 将 Service 层错误写为统一响应
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "邮箱或密码错误")
		return
	case errors.Is(err, service.ErrAccountInactive):
		response.Unauthorized(c, 11002, "账号已停用")
		return
	case errors.Is(err, service.ErrInvalidRefresh):
		response.Unauthorized(c, 11003, "refresh token 无效或已过期")
		return
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
		return
	}

	kind := pkgerrors.KindOf(err)
	if kind == pkgerrors.KindStoreUnavailable {
		response.ServiceUnavailable(c, "存储服务暂不可用，请稍后重试")
		return
	}

	st, ok := kindStatus[kind]
	if !ok {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	var e *pkgerrors.Error
	message := err.Error()
	if errors.As(err, &e) {
		message = e.Message
	}
	response.Error(c, st.httpStatus, st.code, message)
}
