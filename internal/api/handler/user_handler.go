package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/service"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetCurrentUser 获取当前用户信息
// GET /api/v1/users/me
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Me(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, user)
}

// ListTeam 经理查看团队成员
// GET /api/v1/users/team
func (h *UserHandler) ListTeam(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	users, err := h.userSvc.Team(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, users)
}

// ListManagers 在职经理列表（注册时选择直属经理）
// GET /api/v1/users/managers
func (h *UserHandler) ListManagers(c *gin.Context) {
	managers, err := h.userSvc.Managers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, managers)
}

// SetActive 停用/启用团队成员
// PATCH /api/v1/users/:id/active
func (h *UserHandler) SetActive(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.SetActive(c.Request.Context(), caller, id, *req.IsActive)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, user)
}
