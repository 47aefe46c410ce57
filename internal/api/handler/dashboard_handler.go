package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/internal/service"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// DashboardHandler 仪表盘 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Get 按调用方角色返回仪表盘
// GET /api/v1/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.dashboardSvc.Get(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}
