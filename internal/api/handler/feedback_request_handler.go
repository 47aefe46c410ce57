package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/service"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// FeedbackRequestHandler 反馈请求模块 HTTP 处理器
type FeedbackRequestHandler struct {
	requestSvc service.FeedbackRequestService
}

// NewFeedbackRequestHandler 创建 FeedbackRequestHandler
func NewFeedbackRequestHandler(requestSvc service.FeedbackRequestService) *FeedbackRequestHandler {
	return &FeedbackRequestHandler{requestSvc: requestSvc}
}

// Create 员工向直属经理请求反馈
// POST /api/v1/feedback-requests
func (h *FeedbackRequestHandler) Create(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateFeedbackAskRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.requestSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// Complete 经理完成请求，可内联撰写反馈
// POST /api/v1/feedback-requests/:id/complete
func (h *FeedbackRequestHandler) Complete(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	var req dto.CompleteFeedbackAskRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.requestSvc.Complete(c.Request.Context(), caller, id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// Cancel 取消请求
// POST /api/v1/feedback-requests/:id/cancel
func (h *FeedbackRequestHandler) Cancel(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.Cancel(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// Get 请求详情
// GET /api/v1/feedback-requests/:id
func (h *FeedbackRequestHandler) Get(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.Get(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// List 请求列表（员工看发出的，经理看收到的）
// GET /api/v1/feedback-requests
func (h *FeedbackRequestHandler) List(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.FeedbackAskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.requestSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
