package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/service"
	"github.com/abhijeets54/feedback-backend/pkg/response"
)

// FeedbackHandler 反馈模块 HTTP 处理器
type FeedbackHandler struct {
	feedbackSvc service.FeedbackService
}

// NewFeedbackHandler 创建 FeedbackHandler
func NewFeedbackHandler(feedbackSvc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackSvc: feedbackSvc}
}

// Create 经理为团队成员撰写反馈
// POST /api/v1/feedback
func (h *FeedbackHandler) Create(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.feedbackSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改反馈（仅作者，且未确认）
// PUT /api/v1/feedback/:id
func (h *FeedbackHandler) Update(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	var req dto.UpdateFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.feedbackSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// Acknowledge 员工确认反馈，重复确认幂等成功
// POST /api/v1/feedback/:id/acknowledge
func (h *FeedbackHandler) Acknowledge(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	result, err := h.feedbackSvc.Acknowledge(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// Get 反馈详情
// GET /api/v1/feedback/:id
func (h *FeedbackHandler) Get(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	result, err := h.feedbackSvc.Get(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}

// List 反馈列表（按角色限定范围）
// GET /api/v1/feedback
func (h *FeedbackHandler) List(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.FeedbackListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.feedbackSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// AddComment 添加评论
// POST /api/v1/feedback/:id/comments
func (h *FeedbackHandler) AddComment(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.feedbackSvc.AddComment(c.Request.Context(), caller, id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// ListComments 评论列表
// GET /api/v1/feedback/:id/comments
func (h *FeedbackHandler) ListComments(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetPathID(c)
	if !ok {
		return
	}

	result, err := h.feedbackSvc.ListComments(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, result)
}
