package handler

import "github.com/abhijeets54/feedback-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Feedback  *FeedbackHandler
	Request   *FeedbackRequestHandler
	Dashboard *DashboardHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth, svc.User),
		User:      NewUserHandler(svc.User),
		Feedback:  NewFeedbackHandler(svc.Feedback),
		Request:   NewFeedbackRequestHandler(svc.Request),
		Dashboard: NewDashboardHandler(svc.Dashboard),
		Export:    NewExportHandler(svc.Export),
	}
}
