package service

import (
	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/config"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	"github.com/abhijeets54/feedback-backend/internal/sentiment"
	"github.com/abhijeets54/feedback-backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Feedback  FeedbackService
	Request   FeedbackRequestService
	Dashboard DashboardService
	Export    ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（未启用 Redis 时登出仅依赖 Token 自然过期）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	classifier sentiment.Classifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:      NewAuthService(repo, jwtMgr, blacklist, logger),
		User:      NewUserService(repo, logger),
		Feedback:  NewFeedbackService(repo, classifier, logger),
		Request:   NewFeedbackRequestService(repo, classifier, logger),
		Dashboard: NewDashboardService(repo, cfg.Dashboard.RecentLimit, logger),
		Export:    NewExportService(repo, logger),
	}
}
