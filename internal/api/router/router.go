package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/config"
	"github.com/abhijeets54/feedback-backend/internal/api/handler"
	"github.com/abhijeets54/feedback-backend/internal/api/middleware"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/pkg/jwt"
	"github.com/abhijeets54/feedback-backend/pkg/redis"
)

const (
	maxBodyBytes    = 1 << 20
	authRateLimit   = 10
	authRateWindow  = time.Minute
	healthPingLimit = 2 * time.Second
)

// Deps 路由依赖；Redis 与 DB 为 nil 时对应能力降级
type Deps struct {
	Config   *config.Config
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Resolver middleware.CallerResolver
	Redis    *redis.Client
	DB       *sql.DB
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	h := d.Handler

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.Config.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", health(d.DB, d.Redis))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(d.Redis, authRateLimit, authRateWindow, d.Logger))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 注册页选择直属经理
		v1.GET("/users/managers", h.User.ListManagers)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Redis))
		authorized.Use(middleware.ResolveCaller(d.Resolver))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.GET("/team", middleware.RoleAuth(model.RoleManager), h.User.ListTeam)
				users.PATCH("/:id/active", middleware.RoleAuth(model.RoleManager), h.User.SetActive)
			}

			// 反馈模块
			feedback := authorized.Group("/feedback")
			{
				feedback.POST("", middleware.RoleAuth(model.RoleManager), h.Feedback.Create)
				feedback.GET("", h.Feedback.List)
				feedback.GET("/:id", h.Feedback.Get)
				feedback.PUT("/:id", h.Feedback.Update)
				feedback.POST("/:id/acknowledge", h.Feedback.Acknowledge)
				feedback.GET("/:id/comments", h.Feedback.ListComments)
				feedback.POST("/:id/comments", h.Feedback.AddComment)
			}

			// 反馈请求模块
			requests := authorized.Group("/feedback-requests")
			{
				requests.POST("", middleware.RoleAuth(model.RoleEmployee), h.Request.Create)
				requests.GET("", h.Request.List)
				requests.GET("/:id", h.Request.Get)
				requests.POST("/:id/complete", h.Request.Complete)
				requests.POST("/:id/cancel", h.Request.Cancel)
			}

			// 仪表盘
			authorized.GET("/dashboard", h.Dashboard.Get)

			// 导出
			authorized.GET("/export/feedback", middleware.RoleAuth(model.RoleManager), h.Export.ExportTeamFeedback)
		}
	}

	return r
}

// health 检查数据库与 Redis 连通性；数据库不可用返回 503
func health(db *sql.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingLimit)
		defer cancel()

		status := gin.H{"status": "ok", "database": "disabled", "redis": "disabled"}
		code := http.StatusOK

		if db != nil {
			status["database"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				status["database"] = "down"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(ctx); err != nil {
				status["redis"] = "down"
			}
		}

		c.JSON(code, status)
	}
}
