package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/replyre/kiit-lms-final-sub000/config"
	"github.com/replyre/kiit-lms-final-sub000/internal/api/handler"
	"github.com/replyre/kiit-lms-final-sub000/internal/api/middleware"
	"github.com/replyre/kiit-lms-final-sub000/internal/model"
	"github.com/replyre/kiit-lms-final-sub000/pkg/jwt"
	"github.com/replyre/kiit-lms-final-sub000/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与登录限流降级关闭
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// nil 指针不能直接赋给接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 指标 ──
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		r.Use(middleware.NewMetrics(cfg.Metrics.Namespace, reg).Handler())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db, rdb))

	teacherOnly := middleware.RoleAuth(model.RoleTeacher)
	studentOnly := middleware.RoleAuth(model.RoleStudent)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.POST("", teacherOnly, h.Course.CreateCourse)
				courses.GET("/:id", teacherOnly, h.Course.GetCourse)
				courses.POST("/:id/roster", teacherOnly, h.Course.ImportRoster)
				courses.GET("/:id/attendance/me", studentOnly, h.Course.MyAttendance)

				// 编辑草稿
				draft := courses.Group("/:id/draft", teacherOnly)
				{
					draft.POST("", h.Draft.OpenDraft)
					draft.GET("", h.Draft.GetDraft)
					draft.DELETE("", h.Draft.DiscardDraft)
					draft.POST("/actions", h.Draft.ApplyActions)
					draft.POST("/save", h.Draft.SaveDraft)
					draft.POST("/schedule", h.Draft.ImportSchedule)
					draft.GET("/attendance", h.Draft.SessionAttendance)
					draft.GET("/stats", h.Draft.Stats)
				}

				// 导出（基于已保存文档）
				courses.GET("/:id/export/attendance", teacherOnly, h.Export.ExportAttendance)
				courses.GET("/:id/export/schedule.ics", h.Export.ExportSchedule)
			}

			// 成绩折算
			grades := authorized.Group("/grades", teacherOnly)
			{
				grades.POST("/compute", h.Grade.ComputeGrades)
				grades.POST("/export", h.Grade.ExportGrades)
			}
		}
	}

	return r
}

// healthCheck 检查数据库与 Redis 连通性；Redis 未启用时不影响结果
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				status["status"], status["database"] = "degraded", "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				status["status"], status["redis"] = "degraded", "unreachable"
			} else {
				status["redis"] = "ok"
			}
		}

		c.JSON(code, status)
	}
}
