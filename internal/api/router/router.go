package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/api/handler"
	"course-catalog/internal/api/middleware"
	"course-catalog/internal/model"
	"course-catalog/internal/session"
	"course-catalog/pkg/jwt"
	"course-catalog/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// db 仅用于健康检查，可为 nil
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	sessions session.Store,
	db *gorm.DB,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", health(db))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.GET("/demo-login", middleware.RateLimit(rdb, 30, time.Minute), h.Auth.DemoLogin)
		}

		// 课程目录（公开）
		courses := v1.Group("/courses")
		{
			courses.GET("", h.Catalog.Query)
			courses.GET("/options", h.Catalog.Options)
			courses.GET("/:id", h.Catalog.GetCourse)
		}
		v1.GET("/teachers/info", h.Catalog.TeacherInfo)

		// 需要认证的路由：JWT → 会话
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		authorized.Use(middleware.Session(sessions, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 个人课表（学生身分由 Service 层判定）
			personal := authorized.Group("/personal")
			{
				personal.GET("", h.Personal.View)
				personal.POST("/courses/:id", h.Personal.Add)
				personal.DELETE("/courses/:id", h.Personal.Remove)
				personal.GET("/export.ics", h.Personal.ExportICS)
				personal.GET("/export.xlsx", h.Personal.ExportXLSX)
			}

			// 老师课程管理
			teacher := authorized.Group("/teacher", middleware.RoleAuth(model.RoleTeacher))
			{
				teacher.GET("/courses", h.Teacher.List)
				teacher.POST("/courses", h.Teacher.Create)
				teacher.DELETE("/courses/:id", h.Teacher.Delete)
			}

			// Excel 导入
			imports := authorized.Group("/imports", middleware.RoleAuth(model.RoleTeacher))
			{
				imports.POST("/courses", h.Import.Upload)
				imports.POST("/directory", h.Import.ImportDir)
				imports.POST("/backfill-classroom", h.Import.BackfillClassroom)
			}

			// 诊断
			authorized.GET("/admin/stats", middleware.RoleAuth(model.RoleTeacher), h.Admin.Stats)
		}
	}

	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}
