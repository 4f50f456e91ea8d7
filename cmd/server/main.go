package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"course-catalog/config"
	"course-catalog/internal/api/handler"
	"course-catalog/internal/api/middleware"
	"course-catalog/internal/api/router"
	"course-catalog/internal/repository"
	"course-catalog/internal/service"
	"course-catalog/internal/session"
	"course-catalog/pkg/database"
	"course-catalog/pkg/jwt"
	applogger "course-catalog/pkg/logger"
	"course-catalog/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("COURSE_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("session_driver", cfg.Session.Driver),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行；会话驱动为 redis 时除外）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. JWT 与会话存储
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	sessions, err := session.NewStore(&cfg.Session, rdb, repo, logger)
	if err != nil {
		logger.Fatal("初始化会话存储失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	svc := service.NewService(cfg, repo, jwtMgr, sessions, rdb, logger)
	h := handler.NewHandler(svc, logger)

	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("注册参数校验规则失败", zap.Error(err))
	}

	// 7. 启动时任务：演示账号、自动导入
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := svc.Seeder.EnsureDefaults(bootCtx); err != nil {
		logger.Warn("演示账号补齐失败，将于登录时重试", zap.Error(err))
	}
	if err := svc.Import.AutoImport(bootCtx); err != nil {
		logger.Error("自动导入失败", zap.Error(err))
	}
	bootCancel()

	// 数据库会话需定期清理过期记录
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	if cfg.Session.Driver == "database" {
		go cleanupSessions(cleanupCtx, repo.Session, logger)
	}

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, sessions, db, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	stopCleanup()

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// cleanupSessions 每小时删除过期会话
func cleanupSessions(ctx context.Context, repo repository.SessionRepository, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				logger.Warn("清理过期会话失败", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("已清理过期会话", zap.Int64("count", n))
			}
		}
	}
}
