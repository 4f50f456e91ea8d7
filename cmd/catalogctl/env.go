package main

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/repository"
	"course-catalog/pkg/database"
	applogger "course-catalog/pkg/logger"
)

// env 子命令共用的依赖
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
}

// setup 加载配置、日志与数据库；migrate=true 时先执行迁移
func setup(migrate bool) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	cfg.Log.Format = "console"

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	if migrate {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return nil, err
		}
	}

	return &env{cfg: cfg, logger: logger, db: db, repo: repository.NewRepository(db)}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
	e.logger.Sync()
}
