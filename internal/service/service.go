package service

import (
	"go.uber.org/zap"

	"course-catalog/config"
	"course-catalog/internal/repository"
	"course-catalog/internal/session"
	"course-catalog/pkg/jwt"
	"course-catalog/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	Catalog       CatalogService
	Personal      PersonalScheduleService
	TeacherCourse TeacherCourseService
	Import        ImportService
	Export        ExportService

	Seeder *AccountSeeder
	View   *CourseView
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	sessions session.Store,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	view := NewCourseView(&cfg.Catalog)
	seeder := NewAccountSeeder(&cfg.Demo, repo, logger)
	resolver := NewRequiredCourseResolver(&cfg.Personal, repo, logger)
	store := NewPersonalStore(repo, resolver, logger)

	return &Service{
		Auth:          NewAuthService(cfg, repo, jwtMgr, sessions, rdb, seeder, logger),
		Catalog:       NewCatalogService(cfg, repo, view, logger),
		Personal:      NewPersonalScheduleService(&cfg.Personal, repo, store, resolver, view, logger),
		TeacherCourse: NewTeacherCourseService(&cfg.Catalog, repo, view, logger),
		Import:        NewImportService(&cfg.Catalog, repo, logger),
		Export:        NewExportService(&cfg.Personal, view, logger),
		Seeder:        seeder,
		View:          view,
	}
}
