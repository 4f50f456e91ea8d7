package handler

import (
	"go.uber.org/zap"

	"course-catalog/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Catalog  *CatalogHandler
	Personal *PersonalHandler
	Teacher  *TeacherHandler
	Import   *ImportHandler
	Admin    *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Catalog:  NewCatalogHandler(svc.Catalog),
		Personal: NewPersonalHandler(svc.Personal, svc.Export, logger),
		Teacher:  NewTeacherHandler(svc.TeacherCourse),
		Import:   NewImportHandler(svc.Import, logger),
		Admin:    NewAdminHandler(svc.Catalog),
	}
}
