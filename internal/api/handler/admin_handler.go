package handler

import (
	"github.com/gin-gonic/gin"

	"course-catalog/internal/service"
	"course-catalog/pkg/response"
)

// AdminHandler 诊断 HTTP 处理器
type AdminHandler struct {
	catalogSvc service.CatalogService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(catalogSvc service.CatalogService) *AdminHandler {
	return &AdminHandler{catalogSvc: catalogSvc}
}

// Stats 资料统计
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.catalogSvc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, stats)
}
