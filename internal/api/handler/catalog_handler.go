package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-catalog/internal/dto"
	"course-catalog/internal/service"
	"course-catalog/pkg/response"
)

// CatalogHandler 课程目录 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// Query 目录查询
// GET /api/v1/courses?semester=&system=&day=1&day=2&period=3...
func (h *CatalogHandler) Query(c *gin.Context) {
	var req dto.CourseQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.catalogSvc.Query(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, result)
}

// Options 查询表单的选项
// GET /api/v1/courses/options
func (h *CatalogHandler) Options(c *gin.Context) {
	opts, err := h.catalogSvc.Options(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, opts)
}

// GetCourse 课程详情
// GET /api/v1/courses/:id
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	course, err := h.catalogSvc.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, course)
}

// TeacherInfo 教师资讯
// GET /api/v1/teachers/info?name=
func (h *CatalogHandler) TeacherInfo(c *gin.Context) {
	var req dto.TeacherInfoRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	info, err := h.catalogSvc.TeacherInfo(c.Request.Context(), req.Name)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, info)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCatalogNoCondition):
		response.BadRequest(c, 12001, err.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12002, err.Error())
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 12003, err.Error())
	default:
		response.InternalError(c)
	}
}
