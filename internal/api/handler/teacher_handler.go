package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-catalog/internal/dto"
	"course-catalog/internal/service"
	"course-catalog/pkg/response"
)

// TeacherHandler 老师课程管理 HTTP 处理器
type TeacherHandler struct {
	courseSvc service.TeacherCourseService
}

// NewTeacherHandler 创建 TeacherHandler
func NewTeacherHandler(courseSvc service.TeacherCourseService) *TeacherHandler {
	return &TeacherHandler{courseSvc: courseSvc}
}

// List 老师自己的课程
// GET /api/v1/teacher/courses?semester=1141
func (h *TeacherHandler) List(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	courses, err := h.courseSvc.List(c.Request.Context(), caller, c.Query("semester"))
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.OK(c, gin.H{"list": courses, "total": len(courses)})
}

// Create 新增课程
// POST /api/v1/teacher/courses
func (h *TeacherHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.Created(c, course)
}

// Delete 删除自己在固定学期的课程
// DELETE /api/v1/teacher/courses/:id
func (h *TeacherHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleTeacherError(c, err)
		return
	}

	response.OKWithMessage(c, "課程已刪除。", nil)
}

func (h *TeacherHandler) handleTeacherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeacherProfileMissing):
		response.Forbidden(c, 14001, err.Error())
	case errors.Is(err, service.ErrTeacherSemesterMissing):
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, service.ErrTeacherCourseNotFound):
		response.NotFound(c, 14003, err.Error())
	default:
		response.InternalError(c)
	}
}
