package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"course-catalog/internal/dto"
	"course-catalog/internal/model"
	"course-catalog/internal/service"
	"course-catalog/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// PersonalHandler 个人课表 HTTP 处理器
type PersonalHandler struct {
	personalSvc service.PersonalScheduleService
	exportSvc   service.ExportService
	logger      *zap.Logger
}

// NewPersonalHandler 创建 PersonalHandler
func NewPersonalHandler(personalSvc service.PersonalScheduleService, exportSvc service.ExportService, logger *zap.Logger) *PersonalHandler {
	return &PersonalHandler{personalSvc: personalSvc, exportSvc: exportSvc, logger: logger}
}

// View 个人课表（必修自动补齐）
// GET /api/v1/personal
func (h *PersonalHandler) View(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	result, err := h.personalSvc.View(c.Request.Context(), sess, caller)
	if err != nil {
		h.handlePersonalError(c, err)
		return
	}

	response.OK(c, result)
}

// Add 加入个人课表
// POST /api/v1/personal/courses/:id  body: {"force": true}
func (h *PersonalHandler) Add(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.AddPersonalCourseRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	} else if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	result, err := h.personalSvc.Add(c.Request.Context(), sess, caller, courseID, req.Force)
	if err != nil {
		h.handlePersonalError(c, err)
		return
	}

	response.OKWithMessage(c, result.Message, result)
}

// Remove 从个人课表移除
// DELETE /api/v1/personal/courses/:id
func (h *PersonalHandler) Remove(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	result, err := h.personalSvc.Remove(c.Request.Context(), sess, caller, courseID)
	if err != nil {
		h.handlePersonalError(c, err)
		return
	}

	response.OKWithMessage(c, result.Message, result)
}

// ExportXLSX 导出个人课表 Excel
// GET /api/v1/personal/export.xlsx
func (h *PersonalHandler) ExportXLSX(c *gin.Context) {
	courses, ok := h.personalCourses(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.Excel(courses)
	if err != nil {
		h.handlePersonalError(c, err)
		return
	}

	setDownloadHeaders(c, filename, contentTypeXLSX)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportICS 导出个人课表行事历
// GET /api/v1/personal/export.ics
func (h *PersonalHandler) ExportICS(c *gin.Context) {
	courses, ok := h.personalCourses(c)
	if !ok {
		return
	}

	body, filename, err := h.exportSvc.ICS(courses)
	if err != nil {
		h.handlePersonalError(c, err)
		return
	}

	setDownloadHeaders(c, filename, contentTypeICS)
	c.Data(http.StatusOK, contentTypeICS, []byte(body))
}

func (h *PersonalHandler) personalCourses(c *gin.Context) ([]model.Course, bool) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return nil, false
	}
	sess, ok := MustGetSession(c)
	if !ok {
		return nil, false
	}

	courses, err := h.personalSvc.Courses(c.Request.Context(), sess, caller)
	if err != nil {
		h.handlePersonalError(c, err)
		return nil, false
	}
	return courses, true
}

// setDownloadHeaders 设置下载响应头
func setDownloadHeaders(c *gin.Context, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentType)
}

// handlePersonalError 按结果类别映射 HTTP 状态；冲堂与必修保护附带当前课表
func (h *PersonalHandler) handlePersonalError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError
	var requiredErr *service.RequiredCourseError

	switch service.OutcomeOf(err) {
	case service.OutcomeUnauthorized:
		response.ErrorWithData(c, http.StatusUnauthorized, 13001, err.Error(), failure(service.OutcomeUnauthorized, err.Error(), nil))
	case service.OutcomeNotFound:
		response.ErrorWithData(c, http.StatusNotFound, 13002, err.Error(), failure(service.OutcomeNotFound, err.Error(), nil))
	case service.OutcomeConflict:
		errors.As(err, &conflictErr)
		data := failure(service.OutcomeConflict, err.Error(), conflictErr.CourseIDs)
		data.Conflicts = service.ConflictSlotsDTO(conflictErr.Slots)
		response.Conflict(c, 13003, err.Error(), data)
	case service.OutcomeRequiredProtected:
		errors.As(err, &requiredErr)
		response.Conflict(c, 13004, requiredErr.Message, failure(service.OutcomeRequiredProtected, requiredErr.Message, requiredErr.CourseIDs))
	default:
		h.logger.Error("个人课表操作失败", zap.Error(err))
		response.InternalError(c)
	}
}

func failure(kind service.Outcome, message string, ids service.CourseIDList) *dto.PersonalActionResponse {
	return &dto.PersonalActionResponse{
		Kind:      string(kind),
		Message:   message,
		Conflicts: []dto.ConflictSlot{},
		CourseIDs: ids.Int64s(),
	}
}
