package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"course-catalog/internal/dto"
	"course-catalog/internal/service"
	"course-catalog/pkg/response"
)

// ImportHandler Excel 导入 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
	logger    *zap.Logger
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{importSvc: importSvc, logger: logger}
}

// Upload 上传一个或多个 .xlsx 并导入
// POST /api/v1/imports/courses  multipart: files
func (h *ImportHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		bindFailed(c, err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.BadRequest(c, 15001, "請選擇要匯入的 .xlsx 檔案")
		return
	}

	result := &dto.ImportResponse{Files: make([]dto.ImportFileResult, 0, len(files))}
	for _, fh := range files {
		item := dto.ImportFileResult{File: filepath.Base(fh.Filename)}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
			item.Error = "僅支援 .xlsx 檔案"
			result.Files = append(result.Files, item)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			item.Error = service.ErrImportBadFile.Error()
			result.Files = append(result.Files, item)
			continue
		}
		n, err := h.importSvc.ImportReader(c.Request.Context(), f, item.File)
		f.Close()
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Count = n
			result.TotalFiles++
			result.TotalRows += n
		}
		result.Files = append(result.Files, item)
	}

	h.logger.Info("上传导入完成",
		zap.Int("files", result.TotalFiles),
		zap.Int("rows", result.TotalRows),
	)
	response.OK(c, result)
}

// ImportDir 导入配置目录下所有 .xlsx
// POST /api/v1/imports/directory
func (h *ImportHandler) ImportDir(c *gin.Context) {
	result, err := h.importSvc.ImportDir(c.Request.Context())
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	response.OK(c, result)
}

// BackfillClassroom 以 Excel 回填空白教室
// POST /api/v1/imports/backfill-classroom
func (h *ImportHandler) BackfillClassroom(c *gin.Context) {
	result, err := h.importSvc.BackfillClassroom(c.Request.Context())
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportNoFiles):
		response.NotFound(c, 15002, err.Error())
	case errors.Is(err, service.ErrImportNameColumn), errors.Is(err, service.ErrImportNoHeader):
		response.Error(c, http.StatusUnprocessableEntity, 15003, err.Error())
	case errors.Is(err, service.ErrImportBadFile):
		response.BadRequest(c, 15004, err.Error())
	default:
		h.logger.Error("导入失败", zap.Error(err))
		response.InternalError(c)
	}
}
