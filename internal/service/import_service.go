package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-catalog/config"
	"course-catalog/internal/dto"
	"course-catalog/internal/model"
	"course-catalog/internal/repository"
)

// ── 导入模块业务错误 ──

var (
	ErrImportNoHeader   = errors.New("無法讀取表頭")
	ErrImportNameColumn = errors.New("Excel 裡找不到『科目中文名稱』欄位，請確認欄位名稱。")
	ErrImportNoFiles    = errors.New("沒有找到任何 .xlsx 檔案")
	ErrImportBadFile    = errors.New("無法開啟 Excel 檔案")
)

// 表头栏名
const (
	colCourseName = "科目中文名稱"
	colSemester   = "學期"
	colCourseCode = "科目代碼(新碼全碼)"
	colTeacher    = "主開課教師姓名"
)

// roomColumns 教室字段候选，取第一个有值者
var roomColumns = []string{
	"上課地點",
	"教室地點",
	"上課教室",
	"教室",
	"上課位置",
	"上課地點(教室)",
	"上課教室地點",
	"上課地點/教室",
	"地點",
	"位置",
}

// ImportService Excel 课程导入业务接口
type ImportService interface {
	ImportReader(ctx context.Context, r io.Reader, name string) (int, error)
	ImportPaths(ctx context.Context, paths []string) *dto.ImportResponse
	ImportDir(ctx context.Context) (*dto.ImportResponse, error)
	AutoImport(ctx context.Context) error
	BackfillClassroom(ctx context.Context) (*dto.BackfillResponse, error)
}

type importService struct {
	cfg    config.CatalogConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(cfg *config.CatalogConfig, repo *repository.Repository, logger *zap.Logger) ImportService {
	return &importService{cfg: *cfg, repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// 表格读取
// ═══════════════════════════════════════════════════════════

// sheetRow 一列资料，按栏名取值
type sheetRow struct {
	index  map[string]int
	values []string
}

// get 取值并清理空白；"nan" 视为空
func (r sheetRow) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	v := strings.TrimSpace(r.values[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// room 第一个有值的教室字段
func (r sheetRow) room() string {
	for _, col := range roomColumns {
		if v := r.get(col); v != "" {
			return v
		}
	}
	return ""
}

// readSheet 读取使用中工作表，headerRow 为表头所在列（从 1 起算）
func readSheet(r io.Reader, headerRow int, fn func(row sheetRow) error) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImportBadFile, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.Rows(sheet)
	if err != nil {
		return err
	}
	defer rows.Close()

	var index map[string]int
	line := 0
	for rows.Next() {
		line++
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		if line < headerRow {
			continue
		}
		if line == headerRow {
			index = make(map[string]int, len(cols))
			for i, h := range cols {
				if h = strings.TrimSpace(h); h != "" {
					if _, dup := index[h]; !dup {
						index[h] = i
					}
				}
			}
			if _, ok := index[colCourseName]; !ok {
				return ErrImportNameColumn
			}
			continue
		}
		if err := fn(sheetRow{index: index, values: cols}); err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return err
	}
	if len(index) == 0 {
		return ErrImportNoHeader
	}
	return nil
}

// courseFromRow 字段对应
func courseFromRow(row sheetRow) model.Course {
	return model.Course{
		Number:          row.get("編號"),
		Semester:        row.get(colSemester),
		Teacher:         row.get(colTeacher),
		CourseCode:      row.get(colCourseCode),
		DepartmentCode:  row.get("系所代碼"),
		CoreCode:        row.get("核心四碼"),
		GroupCode:       row.get("科目組別"),
		Grade:           row.get("年級"),
		ClassGroup:      row.get("上課班組"),
		CourseName:      row.get(colCourseName),
		Division:        row.get("課別名稱"),
		System:          row.get("學制別"),
		TeachingGroup:   row.get("授課群組"),
		WeekInfo:        row.get("上課週次"),
		Day:             row.get("上課星期"),
		Period:          row.get("上課節次"),
		Classroom:       row.room(),
		SummaryCh:       row.get("課程中文摘要"),
		SummaryEn:       row.get("課程英文摘要"),
		TeacherOldCode:  row.get("主開課教師代碼(舊碼)"),
		CourseOldCode:   row.get("科目代碼(舊碼)"),
		ScheduleOldCode: row.get("課表代碼(舊碼)"),
		ScheduleOldName: row.get("課表名稱(舊碼)"),
		TeacherOldCode2: row.get("授課教師代碼(舊碼)"),
	}
}

// parseCourses 读取整份表格中的课程；缺少课程名的列略过
func parseCourses(r io.Reader, headerRow int) ([]model.Course, error) {
	var courses []model.Course
	err := readSheet(r, headerRow, func(row sheetRow) error {
		c := courseFromRow(row)
		if c.CourseName == "" {
			return nil
		}
		courses = append(courses, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// ═══════════════════════════════════════════════════════════
// 导入
// ═══════════════════════════════════════════════════════════

// ImportReader 解析并在单一事务内写入；教师按姓名取用或建立
func (s *importService) ImportReader(ctx context.Context, r io.Reader, name string) (int, error) {
	courses, err := parseCourses(r, s.cfg.HeaderRow)
	if err != nil {
		s.logger.Warn("解析 Excel 失败", zap.String("file", name), zap.Error(err))
		return 0, err
	}
	if len(courses) == 0 {
		return 0, nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return 0, err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()
	txRepo := s.repo.WithTx(tx)

	rollback := func(err error) (int, error) {
		if tx != nil {
			tx.Rollback()
		}
		return 0, err
	}

	teachers := make(map[string]*model.Teacher)
	batch := make([]model.Course, 0, s.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := txRepo.Course.BatchCreate(ctx, batch, s.cfg.BatchSize); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for i := range courses {
		c := courses[i]
		if c.Teacher != "" {
			t, ok := teachers[c.Teacher]
			if !ok {
				t, err = txRepo.Teacher.GetOrCreateByName(ctx, c.Teacher)
				if err != nil {
					s.logger.Error("建立教师失败", zap.String("teacher", c.Teacher), zap.Error(err))
					return rollback(err)
				}
				teachers[c.Teacher] = t
			}
			c.TeacherRefID = &t.TeacherID
		}
		batch = append(batch, c)
		if len(batch) >= s.cfg.BatchSize {
			if err := flush(); err != nil {
				s.logger.Error("批量写入课程失败", zap.Error(err))
				return rollback(err)
			}
		}
	}
	if err := flush(); err != nil {
		s.logger.Error("批量写入课程失败", zap.Error(err))
		return rollback(err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return 0, err
		}
	}

	s.logger.Info("Excel 导入完成", zap.String("file", name), zap.Int("count", len(courses)))
	return len(courses), nil
}

// ImportPaths 逐个文件导入，单个文件失败不影响其他文件
func (s *importService) ImportPaths(ctx context.Context, paths []string) *dto.ImportResponse {
	resp := &dto.ImportResponse{Files: make([]dto.ImportFileResult, 0, len(paths))}
	for _, p := range paths {
		result := dto.ImportFileResult{File: filepath.Base(p)}
		n, err := s.importPath(ctx, p)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Count = n
			resp.TotalFiles++
			resp.TotalRows += n
		}
		resp.Files = append(resp.Files, result)
	}
	return resp
}

func (s *importService) importPath(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.ImportReader(ctx, f, filepath.Base(path))
}

func (s *importService) ImportDir(ctx context.Context) (*dto.ImportResponse, error) {
	paths := excelPaths(s.cfg.ExcelDir)
	if len(paths) == 0 {
		return nil, ErrImportNoFiles
	}
	return s.ImportPaths(ctx, paths), nil
}

// AutoImport 开启自动导入且课程表为空时导入目录下所有文件
func (s *importService) AutoImport(ctx context.Context) error {
	if !s.cfg.AutoImport {
		return nil
	}
	n, err := s.repo.Course.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	paths := excelPaths(s.cfg.ExcelDir)
	if len(paths) == 0 {
		s.logger.Warn("自动导入：目录下没有 .xlsx 文件", zap.String("dir", s.cfg.ExcelDir))
		return nil
	}

	s.logger.Info("课程表为空，开始自动导入", zap.Int("files", len(paths)))
	resp := s.ImportPaths(ctx, paths)
	for _, f := range resp.Files {
		if f.Error != "" {
			s.logger.Error("导入文件失败", zap.String("file", f.File), zap.String("error", f.Error))
		}
	}
	s.logger.Info("自动导入完成", zap.Int("total_rows", resp.TotalRows))
	return nil
}

// ═══════════════════════════════════════════════════════════
// 回填教室
// ═══════════════════════════════════════════════════════════

type roomKey struct {
	semester, code, name string
}

// BackfillClassroom 以 (学期, 科目代码, 科目名称) 对应表格中的教室，补上空白教室
func (s *importService) BackfillClassroom(ctx context.Context) (*dto.BackfillResponse, error) {
	paths := excelPaths(s.cfg.ExcelDir)
	if len(paths) == 0 {
		return nil, ErrImportNoFiles
	}

	index := make(map[roomKey]string)
	indexed := 0
	for _, p := range paths {
		n, err := indexRooms(p, s.cfg.HeaderRow, index)
		if err != nil {
			s.logger.Warn("读取教室索引失败", zap.String("file", filepath.Base(p)), zap.Error(err))
			continue
		}
		indexed += n
	}

	courses, err := s.repo.Course.ListMissingClassroom(ctx)
	if err != nil {
		return nil, err
	}
	updated := 0
	for _, c := range courses {
		room, ok := index[roomKey{c.Semester, c.CourseCode, c.CourseName}]
		if !ok {
			continue
		}
		if err := s.repo.Course.UpdateClassroom(ctx, c.ID, room); err != nil {
			s.logger.Error("回填教室失败", zap.Int64("course_id", c.ID), zap.Error(err))
			return nil, err
		}
		updated++
	}

	return &dto.BackfillResponse{IndexedRows: indexed, Updated: updated}, nil
}

func indexRooms(path string, headerRow int, index map[roomKey]string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	err = readSheet(f, headerRow, func(row sheetRow) error {
		sem, code, name := row.get(colSemester), row.get(colCourseCode), row.get(colCourseName)
		room := row.room()
		if sem != "" && (code != "" || name != "") && room != "" {
			index[roomKey{sem, code, name}] = room
			n++
		}
		return nil
	})
	return n, err
}

func excelPaths(dir string) []string {
	names := listExcelFiles(dir)
	paths := make([]string, 0, len(names))
	for _, n := range names {
		paths = append(paths, filepath.Join(dir, n))
	}
	return paths
}
