package service

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/dto"
	"course-catalog/internal/model"
	"course-catalog/internal/repository"
)

// ── 目录模块业务错误 ──

var (
	ErrCatalogNoCondition = errors.New("請至少選擇一個查詢條件（例如學期、科系、老師、星期或節次）再按「查詢」。")
	ErrCourseNotFound     = errors.New("找不到課程。")
	ErrTeacherNotFound    = errors.New("找不到教師資料")
)

// systemRule 学制筛选：任一关键字命中文字字段，或系所名称包含 deptKeywords
type systemRule struct {
	hits         []string
	deptKeywords []string
	allDepts     bool // 四技：额外包含所有已知系所
}

// systemOrder 学制选项顺序
var systemOrder = []string{"二專", "二技", "二技(三年)", "四技", "學士後多元專長", "碩士班", "博士班", "學士後學位學程", "學士後系"}

var systemRules = map[string]systemRule{
	"二專": {hits: []string{"1D110"}, deptKeywords: []string{"1D110"}},
	"二技": {hits: []string{"二年制", "二技"}, deptKeywords: []string{"二年制"}},
	"二技(三年)": {hits: []string{"二年制進修部", "二技(三年)"}, deptKeywords: []string{"二年制進修部"}},
	"四技": {hits: []string{"四年制", "四技"}, deptKeywords: []string{"四年制", "四技"}, allDepts: true},
	"學士後多元專長": {hits: []string{"學士後多元專長"}, deptKeywords: []string{"學士後多元專長"}},
	"碩士班": {hits: []string{"研究所", "學生專班", "碩士班", "碩士在職"}, deptKeywords: []string{"研究所", "學生專班", "碩士班", "碩士在職"}},
	"博士班": {hits: []string{"博士"}, deptKeywords: []string{"博士"}},
	"學士後學位學程": {hits: []string{"學士後教保學位學程"}, deptKeywords: []string{"學士後教保學位學程"}},
	"學士後系": {hits: []string{"學士後學士班"}, deptKeywords: []string{"學士後學士班"}},
}

// CatalogService 课程目录业务接口
type CatalogService interface {
	Query(ctx context.Context, req *dto.CourseQueryRequest) (*dto.CourseQueryResponse, error)
	Options(ctx context.Context) (*dto.CourseOptionsResponse, error)
	GetCourse(ctx context.Context, id int64) (*dto.CourseResponse, error)
	TeacherInfo(ctx context.Context, name string) (*dto.TeacherInfoResponse, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

type catalogService struct {
	cfg    *config.Config
	repo   *repository.Repository
	view   *CourseView
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(cfg *config.Config, repo *repository.Repository, view *CourseView, logger *zap.Logger) CatalogService {
	return &catalogService{cfg: cfg, repo: repo, view: view, logger: logger}
}

// ────────────────────── Query ──────────────────────

func (s *catalogService) Query(ctx context.Context, req *dto.CourseQueryRequest) (*dto.CourseQueryResponse, error) {
	if req.Empty() {
		return nil, ErrCatalogNoCondition
	}

	filter := &repository.CourseFilter{
		Semester:       req.Semester,
		Grade:          req.Grade,
		DepartmentCode: req.Department,
		Teacher:        req.Teacher,
		CourseName:     req.CourseName,
		CourseCode:     req.CourseCode,
		Division:       req.ClassType,
		Days:           req.Days,
	}
	s.applySystem(filter, req.System)

	courses, err := s.repo.Course.Search(ctx, filter)
	if err != nil {
		s.logger.Error("查询课程目录失败", zap.Error(err))
		return nil, err
	}
	courses = filterByPeriods(courses, req.Periods)

	if req.OnlySemester() {
		sortForSemesterList(courses)
		return &dto.CourseQueryResponse{
			Mode:    "list",
			Total:   len(courses),
			Courses: s.view.Courses(courses),
		}, nil
	}

	return &dto.CourseQueryResponse{
		Mode:      "grid",
		Total:     len(courses),
		Courses:   s.view.Courses(courses),
		Timetable: s.view.Timetable("查詢結果", courses),
	}, nil
}

// applySystem 学制关键字转为查询条件；未知学制不加条件
func (s *catalogService) applySystem(f *repository.CourseFilter, system string) {
	rule, ok := systemRules[strings.TrimSpace(system)]
	if !ok {
		return
	}
	f.SystemKeywords = rule.hits
	codes := s.view.DeptCodesByKeywords(rule.deptKeywords...)
	if rule.allDepts {
		for _, d := range s.view.Departments() {
			codes = append(codes, d.Code)
		}
	}
	f.SystemDeptCodes = dedupeStrings(codes)
}

// filterByPeriods 节次条件：课程节次与所选节次有交集即保留
func filterByPeriods(courses []model.Course, raw []string) []model.Course {
	need := make(map[int]struct{}, len(raw))
	for _, p := range raw {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			need[n] = struct{}{}
		}
	}
	if len(need) == 0 {
		return courses
	}

	out := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		for _, p := range ParsePeriods(c.Period) {
			if _, ok := need[p]; ok {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// sortForSemesterList 未排课（星期为空）排在最后
func sortForSemesterList(courses []model.Course) {
	key := func(c *model.Course) [4]string {
		day := c.Day
		if day == "" {
			day = "9"
		}
		return [4]string{day, c.Period, c.DepartmentCode, c.ClassGroup}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := key(&courses[i]), key(&courses[j])
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ────────────────────── Options ──────────────────────

func (s *catalogService) Options(ctx context.Context) (*dto.CourseOptionsResponse, error) {
	divisions, err := s.repo.Course.ListDivisions(ctx)
	if err != nil {
		s.logger.Error("查询课别选项失败", zap.Error(err))
		return nil, err
	}
	total, err := s.repo.Course.Count(ctx)
	if err != nil {
		s.logger.Error("统计课程总数失败", zap.Error(err))
		return nil, err
	}

	periods := make([]int, 0, MaxPeriod)
	for p := 1; p <= MaxPeriod; p++ {
		periods = append(periods, p)
	}

	return &dto.CourseOptionsResponse{
		ClassTypes:  divisions,
		Systems:     append([]string(nil), systemOrder...),
		Days:        Weekdays(),
		Periods:     periods,
		TotalCount:  total,
		Departments: s.view.Departments(),
	}, nil
}

// ────────────────────── GetCourse ──────────────────────

func (s *catalogService) GetCourse(ctx context.Context, id int64) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	resp := s.view.Course(course)
	return &resp, nil
}

// ────────────────────── TeacherInfo ──────────────────────

func (s *catalogService) TeacherInfo(ctx context.Context, name string) (*dto.TeacherInfoResponse, error) {
	t, err := s.repo.Teacher.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return &dto.TeacherInfoResponse{
		NameCh:   dashIfEmpty(firstNonBlank(t.NameCh, name)),
		Category: dashIfEmpty(t.DisplayCategory()),
		Ext:      dashIfEmpty(t.DisplayExtension()),
	}, nil
}

func dashIfEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

// ────────────────────── Stats ──────────────────────

func (s *catalogService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	total, err := s.repo.Course.Count(ctx)
	if err != nil {
		return nil, err
	}
	semesters, err := s.repo.Course.DistinctSemesters(ctx, 50)
	if err != nil {
		return nil, err
	}
	samples, err := s.repo.Course.Samples(ctx, 3)
	if err != nil {
		return nil, err
	}

	resp := &dto.StatsResponse{
		CourseTotal:      total,
		SemesterDistinct: semesters,
		Samples:          make([]dto.CourseSample, 0, len(samples)),
		ExcelDir:         s.cfg.Catalog.ExcelDir,
		ExcelFiles:       listExcelFiles(s.cfg.Catalog.ExcelDir),
		Flags: map[string]bool{
			"auto_import":        s.cfg.Catalog.AutoImport,
			"demo_auto_login":    s.cfg.Demo.AutoLogin,
			"demo_seed_accounts": s.cfg.Demo.SeedAccounts,
		},
	}
	for _, c := range samples {
		resp.Samples = append(resp.Samples, dto.CourseSample{
			ID: c.ID, Semester: c.Semester, CourseName: c.CourseName,
			Teacher: c.Teacher, Day: c.Day, Period: c.Period,
		})
	}
	return resp, nil
}

// listExcelFiles 目录下的 .xlsx 文件名（排序）
func listExcelFiles(dir string) []string {
	paths, _ := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	sort.Strings(paths)
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}
