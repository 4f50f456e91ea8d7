package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/dto"
	"course-catalog/internal/model"
	"course-catalog/internal/repository"
)

// ── 老师课程模块业务错误 ──

var (
	ErrTeacherProfileMissing  = errors.New("請先以老師身分登入。")
	ErrTeacherCourseNotFound  = errors.New("找不到可刪除的課程。")
	ErrTeacherSemesterMissing = errors.New("請指定學期。")
)

// TeacherCourseService 老师管理自己课程的业务接口
// 新增与删除只作用于固定学期
type TeacherCourseService interface {
	List(ctx context.Context, caller *Caller, semester string) ([]dto.CourseResponse, error)
	Create(ctx context.Context, caller *Caller, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, caller *Caller, courseID int64) error
}

type teacherCourseService struct {
	cfg    config.CatalogConfig
	repo   *repository.Repository
	view   *CourseView
	logger *zap.Logger
}

// NewTeacherCourseService 创建 TeacherCourseService 实例
func NewTeacherCourseService(cfg *config.CatalogConfig, repo *repository.Repository, view *CourseView, logger *zap.Logger) TeacherCourseService {
	return &teacherCourseService{cfg: *cfg, repo: repo, view: view, logger: logger}
}

// teacherOf 取得登录者的教师资料
func (s *teacherCourseService) teacherOf(ctx context.Context, caller *Caller) (*model.Teacher, error) {
	if caller == nil || caller.UserID == "" {
		return nil, ErrTeacherProfileMissing
	}
	t, err := s.repo.Teacher.GetByUserID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherProfileMissing
		}
		s.logger.Error("查询教师资料失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(t.NameCh) == "" {
		return nil, ErrTeacherProfileMissing
	}
	return t, nil
}

// ────────────────────── List ──────────────────────

func (s *teacherCourseService) List(ctx context.Context, caller *Caller, semester string) ([]dto.CourseResponse, error) {
	semester = strings.TrimSpace(semester)
	if semester == "" {
		return nil, ErrTeacherSemesterMissing
	}
	t, err := s.teacherOf(ctx, caller)
	if err != nil {
		return nil, err
	}

	courses, err := s.repo.Course.ListByTeacher(ctx, t.NameCh, semester)
	if err != nil {
		s.logger.Error("查询老师课程失败", zap.Error(err))
		return nil, err
	}

	key := func(c *model.Course) [3]string {
		day := c.Day
		if day == "" {
			day = "9"
		}
		return [3]string{day, c.Period, c.CourseName}
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

	return s.view.Courses(courses), nil
}

// ────────────────────── Create ──────────────────────

func (s *teacherCourseService) Create(ctx context.Context, caller *Caller, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	t, err := s.teacherOf(ctx, caller)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Semester:       s.cfg.FixedSemester,
		Teacher:        t.NameCh,
		TeacherRefID:   &t.TeacherID,
		CourseName:     strings.TrimSpace(req.CourseName),
		CourseCode:     req.CourseCode,
		DepartmentCode: req.DepartmentCode,
		Grade:          req.Grade,
		ClassGroup:     req.ClassGroup,
		Division:       req.Division,
		System:         req.System,
		WeekInfo:       req.WeekInfo,
		Day:            req.Day,
		Period:         req.Period,
		Classroom:      req.Classroom,
		SummaryCh:      req.SummaryCh,
		SummaryEn:      req.SummaryEn,
	}
	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("新增课程失败", zap.Error(err))
		return nil, err
	}
	course.TeacherRef = t

	s.logger.Info("老师新增课程",
		zap.Int64("course_id", course.ID),
		zap.String("teacher", t.NameCh),
		zap.String("semester", course.Semester),
	)
	resp := s.view.Course(course)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *teacherCourseService) Delete(ctx context.Context, caller *Caller, courseID int64) error {
	t, err := s.teacherOf(ctx, caller)
	if err != nil {
		return err
	}

	n, err := s.repo.Course.DeleteOwned(ctx, courseID, s.cfg.FixedSemester, t.NameCh)
	if err != nil {
		s.logger.Error("删除课程失败", zap.Int64("course_id", courseID), zap.Error(err))
		return err
	}
	if n == 0 {
		return ErrTeacherCourseNotFound
	}

	s.logger.Info("老师删除课程", zap.Int64("course_id", courseID), zap.String("teacher", t.NameCh))
	return nil
}
