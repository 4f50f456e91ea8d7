package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/repository"
)

// requiredFallbackLabel 无法对应到规则关键字时的通用称呼
const requiredFallbackLabel = "此課程"

// RequiredCourse 一条必修规则的解析结果
type RequiredCourse struct {
	Keyword  string `json:"keyword"`
	CourseID int64  `json:"course_id"`
}

// RequiredCourses 按规则表顺序排列；找不到课程的规则不出现
type RequiredCourses []RequiredCourse

// IDs 必修课程 id（规则表顺序，去重）
func (rc RequiredCourses) IDs() CourseIDList {
	ids := make(CourseIDList, 0, len(rc))
	for _, r := range rc {
		ids = ids.Append(r.CourseID)
	}
	return ids
}

// Contains id 是否为必修
func (rc RequiredCourses) Contains(id int64) bool {
	for _, r := range rc {
		if r.CourseID == id {
			return true
		}
	}
	return false
}

// KeywordFor 反查 id 对应的规则关键字；无对应或对应多条规则时返回 false
func (rc RequiredCourses) KeywordFor(id int64) (string, bool) {
	keyword := ""
	hits := 0
	for _, r := range rc {
		if r.CourseID == id {
			keyword = r.Keyword
			hits++
		}
	}
	return keyword, hits == 1
}

// RemovalMessage 移除必修课时的提示文字
func (rc RequiredCourses) RemovalMessage(id int64) string {
	label, ok := rc.KeywordFor(id)
	if !ok {
		label = requiredFallbackLabel
	}
	return fmt.Sprintf("%s 為必修安排，無法移除。", label)
}

// RequiredCourseResolver 必修课程解析接口
// 每次调用都重新查询目录，不跨请求缓存
type RequiredCourseResolver interface {
	Resolve(ctx context.Context) (RequiredCourses, error)
	IsRequired(ctx context.Context, courseID int64) (bool, error)
	RemovalMessage(ctx context.Context, courseID int64) (string, error)
}

type requiredCourseResolver struct {
	repo   *repository.Repository
	cfg    config.PersonalConfig
	logger *zap.Logger
}

// NewRequiredCourseResolver 创建 RequiredCourseResolver 实例
func NewRequiredCourseResolver(cfg *config.PersonalConfig, repo *repository.Repository, logger *zap.Logger) RequiredCourseResolver {
	return &requiredCourseResolver{repo: repo, cfg: *cfg, logger: logger}
}

func (r *requiredCourseResolver) Resolve(ctx context.Context) (RequiredCourses, error) {
	out := make(RequiredCourses, 0, len(r.cfg.RequiredRules))
	for _, rule := range r.cfg.RequiredRules {
		keyword := strings.TrimSpace(rule.Keyword)
		if keyword == "" {
			continue
		}
		course, err := r.repo.Course.FindFirstRequired(ctx, repository.RequiredCourseFilter{
			Semester:       r.cfg.Semester,
			ClassGroupLike: r.cfg.ClassGroup,
			NameKeyword:    keyword,
			DepartmentCode: strings.TrimSpace(rule.DepartmentCode),
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				r.logger.Debug("必修规则无对应课程", zap.String("keyword", keyword))
				continue
			}
			r.logger.Error("查询必修课程失败", zap.String("keyword", keyword), zap.Error(err))
			return nil, fmt.Errorf("解析必修课程失败: %w", err)
		}
		out = append(out, RequiredCourse{Keyword: keyword, CourseID: course.ID})
	}
	return out, nil
}

func (r *requiredCourseResolver) IsRequired(ctx context.Context, courseID int64) (bool, error) {
	required, err := r.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return required.Contains(courseID), nil
}

func (r *requiredCourseResolver) RemovalMessage(ctx context.Context, courseID int64) (string, error) {
	required, err := r.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return required.RemovalMessage(courseID), nil
}
