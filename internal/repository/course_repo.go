package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"course-catalog/internal/model"
)

// CourseFilter 目录查询条件（空字段表示不限）
type CourseFilter struct {
	Semester       string
	Grade          string
	DepartmentCode string
	Teacher        string // 模糊
	CourseName     string // 模糊
	CourseCode     string // 模糊
	Division       string // 模糊
	Days           []string

	// 学制：任一关键字命中多个文字字段，或系所代码属于 SystemDeptCodes
	SystemKeywords  []string
	SystemDeptCodes []string
}

// RequiredCourseFilter 必修课程候选条件
type RequiredCourseFilter struct {
	Semester       string
	ClassGroupLike string
	NameKeyword    string
	DepartmentCode string // 可选
}

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Course, error)
	FindFirstRequired(ctx context.Context, f RequiredCourseFilter) (*model.Course, error)
	Search(ctx context.Context, f *CourseFilter) ([]model.Course, error)
	ListDivisions(ctx context.Context) ([]string, error)
	ListByTeacher(ctx context.Context, teacherName, semester string) ([]model.Course, error)
	Create(ctx context.Context, course *model.Course) error
	BatchCreate(ctx context.Context, courses []model.Course, batchSize int) error
	DeleteOwned(ctx context.Context, id int64, semester, teacherName string) (int64, error)
	Count(ctx context.Context) (int64, error)
	DistinctSemesters(ctx context.Context, limit int) ([]string, error)
	Samples(ctx context.Context, limit int) ([]model.Course, error)
	ListMissingClassroom(ctx context.Context) ([]model.Course, error)
	UpdateClassroom(ctx context.Context, id int64, classroom string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("TeacherRef").
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// ListByIDs 不存在的 id 直接缺席，不报错；顺序由调用方按需重排
func (r *courseRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("TeacherRef").
		Where("id IN ?", ids).
		Find(&courses).Error
	return courses, err
}

// FindFirstRequired 按 (day, period, course_name) 升序取第一笔
func (r *courseRepo) FindFirstRequired(ctx context.Context, f RequiredCourseFilter) (*model.Course, error) {
	cond := sq.And{
		sq.Eq{"semester": f.Semester},
		sq.ILike{"class_group": containsPattern(f.ClassGroupLike)},
		sq.ILike{"course_name": containsPattern(f.NameKeyword)},
	}
	if f.DepartmentCode != "" {
		cond = append(cond, sq.Eq{"department_code": f.DepartmentCode})
	}
	where, args, err := cond.ToSql()
	if err != nil {
		return nil, err
	}

	var course model.Course
	err = r.db.WithContext(ctx).
		Where(where, args...).
		Order("day ASC, period ASC, course_name ASC, id ASC").
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Search(ctx context.Context, f *CourseFilter) ([]model.Course, error) {
	where, args, err := buildCourseFilter(f).ToSql()
	if err != nil {
		return nil, err
	}

	var courses []model.Course
	err = r.db.WithContext(ctx).
		Preload("TeacherRef").
		Where(where, args...).
		Order("id ASC").
		Find(&courses).Error
	return courses, err
}

// buildCourseFilter 组装动态查询条件
func buildCourseFilter(f *CourseFilter) sq.And {
	cond := sq.And{}
	if f == nil {
		return cond
	}
	if f.Semester != "" {
		cond = append(cond, sq.Eq{"semester": f.Semester})
	}
	if len(f.SystemKeywords) > 0 || len(f.SystemDeptCodes) > 0 {
		system := sq.Or{}
		for _, kw := range f.SystemKeywords {
			system = append(system, systemKeywordHit(kw))
		}
		if len(f.SystemDeptCodes) > 0 {
			system = append(system, sq.Eq{"department_code": f.SystemDeptCodes})
		}
		cond = append(cond, system)
	}
	if f.DepartmentCode != "" {
		cond = append(cond, sq.Eq{"department_code": f.DepartmentCode})
	}
	if f.Grade != "" {
		cond = append(cond, sq.Eq{"grade": f.Grade})
	}
	if f.Teacher != "" {
		cond = append(cond, sq.ILike{"teacher": containsPattern(f.Teacher)})
	}
	if f.CourseName != "" {
		cond = append(cond, sq.ILike{"course_name": containsPattern(f.CourseName)})
	}
	if f.CourseCode != "" {
		cond = append(cond, sq.ILike{"course_code": containsPattern(f.CourseCode)})
	}
	if f.Division != "" {
		cond = append(cond, sq.ILike{"division": containsPattern(f.Division)})
	}
	if len(f.Days) > 0 {
		cond = append(cond, sq.Eq{"day": f.Days})
	}
	return cond
}

// likeEscaper 转义 LIKE 通配符（PostgreSQL 默认转义字符为反斜线）
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern 字面包含匹配：%kw%
func containsPattern(kw string) string {
	return "%" + likeEscaper.Replace(kw) + "%"
}

// systemKeywordHit 学制关键字命中任一相关文字字段
func systemKeywordHit(kw string) sq.Or {
	like := containsPattern(kw)
	return sq.Or{
		sq.ILike{"system": like},
		sq.ILike{"schedule_old_name": like},
		sq.ILike{"schedule_old_code": like},
		sq.ILike{"class_group": like},
		sq.ILike{"teaching_group": like},
		sq.ILike{"course_name": like},
		sq.ILike{"department_code": like},
	}
}

func (r *courseRepo) ListDivisions(ctx context.Context) ([]string, error) {
	var divisions []string
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("division <> ''").
		Distinct("division").
		Order("division ASC").
		Pluck("division", &divisions).Error
	return divisions, err
}

func (r *courseRepo) ListByTeacher(ctx context.Context, teacherName, semester string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("teacher ILIKE ? AND semester = ?", containsPattern(teacherName), semester).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) BatchCreate(ctx context.Context, courses []model.Course, batchSize int) error {
	if len(courses) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 300
	}
	return r.db.WithContext(ctx).CreateInBatches(&courses, batchSize).Error
}

// DeleteOwned 仅删除指定学期内、教师名包含 teacherName 的课程，返回删除笔数
func (r *courseRepo) DeleteOwned(ctx context.Context, id int64, semester, teacherName string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND semester = ? AND teacher ILIKE ?", id, semester, containsPattern(teacherName)).
		Delete(&model.Course{})
	return res.RowsAffected, res.Error
}

func (r *courseRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).Count(&total).Error
	return total, err
}

func (r *courseRepo) DistinctSemesters(ctx context.Context, limit int) ([]string, error) {
	var semesters []string
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Distinct("semester").
		Order("semester ASC").
		Limit(limit).
		Pluck("semester", &semesters).Error
	return semesters, err
}

func (r *courseRepo) Samples(ctx context.Context, limit int) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Select("id", "semester", "course_name", "teacher", "day", "period").
		Order("id ASC").
		Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListMissingClassroom(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("classroom = ''").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) UpdateClassroom(ctx context.Context, id int64, classroom string) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Update("classroom", classroom).Error
}
