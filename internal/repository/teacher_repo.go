package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"course-catalog/internal/model"
)

// TeacherRepository 教师资料访问接口
type TeacherRepository interface {
	Create(ctx context.Context, teacher *model.Teacher) error
	GetByUserID(ctx context.Context, userID string) (*model.Teacher, error)
	FindByName(ctx context.Context, name string) (*model.Teacher, error)
	FindUnboundByName(ctx context.Context, nameCh string) (*model.Teacher, error)
	GetOrCreateByName(ctx context.Context, nameCh string) (*model.Teacher, error)
	Update(ctx context.Context, teacher *model.Teacher) error
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepo) GetByUserID(ctx context.Context, userID string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByName 先按中文名，再按英文名
func (r *teacherRepo) FindByName(ctx context.Context, name string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Where("name_ch = ?", name).
		Order("teacher_id ASC").
		First(&t).Error
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("name_en = ?", name).
		Order("teacher_id ASC").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) FindUnboundByName(ctx context.Context, nameCh string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Where("name_ch = ? AND user_id IS NULL", nameCh).
		Order("teacher_id ASC").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) GetOrCreateByName(ctx context.Context, nameCh string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Where(model.Teacher{NameCh: nameCh}).
		Order("teacher_id ASC").
		FirstOrCreate(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) Update(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Save(teacher).Error
}

func (r *teacherRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Teacher{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n > 0, err
}
