package repository

import (
	"context"

	"gorm.io/gorm"

	"course-catalog/internal/model"
)

// StudentRepository 学生资料访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByUserID(ctx context.Context, userID string) (*model.Student, error)
	GetByStudentNo(ctx context.Context, studentNo string) (*model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByStudentNo(ctx context.Context, studentNo string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentNo).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&n).Error
	return n > 0, err
}
