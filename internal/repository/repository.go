package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User    UserRepository
	Teacher TeacherRepository
	Student StudentRepository
	Course  CourseRepository
	Session SessionRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:      db,
		User:    NewUserRepo(db),
		Teacher: NewTeacherRepo(db),
		Student: NewStudentRepo(db),
		Course:  NewCourseRepo(db),
		Session: NewSessionRepo(db),
	}
}

// BeginTx 开启事务；未持有连接（单元测试中的 mock 聚合）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
