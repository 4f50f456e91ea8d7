package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-catalog/internal/model"
)

// SessionRepository 会话持久化接口（session.driver=database 时使用）
type SessionRepository interface {
	Get(ctx context.Context, sessionID string, now time.Time) (*model.Session, error)
	Upsert(ctx context.Context, sess *model.Session) error
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

// Get 过期会话视为不存在
func (r *sessionRepo) Get(ctx context.Context, sessionID string, now time.Time) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND expires_at > ?", sessionID, now).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Upsert(ctx context.Context, sess *model.Session) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
		}).
		Create(sess).Error
}

func (r *sessionRepo) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.Session{}).Error
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
