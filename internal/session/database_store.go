package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"course-catalog/internal/model"
	"course-catalog/internal/repository"
)

// DatabaseStore 会话存于 sessions 表（jsonb）
type DatabaseStore struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewDatabaseStore 创建 DatabaseStore
func NewDatabaseStore(repo repository.SessionRepository, ttl time.Duration) *DatabaseStore {
	return &DatabaseStore{repo: repo, ttl: ttl, now: time.Now}
}

func (s *DatabaseStore) TTL() time.Duration { return s.ttl }

func (s *DatabaseStore) Load(ctx context.Context, id string) (*Session, error) {
	row, err := s.repo.Get(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess := New(row.SessionID, row.UserID, row.ExpiresAt)
	for k, v := range row.Data {
		sess.values[k] = v
	}
	return sess, nil
}

func (s *DatabaseStore) Save(ctx context.Context, sess *Session) error {
	sess.ExpiresAt = s.now().Add(s.ttl)
	data := make(datatypes.JSONMap, len(sess.values))
	for k, v := range sess.values {
		data[k] = v
	}
	return s.repo.Upsert(ctx, &model.Session{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Data:      data,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *DatabaseStore) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
