package session

import (
	"context"
	"time"

	"course-catalog/pkg/redis"
)

// RedisStore 会话存于 Redis，每次保存刷新 TTL
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore 创建 RedisStore
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) TTL() time.Duration { return s.ttl }

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.GetSession(ctx, id)
	if err != nil {
		if redis.IsNil(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unmarshal(id, raw)
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	sess.ExpiresAt = time.Now().Add(s.ttl)
	raw, err := sess.marshal()
	if err != nil {
		return err
	}
	return s.rdb.SaveSession(ctx, sess.ID, raw, s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.DeleteSession(ctx, id)
}
