package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"course-catalog/config"
	"course-catalog/internal/repository"
	"course-catalog/pkg/redis"
)

// Store 会话存储接口
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

// NewStore 按 session.driver 选择存储实现
func NewStore(cfg *config.SessionConfig, rdb *redis.Client, repo *repository.Repository, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("session.driver=redis 但 Redis 不可用")
		}
		return NewRedisStore(rdb, cfg.TTL), nil
	case "database":
		return NewDatabaseStore(repo.Session, cfg.TTL), nil
	case "memory":
		logger.Warn("使用内存会话存储，重启后会话将丢失")
		return NewMemoryStore(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("不支持的会话驱动: %s", cfg.Driver)
	}
}
