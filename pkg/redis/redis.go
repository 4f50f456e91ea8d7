package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"course-catalog/config"
)

// ErrNil 键不存在
var ErrNil = goredis.Nil

// Client Redis 客户端封装
// 用于会话存储、Token 黑名单与接口限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// Wrap 包装已有连接（测试中配合 miniredis 使用）
func Wrap(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 会话 ──

const sessionPrefix = "session:"

// GetSession 读取会话原始数据；不存在时返回 ErrNil
func (c *Client) GetSession(ctx context.Context, sid string) ([]byte, error) {
	return c.rdb.Get(ctx, sessionPrefix+sid).Bytes()
}

// SaveSession 写入会话并刷新过期时间
func (c *Client) SaveSession(ctx context.Context, sid string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, sessionPrefix+sid, data, ttl).Err()
}

// DeleteSession 删除会话
func (c *Client) DeleteSession(ctx context.Context, sid string) error {
	return c.rdb.Del(ctx, sessionPrefix+sid).Err()
}

// ── 限流 ──

var rateSeq atomic.Uint64

// CheckRateLimit 滑动窗口限流：窗口内请求数超过 limit 返回 false
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	member := fmt.Sprintf("%d-%d", now.UnixNano(), rateSeq.Add(1))
	minScore := fmt.Sprintf("%d", now.Add(-window).UnixNano())

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", minScore)
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(limit), nil
}

// IsNil 是否为键不存在错误
func IsNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
