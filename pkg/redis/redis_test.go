package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return Wrap(rdb, zap.NewNop()), mr
}

func TestBlacklist(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.BlacklistToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}
	if ok, _ := c.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Error("jti-1 应在黑名单中")
	}
	if ok, _ := c.IsBlacklisted(ctx, "jti-2"); ok {
		t.Error("jti-2 不应在黑名单中")
	}

	// 过期 Token 不写入
	if err := c.BlacklistToken(ctx, "jti-3", 0); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}
	if mr.Exists(blacklistPrefix + "jti-3") {
		t.Error("TTL<=0 的 Token 不应写入黑名单")
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := c.IsBlacklisted(ctx, "jti-1"); ok {
		t.Error("黑名单条目应随 TTL 过期")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := c.GetSession(ctx, "s1"); !IsNil(err) {
		t.Fatalf("不存在的会话应返回 Nil，实际=%v", err)
	}
	if err := c.SaveSession(ctx, "s1", []byte(`{"a":1}`), time.Hour); err != nil {
		t.Fatalf("SaveSession 失败: %v", err)
	}
	got, err := c.GetSession(ctx, "s1")
	if err != nil || string(got) != `{"a":1}` {
		t.Errorf("GetSession 期望 {\"a\":1}，实际=%s err=%v", got, err)
	}
	if err := c.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession 失败: %v", err)
	}
	if _, err := c.GetSession(ctx, "s1"); !IsNil(err) {
		t.Errorf("删除后应返回 Nil，实际=%v", err)
	}
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit 失败: %v", err)
		}
		if !ok {
			t.Fatalf("第 %d 次请求应放行", i+1)
		}
	}
	ok, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit 失败: %v", err)
	}
	if ok {
		t.Error("超过限额的请求应被拒绝")
	}
}
