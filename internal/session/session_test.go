package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/internal/model"
	"course-catalog/pkg/redis"
)

func TestSession_Modified(t *testing.T) {
	s := New("sid", "u1", time.Now().Add(time.Hour))
	if s.Modified() {
		t.Fatal("新会话不应标记为已修改")
	}
	if _, ok := s.Get("k"); ok {
		t.Error("空会话不应有值")
	}

	s.Delete("k")
	if s.Modified() {
		t.Error("删除不存在的键不应标记修改")
	}

	s.Set("k", []int64{1, 2})
	if !s.Modified() {
		t.Error("Set 后应标记为已修改")
	}
}

// 三种驱动共用的行为检查
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("不存在的会话应返回 ErrNotFound，实际=%v", err)
	}

	s := New("sid-1", "user-1", time.Time{})
	s.Set("personal_course_ids", []int64{3, 1})
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	got, err := store.Load(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", got.UserID)
	}
	if got.Modified() {
		t.Error("刚读取的会话不应标记修改")
	}
	raw, ok := got.Get("personal_course_ids")
	if !ok {
		t.Fatal("应读回 personal_course_ids")
	}
	list, ok := raw.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("期望读回长度 2 的列表，实际 %#v", raw)
	}

	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := store.Load(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("删除后应返回 ErrNotFound，实际=%v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Save(context.Background(), New("sid", "u", time.Time{})); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := store.Load(context.Background(), "sid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("过期会话应返回 ErrNotFound，实际=%v", err)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseStore(t, NewRedisStore(redis.Wrap(rdb, zap.NewNop()), time.Hour))
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRedisStore(redis.Wrap(rdb, zap.NewNop()), time.Minute)

	if err := store.Save(context.Background(), New("sid", "u", time.Time{})); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Load(context.Background(), "sid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("TTL 到期后应返回 ErrNotFound，实际=%v", err)
	}
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	rows map[string]*model.Session
}

func (m *mockSessionRepo) Get(_ context.Context, id string, now time.Time) (*model.Session, error) {
	row, ok := m.rows[id]
	if !ok || !row.ExpiresAt.After(now) {
		return nil, gorm.ErrRecordNotFound
	}
	// 模拟 jsonb 往返：数值变为 float64
	raw, _ := json.Marshal(row.Data)
	cp := *row
	cp.Data = nil
	_ = json.Unmarshal(raw, &cp.Data)
	return &cp, nil
}

func (m *mockSessionRepo) Upsert(_ context.Context, s *model.Session) error {
	m.rows[s.SessionID] = s
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, row := range m.rows {
		if !row.ExpiresAt.After(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func TestDatabaseStore(t *testing.T) {
	exerciseStore(t, NewDatabaseStore(&mockSessionRepo{rows: map[string]*model.Session{}}, time.Hour))
}
