package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内会话存储，仅适用于单实例与开发环境
// 保存序列化后的快照，读取时重新解码，行为与其他驱动一致
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	exp  map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore 创建 MemoryStore
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
		exp:  make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *MemoryStore) TTL() time.Duration { return s.ttl }

func (s *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	raw, ok := s.data[id]
	exp := s.exp[id]
	if ok && !s.now().Before(exp) {
		delete(s.data, id)
		delete(s.exp, id)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return unmarshal(id, raw)
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	sess.ExpiresAt = s.now().Add(s.ttl)
	raw, err := sess.marshal()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sess.ID] = raw
	s.exp[sess.ID] = sess.ExpiresAt
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	delete(s.exp, id)
	return nil
}
