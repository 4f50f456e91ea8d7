// Package session 提供服务端会话：按 Token 中的 sid 读写任意可序列化状态。
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("會話不存在或已過期")

// Session 单个会话；同一请求内非并发安全
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time

	values   map[string]any
	modified bool
}

// New 创建空会话
func New(id, userID string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: expiresAt,
		values:    make(map[string]any),
	}
}

// Get 读取键值
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set 写入键值并标记已修改
func (s *Session) Set(key string, value any) {
	s.values[key] = value
	s.modified = true
}

// Delete 删除键并标记已修改
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.modified = true
}

// Modified 本次请求内是否有写入
func (s *Session) Modified() bool {
	return s.modified
}

// record 存储层的序列化格式
type record struct {
	UserID    string         `json:"user_id"`
	ExpiresAt time.Time      `json:"expires_at"`
	Values    map[string]any `json:"values"`
}

func (s *Session) marshal() ([]byte, error) {
	return json.Marshal(record{UserID: s.UserID, ExpiresAt: s.ExpiresAt, Values: s.values})
}

// unmarshal 数值以 json.Number 保留，交由上层按需解码
func unmarshal(id string, raw []byte) (*Session, error) {
	var rec record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	s := New(id, rec.UserID, rec.ExpiresAt)
	for k, v := range rec.Values {
		s.values[k] = v
	}
	return s, nil
}
