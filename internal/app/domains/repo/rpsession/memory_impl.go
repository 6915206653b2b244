package rpsession

import (
	"context"
	"sync"

	"techbot/internal/app/domains/entity/etsession"
	"techbot/internal/app/pkg/errorx"
)

// MemoryStore 进程内会话存储
// 进程重启后会话丢失，多实例部署时各实例互不可见
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*etsession.Session
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*etsession.Session),
	}
}

func (s *MemoryStore) Get(ctx context.Context, identity string) (*etsession.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[identity]
	if !ok {
		return nil, errorx.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Set(ctx context.Context, session *etsession.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Identity] = session.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, identity)
	return nil
}
