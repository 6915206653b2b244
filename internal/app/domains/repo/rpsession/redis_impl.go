package rpsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"techbot/internal/app/domains/entity/etsession"
	"techbot/internal/app/pkg/errorx"
)

// RedisStore Redis 会话存储，键格式 session:{identity}
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration // 0 表示不过期
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(identity string) string {
	return "session:" + identity
}

func (s *RedisStore) Get(ctx context.Context, identity string) (*etsession.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errorx.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	var sess etsession.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Set(ctx context.Context, session *etsession.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(session.Identity), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, identity string) error {
	if err := s.rdb.Del(ctx, sessionKey(identity)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}
