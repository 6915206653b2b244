package rpsession

import (
	"context"

	"techbot/internal/app/domains/entity/etsession"
)

// SessionStore 会话仓储接口
// Get 在会话不存在时返回 errorx.ErrSessionNotFound
type SessionStore interface {
	Get(ctx context.Context, identity string) (*etsession.Session, error)
	Set(ctx context.Context, session *etsession.Session) error
	Delete(ctx context.Context, identity string) error
}
