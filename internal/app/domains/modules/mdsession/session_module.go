package mdsession

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"techbot/internal/app/domains/entity/etsession"
	"techbot/internal/app/domains/repo/rpsession"
	"techbot/internal/app/pkg/errorx"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

const resendKeyword = "resend"

// DefaultMaxRetries 默认 OTP 错误次数上限（软限制，仅提示用户 resend）
const DefaultMaxRetries = 3

// IdentityBackend 身份/OTP 后端
type IdentityBackend interface {
	IssueOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, otp string) (*etsession.Credentials, error)
}

// Result 单次事件处理结果
// Handled 为 false 表示会话已认证，事件应交给订单流程处理
type Result struct {
	Session *etsession.Session
	Prompt  etsession.Prompt
	Attempt int
	Handled bool
}

// SessionModule 会话状态机
type SessionModule struct {
	store      rpsession.SessionStore
	identity   IdentityBackend
	maxRetries int
	now        func() time.Time
}

// NewSessionModule 创建会话状态机
func NewSessionModule(store rpsession.SessionStore, identity IdentityBackend, maxRetries int) *SessionModule {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &SessionModule{
		store:      store,
		identity:   identity,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Load 读取会话，不存在时返回初始会话（惰性创建）
func (m *SessionModule) Load(ctx context.Context, identity string) (*etsession.Session, error) {
	sess, err := m.store.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, errorx.ErrSessionNotFound) {
			return etsession.New(identity), nil
		}
		return nil, fmt.Errorf("load session failed: %w", err)
	}
	return sess, nil
}

// Advance 根据入站文本推进会话状态
// OTP 下发失败时返回错误且不保存任何状态变化
func (m *SessionModule) Advance(ctx context.Context, identity, text string) (*Result, error) {
	current, err := m.Load(ctx, identity)
	if err != nil {
		return nil, err
	}

	if current.IsVerified() {
		return &Result{Session: current, Handled: false}, nil
	}

	next := current.Clone()
	text = strings.TrimSpace(text)

	var res *Result
	switch next.State {
	case etsession.StateAwaitingPhone:
		res, err = m.onPhone(ctx, next, text)
	case etsession.StateAwaitingOTP:
		res, err = m.onOTP(ctx, next, text)
	default:
		next.State = etsession.StateAwaitingPhone
		res = &Result{Session: next, Prompt: etsession.PromptEnterPhone}
	}
	if err != nil {
		return nil, err
	}

	res.Handled = true
	res.Session.UpdatedAt = m.now()
	if err := m.store.Set(ctx, res.Session); err != nil {
		return nil, fmt.Errorf("save session failed: %w", err)
	}
	return res, nil
}

func (m *SessionModule) onPhone(ctx context.Context, sess *etsession.Session, text string) (*Result, error) {
	if !phonePattern.MatchString(text) {
		return &Result{Session: sess, Prompt: etsession.PromptInvalidPhone}, nil
	}

	if err := m.issue(ctx, text); err != nil {
		return nil, err
	}

	sess.Phone = text
	sess.State = etsession.StateAwaitingOTP
	return &Result{Session: sess, Prompt: etsession.PromptOTPSent}, nil
}

func (m *SessionModule) onOTP(ctx context.Context, sess *etsession.Session, text string) (*Result, error) {
	if strings.EqualFold(text, resendKeyword) {
		if sess.Phone == "" {
			sess.State = etsession.StateAwaitingPhone
			return &Result{Session: sess, Prompt: etsession.PromptPhoneMissing}, nil
		}
		if err := m.issue(ctx, sess.Phone); err != nil {
			return nil, err
		}
		return &Result{Session: sess, Prompt: etsession.PromptOTPResent}, nil
	}

	creds, err := m.identity.VerifyOTP(ctx, sess.Phone, text)
	if err != nil || creds == nil {
		// 后端不可达与验证码错误同等处理
		sess.OTPRetryCount++
		prompt := etsession.PromptInvalidOTP
		if sess.OTPRetryCount >= m.maxRetries {
			prompt = etsession.PromptTooManyAttempts
		}
		return &Result{Session: sess, Prompt: prompt, Attempt: sess.OTPRetryCount}, nil
	}

	sess.State = etsession.StateVerified
	sess.OTPRetryCount = 0
	sess.AuthToken = creds.Token
	sess.RefreshToken = creds.RefreshToken
	sess.TechnicianID = creds.TechnicianID
	sess.TechnicianName = creds.TechnicianName
	return &Result{Session: sess, Prompt: etsession.PromptVerified}, nil
}

func (m *SessionModule) issue(ctx context.Context, phone string) error {
	if err := m.identity.IssueOTP(ctx, phone); err != nil {
		if errors.Is(err, errorx.ErrSessionBackendFailure) {
			return err
		}
		return fmt.Errorf("%w: issue otp: %v", errorx.ErrSessionBackendFailure, err)
	}
	return nil
}

// MaxRetries OTP 错误次数上限
func (m *SessionModule) MaxRetries() int {
	return m.maxRetries
}
