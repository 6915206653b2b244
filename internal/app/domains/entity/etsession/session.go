package etsession

import "time"

// State 会话认证状态
type State string

const (
	StateInitial       State = "initial"
	StateAwaitingPhone State = "awaiting_phone"
	StateAwaitingOTP   State = "awaiting_otp"
	StateVerified      State = "verified"
)

// Session 技师会话（按聊天身份区分）
type Session struct {
	Identity       string    `json:"identity"`
	State          State     `json:"state"`
	Phone          string    `json:"phone,omitempty"`
	OTPRetryCount  int       `json:"otp_retry_count"`
	AuthToken      string    `json:"auth_token,omitempty"`
	RefreshToken   string    `json:"refresh_token,omitempty"`
	TechnicianID   string    `json:"technician_id,omitempty"`
	TechnicianName string    `json:"technician_name,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New 创建初始会话
func New(identity string) *Session {
	return &Session{
		Identity: identity,
		State:    StateInitial,
	}
}

// IsVerified 是否已完成认证
func (s *Session) IsVerified() bool {
	return s.State == StateVerified
}

// Clone 复制会话，状态机在副本上修改，成功后再保存
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// Prompt 状态机产生的提示类型，由展示层转换为文案
type Prompt int

const (
	PromptNone Prompt = iota
	PromptEnterPhone
	PromptInvalidPhone
	PromptOTPSent
	PromptOTPResent
	PromptPhoneMissing
	PromptInvalidOTP
	PromptTooManyAttempts
	PromptVerified
)

// Credentials OTP 校验成功后身份后端返回的信息
type Credentials struct {
	Token          string
	RefreshToken   string
	TechnicianID   string
	TechnicianName string
}
