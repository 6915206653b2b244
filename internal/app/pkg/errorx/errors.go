package errorx

import (
	"errors"
	"fmt"
	"strings"
)

// 业务错误分类
var (
	ErrUnknownStatusCode         = errors.New("unknown status code")
	ErrUnknownStatusLabel        = errors.New("unknown status label")
	ErrInvalidTransition         = errors.New("invalid transition")
	ErrDocumentsIncomplete       = errors.New("documents incomplete")
	ErrSessionBackendFailure     = errors.New("session backend failure")
	ErrOrderBackendFailure       = errors.New("order backend failure")
	ErrMalformedCorrelationToken = errors.New("malformed correlation token")
	ErrTransportFailure          = errors.New("chat transport failure")
	ErrSessionNotFound           = errors.New("session not found")
	ErrOrderNotFound             = errors.New("order not found")
)

// BusinessError 业务错误结构（包含可重试标记）
type BusinessError struct {
	Code      int
	Message   string
	Retryable bool
	Details   []ErrorDetail
	cause     error
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Path string
	Info string
}

// Error 实现 error 接口
func (e *BusinessError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *BusinessError) Unwrap() error {
	return e.cause
}

// Retriable 创建可重试错误（网络错误、后端临时故障等）
func Retriable(kind error, message string) *BusinessError {
	return &BusinessError{
		Code:      500,
		Message:   message,
		Retryable: true,
		cause:     kind,
	}
}

// NonRetriable 创建不可重试错误（参数错误、业务规则错误等）
func NonRetriable(kind error, message string) *BusinessError {
	return &BusinessError{
		Code:      400,
		Message:   message,
		Retryable: false,
		cause:     kind,
	}
}

// WithCode 覆盖错误码（如下游 HTTP 状态码）
func (e *BusinessError) WithCode(code int) *BusinessError {
	e.Code = code
	return e
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return errors.Is(err, ErrOrderBackendFailure) || errors.Is(err, ErrSessionBackendFailure)
}

// TransitionError 状态流转被拒绝
// Allowed 为订单当前状态下合法的动作集合（用于重新展示按钮）
type TransitionError struct {
	Action  string
	Current string
	Allowed []string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("action %q not allowed from status %q", e.Action, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// DocumentsError 文档不完整，Missing 为缺失项的可读名称
type DocumentsError struct {
	Missing []string
}

func (e *DocumentsError) Error() string {
	if len(e.Missing) == 0 {
		return ErrDocumentsIncomplete.Error()
	}
	return ErrDocumentsIncomplete.Error() + ": missing " + strings.Join(e.Missing, ", ")
}

func (e *DocumentsError) Unwrap() error {
	return ErrDocumentsIncomplete
}
