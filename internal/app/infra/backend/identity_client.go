package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"techbot/internal/app/domains/entity/etsession"
	"techbot/internal/app/pkg/apptoken"
	"techbot/internal/app/pkg/errorx"
)

// IdentityClient 身份/OTP 后端客户端
type IdentityClient struct {
	baseURL string
	tokens  *apptoken.Issuer
	http    *http.Client
}

// NewIdentityClient 创建身份后端客户端
// baseURL 以 / 结尾，例如 https://sc.example.com/api/
func NewIdentityClient(baseURL string, tokens *apptoken.Issuer, client *http.Client) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		tokens:  tokens,
		http:    newHTTPClient(client),
	}
}

type otpRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp,omitempty"`
}

type credentialsDTO struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
}

// IssueOTP 向手机号下发验证码
func (c *IdentityClient) IssueOTP(ctx context.Context, phone string) error {
	auth, err := c.authorization()
	if err != nil {
		return err
	}
	env, err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+"employee-login-otp/sent", auth, otpRequest{Mobile: phone})
	if err != nil {
		return fmt.Errorf("%w: issue otp: %v", errorx.ErrSessionBackendFailure, err)
	}
	if env.Status != nil && !*env.Status {
		return fmt.Errorf("%w: issue otp rejected: %s", errorx.ErrSessionBackendFailure, env.Message)
	}
	return nil
}

// VerifyOTP 校验验证码，验证码错误时返回 (nil, nil)
func (c *IdentityClient) VerifyOTP(ctx context.Context, phone, otp string) (*etsession.Credentials, error) {
	auth, err := c.authorization()
	if err != nil {
		return nil, err
	}
	env, err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+"employee-login-otp/confirm", auth, otpRequest{Mobile: phone, OTP: otp})
	if err != nil {
		return nil, fmt.Errorf("%w: verify otp: %v", errorx.ErrSessionBackendFailure, err)
	}
	if env.Status == nil || !*env.Status || !hasPayload(env) {
		return nil, nil
	}

	var dto credentialsDTO
	if err := json.Unmarshal(env.Payload, &dto); err != nil {
		return nil, fmt.Errorf("%w: decode credentials: %v", errorx.ErrSessionBackendFailure, err)
	}
	if dto.Token == "" {
		return nil, nil
	}
	return &etsession.Credentials{
		Token:          dto.Token,
		RefreshToken:   dto.RefreshToken,
		TechnicianID:   dto.UserID,
		TechnicianName: dto.Name,
	}, nil
}

func (c *IdentityClient) authorization() (string, error) {
	if !c.tokens.Enabled() {
		return "", nil
	}
	token, err := c.tokens.Issue()
	if err != nil {
		return "", fmt.Errorf("%w: %v", errorx.ErrSessionBackendFailure, err)
	}
	return bearer(token), nil
}
