package apptoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAppName 签发到令牌中的调用方标识
const DefaultAppName = "WhatsApp-Bot"

// DefaultTTL 令牌有效期
const DefaultTTL = 5 * time.Minute

// Claims 应用令牌声明
type Claims struct {
	App string `json:"app"`
	jwt.RegisteredClaims
}

// Issuer 为后端调用签发短期 HS256 令牌
type Issuer struct {
	secret []byte
	app    string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer 创建签发器，secret 为空时 Enabled 返回 false
func NewIssuer(secret, app string, ttl time.Duration) *Issuer {
	if app == "" {
		app = DefaultAppName
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		app:    app,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled 是否配置了签名密钥
func (i *Issuer) Enabled() bool {
	return i != nil && len(i.secret) > 0
}

// Issue 签发新令牌（每次调用都重新签发，不做缓存）
func (i *Issuer) Issue() (string, error) {
	if !i.Enabled() {
		return "", errors.New("apptoken: secret not configured")
	}
	now := i.now()
	claims := Claims{
		App: i.app,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("apptoken: sign failed: %w", err)
	}
	return signed, nil
}

// Parse 校验令牌签名与有效期
func (i *Issuer) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("apptoken: parse failed: %w", err)
	}
	return &claims, nil
}
