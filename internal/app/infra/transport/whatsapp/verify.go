package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// SignatureHeader 平台对 webhook 请求体的签名头
const SignatureHeader = "X-Hub-Signature-256"

// VerifySubscription 校验 webhook 订阅请求，成功时返回需要回显的 challenge
func VerifySubscription(verifyToken, mode, token, challenge string) (string, bool) {
	if verifyToken == "" || mode != "subscribe" || token != verifyToken {
		return "", false
	}
	return challenge, true
}

// VerifySignature 使用应用密钥校验请求体签名（sha256=<hex>）
func VerifySignature(appSecret, signature string, body []byte) error {
	if signature == "" {
		return ErrMissingSignature
	}
	sig, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	_, _ = mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return ErrInvalidSignature
	}
	return nil
}
