package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/pkg/errorx"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v22.0"

	maxButtons        = 3
	maxButtonTitleLen = 20
	maxRowTitleLen    = 24
	maxRowDescLen     = 72
	maxHeaderLen      = 60
	maxListButtonLen  = 20
	maxMediaSize      = 16 << 20
)

// Client Graph API 消息客户端
type Client struct {
	baseURL    string
	apiVersion string
	token      string
	http       *http.Client
}

// NewClient 创建客户端，baseURL/apiVersion 为空时使用默认值
func NewClient(baseURL, apiVersion, token string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiVersion: apiVersion,
		token:      token,
		http:       client,
	}
}

// Send 发送一条出站消息
func (c *Client) Send(ctx context.Context, msg *etmessage.Outbound) error {
	if msg == nil {
		return errors.New("whatsapp: nil message")
	}
	if msg.ChannelID == "" || msg.To == "" {
		return fmt.Errorf("whatsapp: missing channel or recipient")
	}

	payload, err := BuildPayload(msg)
	if err != nil {
		return errorx.NonRetriable(errorx.ErrTransportFailure, "whatsapp: "+err.Error())
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errorx.NonRetriable(errorx.ErrTransportFailure, "whatsapp: marshal payload: "+err.Error())
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, msg.ChannelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errorx.Retriable(errorx.ErrTransportFailure, "whatsapp: send: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		message := fmt.Sprintf("whatsapp: send failed: status=%d body=%s", resp.StatusCode, raw)
		// 4xx 为请求本身的问题，重发无意义（429 除外）
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return errorx.NonRetriable(errorx.ErrTransportFailure, message).WithCode(resp.StatusCode)
		}
		return errorx.Retriable(errorx.ErrTransportFailure, message).WithCode(resp.StatusCode)
	}
	return nil
}

// MediaFile 下载得到的媒体文件
type MediaFile struct {
	ID       string
	MimeType string
	Data     []byte
}

// DownloadMedia 先查询媒体 URL，再带 token 下载内容
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) (*MediaFile, error) {
	if mediaID == "" {
		return nil, errors.New("whatsapp: empty media id")
	}

	var info struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, mediaID)
	raw, err := c.get(ctx, endpoint, 64<<10)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: media info: %w", err)
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("whatsapp: decode media info: %w", err)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("whatsapp: media %s has no url", mediaID)
	}

	data, err := c.get(ctx, info.URL, maxMediaSize)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: download media: %w", err)
	}
	return &MediaFile{ID: mediaID, MimeType: info.MimeType, Data: data}, nil
}

func (c *Client) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status=%d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
