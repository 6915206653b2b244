package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"techbot/internal/app/domains/entity/etorder"
	"techbot/internal/app/pkg/errorx"
)

// OrderClient 订单后端 HTTP 客户端
// 所有调用使用技师登录后获得的 token
type OrderClient struct {
	ordersURL string
	statusURL string
	http      *http.Client
}

// NewOrderClient 创建订单后端客户端
// ordersURL 对应订单资源（列表与详情），statusURL 对应状态变更接口
func NewOrderClient(ordersURL, statusURL string, client *http.Client) *OrderClient {
	return &OrderClient{
		ordersURL: strings.TrimSuffix(ordersURL, "/"),
		statusURL: statusURL,
		http:      newHTTPClient(client),
	}
}

// GetOrder 按记录 ID 获取订单
func (c *OrderClient) GetOrder(ctx context.Context, token, recordID string) (*etorder.Order, error) {
	if recordID == "" {
		return nil, fmt.Errorf("%w: empty order id", errorx.ErrOrderNotFound)
	}

	endpoint := c.ordersURL + "/" + url.PathEscape(recordID)
	env, err := doJSON(ctx, c.http, http.MethodGet, endpoint, bearer(token), nil)
	if err != nil {
		return nil, wrapOrderErr("get order", err)
	}
	if !hasPayload(env) {
		return nil, fmt.Errorf("%w: %s", errorx.ErrOrderNotFound, recordID)
	}

	var dto orderDTO
	if err := json.Unmarshal(env.Payload, &dto); err != nil {
		return nil, wrapOrderErr("decode order", err)
	}
	return dto.toDomainModel()
}

// ListOrders 按状态与技师查询订单
func (c *OrderClient) ListOrders(ctx context.Context, token, statusCode, technicianID string, limit int) ([]*etorder.Order, error) {
	q := url.Values{}
	q.Set("orderStatus", statusCode)
	if technicianID != "" {
		q.Set("technician", technicianID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.list(ctx, token, q)
}

// FindByOrderNumber 按可读订单号查询（如 SRVZ-ORD-123456789）
func (c *OrderClient) FindByOrderNumber(ctx context.Context, token, orderNumber string) (*etorder.Order, error) {
	q := url.Values{}
	q.Set("orderId", orderNumber)
	q.Set("limit", "1")

	orders, err := c.list(ctx, token, q)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if strings.EqualFold(o.OrderID, orderNumber) {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errorx.ErrOrderNotFound, orderNumber)
}

func (c *OrderClient) list(ctx context.Context, token string, q url.Values) ([]*etorder.Order, error) {
	endpoint := c.ordersURL + "?" + q.Encode()
	env, err := doJSON(ctx, c.http, http.MethodGet, endpoint, bearer(token), nil)
	if err != nil {
		return nil, wrapOrderErr("list orders", err)
	}
	if !hasPayload(env) {
		return nil, nil
	}

	var payload listPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, wrapOrderErr("decode orders", err)
	}

	orders := make([]*etorder.Order, 0, len(payload.Items))
	for i := range payload.Items {
		o, err := payload.Items[i].toDomainModel()
		if err != nil {
			// 列表中个别订单状态无法识别时跳过，不影响其他订单展示
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateStatus 提交状态变更，返回被更新订单的记录 ID
func (c *OrderClient) UpdateStatus(ctx context.Context, token string, update *StatusUpdate) (string, error) {
	env, err := doJSON(ctx, c.http, http.MethodPost, c.statusURL, bearer(token), update.toDTO())
	if err != nil {
		return "", wrapOrderErr("update status", err)
	}
	if !hasPayload(env) {
		return "", fmt.Errorf("%w: update status: empty payload", errorx.ErrOrderBackendFailure)
	}

	var result statusUpdateResult
	if err := json.Unmarshal(env.Payload, &result); err != nil {
		return "", wrapOrderErr("decode status update", err)
	}
	if result.Order != nil && result.Order.ID != "" {
		return result.Order.ID, nil
	}
	return update.RecordID, nil
}

func wrapOrderErr(op string, err error) error {
	if errors.Is(err, errorx.ErrOrderBackendFailure) {
		return err
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %v", errorx.ErrOrderNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %v", errorx.ErrOrderBackendFailure, op, err)
}
