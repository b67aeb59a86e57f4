package replica

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
)

// HTTPClient 通过 HTTP 访问副本数据面
// 每个操作对应 POST http://<address>/v1/<op>，请求和响应均为 JSON
type HTTPClient struct {
	httpClient *http.Client
	scheme     string
}

// Option HTTPClient 配置项
type Option func(*HTTPClient)

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithScheme 设置 URL scheme，默认 http
func WithScheme(scheme string) Option {
	return func(h *HTTPClient) {
		h.scheme = scheme
	}
}

// NewHTTPClient 创建副本 HTTP 客户端
func NewHTTPClient(timeout time.Duration, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		scheme:     "http",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) newRequest() *dataflow.Gout {
	return gout.New(c.httpClient)
}

// call 发送请求并把 2xx 响应解码到 out，out 为 nil 时忽略响应体
func (c *HTTPClient) call(ctx context.Context, address, op string, in, out any) error {
	url := fmt.Sprintf("%s://%s/v1/%s", c.scheme, address, op)

	var (
		code int
		body []byte
	)
	flow := c.newRequest().
		POST(url).
		WithContext(ctx)
	if in != nil {
		flow = flow.SetJSON(in)
	}
	if err := flow.BindBody(&body).Code(&code).Do(); err != nil {
		return fmt.Errorf("replica %s %s: %w", address, op, err)
	}

	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		var e errorResponse
		if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
			return fmt.Errorf("replica %s %s: status %d: %s", address, op, code, e.Error)
		}
		return fmt.Errorf("replica %s %s: status %d", address, op, code)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("replica %s %s: decode response: %w", address, op, err)
	}
	return nil
}

// Info 实现 Client 接口
func (c *HTTPClient) Info(ctx context.Context, address string) (*Info, error) {
	var info Info
	if err := c.call(ctx, address, "info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Resize 实现 Client 接口
func (c *HTTPClient) Resize(ctx context.Context, address string, size int64) error {
	return c.call(ctx, address, "resize", &resizeRequest{Size: size}, nil)
}

// Snapshot 实现 Client 接口
func (c *HTTPClient) Snapshot(ctx context.Context, address, name string, labels map[string]string) (int64, error) {
	var resp snapshotResponse
	if err := c.call(ctx, address, "snapshot", &snapshotRequest{Name: name, Labels: labels}, &resp); err != nil {
		return 0, err
	}
	return resp.Size, nil
}

// RemoveSnapshot 实现 Client 接口
func (c *HTTPClient) RemoveSnapshot(ctx context.Context, address, name string) error {
	return c.call(ctx, address, "snapshot-remove", &nameRequest{Name: name}, nil)
}

// PurgeSnapshot 实现 Client 接口
func (c *HTTPClient) PurgeSnapshot(ctx context.Context, address, name string) error {
	return c.call(ctx, address, "snapshot-purge", &nameRequest{Name: name}, nil)
}

// Revert 实现 Client 接口
func (c *HTTPClient) Revert(ctx context.Context, address, name string) error {
	return c.call(ctx, address, "revert", &nameRequest{Name: name}, nil)
}

// Stats 实现 Client 接口
func (c *HTTPClient) Stats(ctx context.Context, address string) (*Stats, error) {
	var stats Stats
	if err := c.call(ctx, address, "stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
