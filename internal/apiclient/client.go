// Package apiclient 是访问 LMS 后端的唯一出口。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lms_client/pkg/logger"
	"lms_client/pkg/monitoring"
	"lms_client/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource 每次请求前读取当前 token，空串表示未登录
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	tracing    bool
	log        *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRateLimit 客户端节流：window 内最多 maxRequests 个请求。只等待不重试。
func WithRateLimit(maxRequests int, window time.Duration) Option {
	return func(c *Client) {
		if maxRequests <= 0 || window <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(window/time.Duration(maxRequests)), maxRequests)
	}
}

func WithTracing(enabled bool) Option {
	return func(c *Client) { c.tracing = enabled }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     TokenFunc(func() string { return "" }),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) logger() *zap.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.Log
}

// envelope 兼容 {success, data, message} 包装和裸 payload
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// Do 发送请求并把响应体解码到 out。out 为 nil 时丢弃响应体。
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Method: method, URL: resp.Request.URL.String(), Err: err}
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(method, resp.Request.URL.String(), resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := decodePayload(respBody, out); err != nil {
		return &Error{Kind: KindDecode, Method: method, URL: resp.Request.URL.String(), Err: err}
	}
	return nil
}

// Download 返回原始响应，调用方负责关闭 Body
func (c *Client) Download(ctx context.Context, path string) (*http.Response, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, parseAPIError(http.MethodGet, resp.Request.URL.String(), resp.StatusCode, respBody)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindInvalid, Method: method, URL: u, Err: fmt.Errorf("marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Method: method, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindNetwork, Method: method, URL: u, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.roundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		monitoring.ObserveClient(method, endpointLabel(path), 0, elapsed)
		c.logger().Warn("api request failed",
			zap.String("method", method),
			zap.String("url", u),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindNetwork, Method: method, URL: u, Err: err}
	}

	monitoring.ObserveClient(method, endpointLabel(path), resp.StatusCode, elapsed)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
	}
	switch {
	case resp.StatusCode >= 500:
		c.logger().Error("api request", fields...)
	case resp.StatusCode >= 400:
		c.logger().Warn("api request", fields...)
	default:
		c.logger().Info("api request", fields...)
	}
	return resp, nil
}

func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	if !c.tracing {
		return c.httpClient.Do(req)
	}
	req, span := tracing.StartClientSpan(req)
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	tracing.EndClientSpan(span, status, err)
	return resp, err
}

func decodePayload(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}

func parseAPIError(method, u string, status int, body []byte) error {
	e := &Error{
		Kind:   kindForStatus(status),
		Status: status,
		Method: method,
		URL:    u,
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = env.Message
		if e.Message == "" {
			e.Message = env.Error
		}
		if len(env.Errors) > 0 {
			e.Fields = parseFieldErrors(env.Errors)
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		e.Message = text
	}
	return e
}

// parseFieldErrors 支持 {"field": "msg"} 和 [{"field": "...", "message": "..."}] 两种形态
func parseFieldErrors(raw json.RawMessage) map[string]string {
	fields := map[string]string{}
	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap
	}
	var asList []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &asList); err == nil {
		for _, item := range asList {
			key := item.Field
			if key == "" {
				key = item.Path
			}
			msg := item.Message
			if msg == "" {
				msg = item.Msg
			}
			if key != "" {
				fields[key] = msg
			}
		}
	}
	return fields
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// endpointLabel 把路径里的 id 段替换成 :id，控制指标基数
func endpointLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if strings.ContainsAny(p, "0123456789") {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// IsCanceled 请求是否因 ctx 取消而失败
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
