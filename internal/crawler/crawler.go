package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

// 日志实例
var log = logger.New("Crawler")

// 重试配置常量
const (
	DefaultMaxAttempts  = 3               // 默认最大尝试次数（含首次）
	DefaultInitialDelay = 1 * time.Second // 指数退避基础延迟
	DefaultBackoff      = 2.0             // 退避倍率
	RetryMaxDelay       = 15 * time.Second
)

// 默认请求头，模拟浏览器访问
var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept-Language": "zh-CN,zh;q=0.9",
}

// Error 爬虫错误，携带请求上下文并区分瞬时/永久错误
// 瞬时错误（网络抖动、5xx、限流）可以重试，永久错误（4xx、解析失败）直接放弃
type Error struct {
	Op        string // 操作描述，如 "jrj.fetch"
	URL       string
	Err       error
	Transient bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient 判断错误是否为瞬时错误
// 带标记的爬虫错误以标记为准，单次请求超时也包装为瞬时错误参与重试；
// 裸的 ctx 超时/取消视为调用方主动终止，不重试；未知错误按瞬时处理
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// RetryPolicy 重试策略
type RetryPolicy struct {
	MaxAttempts  int           // 最大尝试次数（含首次）
	InitialDelay time.Duration // 首次重试前的延迟
	Backoff      float64       // 每次重试延迟的放大倍率
}

// DefaultRetryPolicy 默认重试策略
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Backoff:      DefaultBackoff,
	}
}

// delayFor 第 attempt 次重试前的延迟（attempt 从 1 开始）
func (p RetryPolicy) delayFor(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Backoff)
	}
	if delay > RetryMaxDelay {
		delay = RetryMaxDelay
	}
	return delay
}

// Retry 带指数退避的重试包装
// 瞬时错误按策略重试，永久错误与 ctx 取消立即返回
func Retry[T any](ctx context.Context, policy RetryPolicy, op string, fn func() (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	result, err := fn()
	if err == nil || !IsTransient(err) {
		return result, err
	}
	// 调用方 ctx 已终止时不再重试，避免把取消误判为可重试的请求失败
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}

	lastErr := err
	for i := 1; i < policy.MaxAttempts; i++ {
		delay := policy.delayFor(i)
		log.Warn("%s retry %d/%d after %v, last error: %v", op, i, policy.MaxAttempts-1, delay, lastErr)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		result, err = fn()
		if err == nil {
			log.Info("%s retry %d/%d succeeded", op, i, policy.MaxAttempts-1)
			return result, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%s 重试 %d 次后仍失败: %w", op, policy.MaxAttempts-1, lastErr)
}

// Client 共享 HTTP 客户端，带默认请求头与 GBK 自动解码
type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

// NewClient 创建 HTTP 客户端，extra 中的请求头覆盖默认值
func NewClient(timeout time.Duration, extra map[string]string) *Client {
	headers := make(map[string]string, len(defaultHeaders)+len(extra))
	for k, v := range defaultHeaders {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
	}
}

// Get 执行 GET 请求并返回解码后的响应体
// 5xx 与 429 视为瞬时错误，其他 4xx 视为永久错误
func (c *Client) Get(ctx context.Context, url string, extra map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Op: "get", URL: url, Err: err, Transient: false}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: "get", URL: url, Err: err, Transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, &Error{
			Op:        "get",
			URL:       url,
			Err:       fmt.Errorf("unexpected status %d", resp.StatusCode),
			Transient: transient,
		}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &Error{Op: "get", URL: url, Err: err, Transient: true}
	}
	return body, nil
}

// decodeBody 读取响应体，GBK 系编码自动转换为 UTF-8
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "gbk") || strings.Contains(ct, "gb2312") || strings.Contains(ct, "gb18030") {
		reader = transform.NewReader(reader, simplifiedchinese.GB18030.NewDecoder())
	}
	return io.ReadAll(reader)
}

// GetJSON 执行 GET 请求并解析 JSON 响应
// 解析失败视为永久错误（重试拿到的还是同一份坏数据）
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Op: "json", URL: url, Err: err, Transient: false}
	}
	return nil
}

// GetDocument 执行 GET 请求并解析为 goquery 文档
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, &Error{Op: "parse", URL: url, Err: err, Transient: false}
	}
	return doc, nil
}
