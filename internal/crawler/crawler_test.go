package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// TestRetry 测试重试包装
func TestRetry(t *testing.T) {
	fastPolicy := RetryPolicy{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond, Backoff: 2.0}

	t.Run("首次成功不重试", func(t *testing.T) {
		calls := 0
		result, err := Retry(context.Background(), fastPolicy, "test", func() (string, error) {
			calls++
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("期望成功，实际错误: %v", err)
		}
		if result != "ok" || calls != 1 {
			t.Errorf("result=%s calls=%d", result, calls)
		}
	})

	t.Run("瞬时错误重试后成功", func(t *testing.T) {
		calls := 0
		result, err := Retry(context.Background(), fastPolicy, "test", func() (string, error) {
			calls++
			if calls < 3 {
				return "", &Error{Op: "test", Err: errors.New("网络抖动"), Transient: true}
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("期望重试后成功，实际错误: %v", err)
		}
		if calls != 3 {
			t.Errorf("期望调用3次，实际 %d 次", calls)
		}
		t.Logf("重试2次后成功: %s", result)
	})

	t.Run("重试耗尽返回最后错误", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), fastPolicy, "test", func() (string, error) {
			calls++
			return "", &Error{Op: "test", Err: errors.New("持续失败"), Transient: true}
		})
		if err == nil {
			t.Fatal("期望失败")
		}
		if calls != 3 {
			t.Errorf("期望调用3次（含首次），实际 %d 次", calls)
		}
		t.Logf("耗尽后错误: %v", err)
	})

	t.Run("永久错误立即放弃", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), fastPolicy, "test", func() (string, error) {
			calls++
			return "", &Error{Op: "test", Err: errors.New("404"), Transient: false}
		})
		if err == nil {
			t.Fatal("期望失败")
		}
		if calls != 1 {
			t.Errorf("永久错误不应重试，实际调用 %d 次", calls)
		}
	})

	t.Run("单次请求超时按瞬时错误重试", func(t *testing.T) {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			time.Sleep(100 * time.Millisecond)
		}))
		defer srv.Close()

		client := NewClient(20*time.Millisecond, nil)
		_, err := Retry(context.Background(), fastPolicy, "test", func() ([]byte, error) {
			return client.Get(context.Background(), srv.URL, nil)
		})
		if err == nil {
			t.Fatal("期望失败")
		}
		if got := atomic.LoadInt32(&hits); got != 3 {
			t.Errorf("超时应按策略重试，期望请求3次，实际 %d 次", got)
		}
	})

	t.Run("ctx已取消不再重试", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		_, err := Retry(ctx, fastPolicy, "test", func() (string, error) {
			calls++
			return "", &Error{Op: "test", Err: errors.New("失败"), Transient: true}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("期望 context.Canceled，实际: %v", err)
		}
		if calls != 1 {
			t.Errorf("取消后不应重试，实际调用 %d 次", calls)
		}
	})

	t.Run("ctx取消中断等待", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slowPolicy := RetryPolicy{MaxAttempts: 3, InitialDelay: 5 * time.Second, Backoff: 2.0}
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		_, err := Retry(ctx, slowPolicy, "test", func() (string, error) {
			return "", &Error{Op: "test", Err: errors.New("失败"), Transient: true}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("期望 context.Canceled，实际: %v", err)
		}
	})
}

// TestRetryPolicyDelay 测试指数退避延迟计算
func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, InitialDelay: 1 * time.Second, Backoff: 2.0}

	expected := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	var prev time.Duration
	for i, want := range expected {
		got := p.delayFor(i + 1)
		if got != want {
			t.Errorf("第%d次重试延迟: 期望 %v, 实际 %v", i+1, want, got)
		}
		if got <= prev {
			t.Errorf("延迟应严格递增: %v -> %v", prev, got)
		}
		prev = got
	}

	// 上限封顶
	if got := p.delayFor(10); got != RetryMaxDelay {
		t.Errorf("延迟应封顶于 %v, 实际 %v", RetryMaxDelay, got)
	}
}

// TestIsTransient 测试错误分类
func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"瞬时错误", &Error{Err: errors.New("x"), Transient: true}, true},
		{"永久错误", &Error{Err: errors.New("x"), Transient: false}, false},
		{"裸超时", context.DeadlineExceeded, false},
		{"裸取消", context.Canceled, false},
		{"请求超时包装为瞬时错误", &Error{Op: "Get", Err: context.DeadlineExceeded, Transient: true}, true},
		{"未知错误按瞬时处理", errors.New("connection reset"), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsTransient(c.err); got != c.want {
				t.Errorf("IsTransient(%v) = %v, 期望 %v", c.err, got, c.want)
			}
		})
	}
}

// TestClientGet 测试 HTTP 客户端
func TestClientGet(t *testing.T) {
	t.Run("状态码分类", func(t *testing.T) {
		cases := []struct {
			status    int
			transient bool
		}{
			{http.StatusInternalServerError, true},
			{http.StatusBadGateway, true},
			{http.StatusTooManyRequests, true},
			{http.StatusNotFound, false},
			{http.StatusForbidden, false},
		}
		for _, c := range cases {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
			}))
			client := NewClient(5*time.Second, nil)
			_, err := client.Get(context.Background(), srv.URL, nil)
			srv.Close()
			if err == nil {
				t.Fatalf("状态码 %d 期望失败", c.status)
			}
			if IsTransient(err) != c.transient {
				t.Errorf("状态码 %d: IsTransient=%v, 期望 %v", c.status, IsTransient(err), c.transient)
			}
		}
	})

	t.Run("默认请求头", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, nil)
		body, err := client.Get(context.Background(), srv.URL, nil)
		if err != nil {
			t.Fatalf("请求失败: %v", err)
		}
		if string(body) != "ok" {
			t.Errorf("响应体: %s", body)
		}
		if gotUA == "" || gotUA == "Go-http-client/1.1" {
			t.Errorf("应使用浏览器 UA, 实际: %s", gotUA)
		}
	})

	t.Run("额外请求头覆盖默认值", func(t *testing.T) {
		var gotUA, gotRef string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotRef = r.Header.Get("Referer")
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, map[string]string{"User-Agent": "custom-agent"})
		_, err := client.Get(context.Background(), srv.URL, map[string]string{"Referer": "https://example.com"})
		if err != nil {
			t.Fatalf("请求失败: %v", err)
		}
		if gotUA != "custom-agent" {
			t.Errorf("UA 应被覆盖, 实际: %s", gotUA)
		}
		if gotRef != "https://example.com" {
			t.Errorf("Referer 未透传, 实际: %s", gotRef)
		}
	})

	t.Run("GBK自动解码", func(t *testing.T) {
		raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("贵州茅台"))
		if err != nil {
			t.Fatalf("构造 GBK 数据失败: %v", err)
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=GBK")
			w.Write(raw)
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, nil)
		body, err := client.Get(context.Background(), srv.URL, nil)
		if err != nil {
			t.Fatalf("请求失败: %v", err)
		}
		if string(body) != "贵州茅台" {
			t.Errorf("GBK 解码失败, 实际: %q", body)
		}
	})

	t.Run("GetJSON解析失败为永久错误", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		client := NewClient(5*time.Second, nil)
		var v map[string]any
		err := client.GetJSON(context.Background(), srv.URL, &v)
		if err == nil {
			t.Fatal("期望解析失败")
		}
		if IsTransient(err) {
			t.Error("JSON 解析失败不应重试")
		}
	})
}
