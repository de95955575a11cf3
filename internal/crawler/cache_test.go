package crawler

import (
	"testing"
	"time"
)

// TestFileCache 测试文件缓存
func TestFileCache(t *testing.T) {
	t.Run("写入后读取", func(t *testing.T) {
		cache, err := NewFileCache(t.TempDir(), 5*time.Minute)
		if err != nil {
			t.Fatalf("创建缓存失败: %v", err)
		}

		if err := cache.Set("taoguba", "# 精华帖\n内容"); err != nil {
			t.Fatalf("写入缓存失败: %v", err)
		}
		got, ok := cache.Get("taoguba")
		if !ok {
			t.Fatal("缓存未命中")
		}
		if got != "# 精华帖\n内容" {
			t.Errorf("缓存内容不一致: %q", got)
		}
	})

	t.Run("过期后未命中", func(t *testing.T) {
		cache, err := NewFileCache(t.TempDir(), 10*time.Millisecond)
		if err != nil {
			t.Fatalf("创建缓存失败: %v", err)
		}

		if err := cache.Set("ths", "data"); err != nil {
			t.Fatalf("写入缓存失败: %v", err)
		}
		time.Sleep(30 * time.Millisecond)
		if _, ok := cache.Get("ths"); ok {
			t.Error("过期缓存不应命中")
		}
	})

	t.Run("不存在的key未命中", func(t *testing.T) {
		cache, err := NewFileCache(t.TempDir(), 5*time.Minute)
		if err != nil {
			t.Fatalf("创建缓存失败: %v", err)
		}
		if _, ok := cache.Get("missing"); ok {
			t.Error("不存在的 key 不应命中")
		}
	})
}
