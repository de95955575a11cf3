package crawler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// cacheEntry 缓存条目
type cacheEntry struct {
	Data      string    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileCache 文件缓存管理器
// 各爬虫用它缓存整理好的 Markdown 摘要，避免短时间内重复抓取
type FileCache struct {
	cacheDir string
	ttl      time.Duration
	mu       sync.RWMutex
}

// NewFileCache 创建文件缓存
func NewFileCache(cacheDir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{
		cacheDir: cacheDir,
		ttl:      ttl,
	}, nil
}

// cacheFilePath 获取缓存文件路径
func (c *FileCache) cacheFilePath(key string) string {
	return filepath.Join(c.cacheDir, key+".json")
}

// Get 获取缓存数据，过期或不存在时返回 false
func (c *FileCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.cacheFilePath(key))
	if err != nil {
		return "", false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}

	// 检查是否过期
	if time.Since(entry.UpdatedAt) > c.ttl {
		return "", false
	}

	return entry.Data, true
}

// Set 设置缓存数据
func (c *FileCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{
		Data:      value,
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.cacheFilePath(key), data, 0644)
}
