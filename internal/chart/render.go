package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jiangwlee/smartrade-adk/internal/logger"
	"github.com/Jiangwlee/smartrade-adk/internal/pkg/paths"
)

// 日志实例
var log = logger.New("Chart")

// Renderer 把指标序列渲染为 K 线图，返回图片文件路径
type Renderer interface {
	Render(ctx context.Context, series *Series) (string, error)
}

// HTTPRenderer 调用外部渲染服务生成 K 线图
// 渲染服务接收指标序列 JSON，返回 PNG 图片
type HTTPRenderer struct {
	endpoint   string
	httpClient *http.Client
	outputDir  string
}

// NewHTTPRenderer 创建 HTTP 渲染器
func NewHTTPRenderer(endpoint string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRenderer{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		outputDir:  paths.GetChartDir(),
	}
}

// Render 提交渲染请求并把返回的 PNG 保存到图表目录
func (r *HTTPRenderer) Render(ctx context.Context, series *Series) (string, error) {
	payload, err := json.Marshal(series)
	if err != nil {
		return "", fmt.Errorf("序列化失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("渲染请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("渲染服务返回 %d: %s", resp.StatusCode, body)
	}

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.png", series.Code, strings.ReplaceAll(series.LastDate(), "-", ""))
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("保存图片失败: %w", err)
	}
	log.Info("K线图已保存: %s (%d 字节)", path, len(png))
	return path, nil
}
