// Package mcp 提供 MCP (Model Context Protocol) 集成功能
package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/mcptoolset"

	"github.com/Jiangwlee/smartrade-adk/internal/config"
)

// 传输层类型
const (
	TransportSSE     = "sse"
	TransportCommand = "command"
	TransportHTTP    = "http"
)

// ToolInfo MCP 工具信息
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Manager 管理 K 线图像分析 MCP 服务的连接与 toolset
type Manager struct {
	cfg config.ImageMCPConfig

	mu      sync.Mutex
	toolset tool.Toolset
}

// NewManager 创建 MCP 管理器
func NewManager(cfg config.ImageMCPConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Enabled 图像分析服务是否启用
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled
}

// ImageToolset 获取图像分析 toolset，首次调用时建立
// 服务未启用时返回 nil toolset
func (m *Manager) ImageToolset() (tool.Toolset, error) {
	if !m.cfg.Enabled {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.toolset != nil {
		return m.toolset, nil
	}

	ts, err := mcptoolset.New(mcptoolset.Config{
		Transport:  createTransport(m.cfg),
		ToolFilter: tool.StringPredicate(m.cfg.ToolFilter),
	})
	if err != nil {
		return nil, fmt.Errorf("create image toolset: %w", err)
	}

	m.toolset = ts
	return ts, nil
}

// createTransport 根据配置创建 MCP 传输层
func createTransport(cfg config.ImageMCPConfig) mcp.Transport {
	switch cfg.Transport {
	case TransportSSE:
		return &mcp.SSEClientTransport{Endpoint: cfg.Endpoint}
	case TransportCommand:
		return &mcp.CommandTransport{Command: exec.Command(cfg.Command, cfg.Args...)}
	default: // http
		return &mcp.StreamableClientTransport{Endpoint: cfg.Endpoint}
	}
}

// TestConnection 测试图像分析服务连通性
func (m *Manager) TestConnection(ctx context.Context) error {
	if !m.cfg.Enabled {
		return fmt.Errorf("图像分析服务未启用")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	impl := &mcp.Implementation{Name: "smartrade", Version: "1.0.0"}
	client := mcp.NewClient(impl, nil)
	session, err := client.Connect(ctx, createTransport(m.cfg), nil)
	if err != nil {
		return err
	}
	return session.Close()
}

// ListTools 列出图像分析服务暴露的工具
func (m *Manager) ListTools(ctx context.Context) ([]ToolInfo, error) {
	if !m.cfg.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	impl := &mcp.Implementation{Name: "smartrade", Version: "1.0.0"}
	client := mcp.NewClient(impl, nil)
	session, err := client.Connect(ctx, createTransport(m.cfg), nil)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	toolsResp, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}

	var tools []ToolInfo
	for _, t := range toolsResp.Tools {
		tools = append(tools, ToolInfo{Name: t.Name, Description: t.Description})
	}
	return tools, nil
}
