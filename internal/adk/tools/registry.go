// Package tools 提供 Agent 可调用的 functiontool 工具集
package tools

import (
	"sync"

	"google.golang.org/adk/tool"

	"github.com/Jiangwlee/smartrade-adk/internal/chart"
	"github.com/Jiangwlee/smartrade-adk/internal/config"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler/jrj"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler/taoguba"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler/ths"
)

// 工具名称
const (
	ToolStockHangqing = "get_stock_hangqing"
	ToolCreateKline   = "create_kline"
	ToolTgbJinghua    = "get_tgb_jinghua"
	ToolThsHotBoards  = "get_ths_hot_boards"
	ToolWebSearch     = "web_search"
)

// Deps 工具依赖
type Deps struct {
	JrjCrawler *jrj.Crawler
	TgbCrawler *taoguba.Crawler
	ThsCrawler *ths.Crawler
	Renderer   chart.Renderer
	Cache      *crawler.FileCache
	Search     config.SearchConfig
}

// Registry 工具注册表
type Registry struct {
	deps  Deps
	tools map[string]tool.Tool

	// 行情数据缓存，供 create_kline 复用 get_stock_hangqing 拉取的数据
	barsMu sync.RWMutex
	bars   map[string][]jrj.Bar
}

// NewRegistry 创建工具注册表并注册全部工具
func NewRegistry(deps Deps) (*Registry, error) {
	r := &Registry{
		deps:  deps,
		tools: make(map[string]tool.Tool),
		bars:  make(map[string][]jrj.Bar),
	}

	creators := map[string]func() (tool.Tool, error){
		ToolStockHangqing: r.createStockHangqingTool,
		ToolCreateKline:   r.createKlineTool,
		ToolTgbJinghua:    r.createTgbJinghuaTool,
		ToolThsHotBoards:  r.createThsHotBoardsTool,
		ToolWebSearch:     r.createWebSearchTool,
	}

	for name, create := range creators {
		t, err := create()
		if err != nil {
			return nil, err
		}
		r.tools[name] = t
	}
	return r, nil
}

// GetTool 获取指定名称的工具
func (r *Registry) GetTool(name string) (tool.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// GetTools 根据名称列表获取工具，忽略未注册的名称
func (r *Registry) GetTools(names []string) []tool.Tool {
	var result []tool.Tool
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			result = append(result, t)
		}
	}
	return result
}

// cacheBars 缓存个股行情数据
func (r *Registry) cacheBars(code string, bars []jrj.Bar) {
	r.barsMu.Lock()
	defer r.barsMu.Unlock()
	r.bars[code] = bars
}

// cachedBars 读取已缓存的个股行情数据
func (r *Registry) cachedBars(code string) ([]jrj.Bar, bool) {
	r.barsMu.RLock()
	defer r.barsMu.RUnlock()
	bars, ok := r.bars[code]
	return bars, ok
}
