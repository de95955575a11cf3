// Package config 统一配置管理，从环境变量或 .env 文件读取
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	AI       AIConfig
	Crawler  CrawlerConfig
	Chart    ChartConfig
	Search   SearchConfig
	ImageMCP ImageMCPConfig
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"smartrade"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `envconfig:"SERVER_ADDR" default:":8000"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// ModelConfig 单个 LLM 的接入配置
// 环境变量名由字段路径推导，如 AI_DEFAULT_PROVIDER、AI_COORDINATOR_MODEL_NAME
type ModelConfig struct {
	Provider     string `default:"openai"` // openai / gemini
	ModelName    string `split_words:"true"`
	APIKey       string `split_words:"true"`
	BaseURL      string `split_words:"true"`
	NoSystemRole bool   `split_words:"true"` // 模型不支持 system role 时降级处理
}

// AIConfig 各 Agent 使用的 LLM 配置
// 协调者与两位分析师可以使用不同的模型，未配置时回退到 Default
type AIConfig struct {
	Default       ModelConfig
	Coordinator   ModelConfig
	MarketAnalyst ModelConfig
	StockAnalyst  ModelConfig
}

// Resolve 返回给定配置，ModelName 为空时回退到默认配置
func (c AIConfig) Resolve(mc ModelConfig) ModelConfig {
	if mc.ModelName == "" {
		return c.Default
	}
	return mc
}

// CrawlerConfig 爬虫公共配置
type CrawlerConfig struct {
	Timeout      time.Duration `envconfig:"CRAWLER_TIMEOUT" default:"20s"`
	MaxAttempts  int           `envconfig:"CRAWLER_MAX_ATTEMPTS" default:"3"`
	InitialDelay time.Duration `envconfig:"CRAWLER_INITIAL_DELAY" default:"1s"`
	Backoff      float64       `envconfig:"CRAWLER_BACKOFF" default:"2.0"`
	CacheTTL     time.Duration `envconfig:"CRAWLER_CACHE_TTL" default:"5m"`
}

// ChartConfig K线图渲染服务配置
type ChartConfig struct {
	RendererURL string        `envconfig:"CHART_RENDERER_URL"`
	Timeout     time.Duration `envconfig:"CHART_TIMEOUT" default:"30s"`
}

// SearchConfig 网络搜索配置
type SearchConfig struct {
	TavilyAPIKey string `envconfig:"TAVILY_API_KEY"`
	MaxResults   int    `envconfig:"SEARCH_MAX_RESULTS" default:"5"`
}

// ImageMCPConfig K线图像分析 MCP 服务配置
type ImageMCPConfig struct {
	Enabled   bool     `envconfig:"IMAGE_MCP_ENABLED" default:"false"`
	Transport string   `envconfig:"IMAGE_MCP_TRANSPORT" default:"command"` // command / sse / http
	Endpoint  string   `envconfig:"IMAGE_MCP_ENDPOINT"`
	Command   string   `envconfig:"IMAGE_MCP_COMMAND"`
	Args      []string `envconfig:"IMAGE_MCP_ARGS"`
	// ToolFilter 只暴露命中的工具，为空表示全部
	ToolFilter []string `envconfig:"IMAGE_MCP_TOOL_FILTER"`
}

// Load 加载配置，.env 文件存在时先行读取
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}
