package adk

import (
	"context"
	"strings"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/tool"

	"github.com/Jiangwlee/smartrade-adk/internal/adk/mcp"
	"github.com/Jiangwlee/smartrade-adk/internal/adk/tools"
	"github.com/Jiangwlee/smartrade-adk/internal/config"
	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

var agentLog = logger.New("AgentBuilder")

// AgentBuilder 分析师 Agent 构建器
type AgentBuilder struct {
	factory      *ModelFactory
	toolRegistry *tools.Registry
	mcpManager   *mcp.Manager
	ai           config.AIConfig
}

// NewAgentBuilder 创建 Agent 构建器
func NewAgentBuilder(factory *ModelFactory, registry *tools.Registry, mcpMgr *mcp.Manager, ai config.AIConfig) *AgentBuilder {
	return &AgentBuilder{
		factory:      factory,
		toolRegistry: registry,
		mcpManager:   mcpMgr,
		ai:           ai,
	}
}

// agentSpec 单个 Agent 的装配描述
type agentSpec struct {
	name        string
	description string
	prompt      string
	model       config.ModelConfig
	tools       []string
	withImage   bool // 挂载 K线图像分析 MCP toolset
}

// specs 全部 Agent 的装配描述
func (b *AgentBuilder) specs() []agentSpec {
	return []agentSpec{
		{
			name:        AgentGuba,
			description: "淘股吧精华热帖分析专家，擅长分析市场情绪、赚钱效应、机会与风险.",
			prompt:      gubaPrompt,
			model:       b.ai.Resolve(b.ai.MarketAnalyst),
			tools:       []string{tools.ToolTgbJinghua},
		},
		{
			name:        AgentHotBoard,
			description: "同花顺热门板块分析专家，擅长分析市场情绪、挖掘赚钱机会.",
			prompt:      hotBoardPrompt,
			model:       b.ai.Resolve(b.ai.MarketAnalyst),
			tools:       []string{tools.ToolThsHotBoards},
		},
		{
			name:        AgentStockBasis,
			description: "股票基本面分析专家，对具体股票进行全面分析",
			prompt:      stockBasisPrompt,
			model:       b.ai.Resolve(b.ai.StockAnalyst),
			tools:       []string{tools.ToolWebSearch},
		},
		{
			name:        AgentMarket,
			description: "A股市场分析专家，擅长分析市场整体情绪、赚钱效应、机会与风险.",
			prompt:      marketPrompt,
			model:       b.ai.Resolve(b.ai.MarketAnalyst),
			tools:       []string{tools.ToolThsHotBoards, tools.ToolTgbJinghua, tools.ToolWebSearch},
		},
		{
			name:        AgentStock,
			description: "股票分析专家，对具体股票进行全面分析",
			prompt:      stockPrompt,
			model:       b.ai.Resolve(b.ai.StockAnalyst),
			tools:       []string{tools.ToolStockHangqing, tools.ToolCreateKline, tools.ToolWebSearch},
			withImage:   true,
		},
		{
			name:        AgentCoordinator,
			description: "A股市场分析助手，协调市场分析与个股分析能力响应用户请求.",
			prompt:      coordinatorPrompt,
			model:       b.ai.Resolve(b.ai.Coordinator),
			tools: []string{
				tools.ToolThsHotBoards, tools.ToolTgbJinghua,
				tools.ToolStockHangqing, tools.ToolCreateKline, tools.ToolWebSearch,
			},
			withImage: true,
		},
	}
}

// BuildAll 构建全部 Agent，键为 Agent 名称
func (b *AgentBuilder) BuildAll(ctx context.Context) (map[string]agent.Agent, error) {
	agents := make(map[string]agent.Agent)
	for _, spec := range b.specs() {
		ag, err := b.build(ctx, spec)
		if err != nil {
			return nil, err
		}
		agents[spec.name] = ag
	}
	return agents, nil
}

// Build 构建指定名称的 Agent
func (b *AgentBuilder) Build(ctx context.Context, name string) (agent.Agent, error) {
	for _, spec := range b.specs() {
		if spec.name == name {
			return b.build(ctx, spec)
		}
	}
	return nil, ErrUnknownAgent(name)
}

func (b *AgentBuilder) build(ctx context.Context, spec agentSpec) (agent.Agent, error) {
	llm, err := b.factory.CreateModel(ctx, spec.model)
	if err != nil {
		return nil, err
	}

	var agentTools []tool.Tool
	if b.toolRegistry != nil {
		agentTools = b.toolRegistry.GetTools(spec.tools)
	}

	var toolsets []tool.Toolset
	if spec.withImage && b.mcpManager != nil {
		ts, err := b.mcpManager.ImageToolset()
		if err != nil {
			agentLog.WithError(err).Warn("图像分析 toolset 创建失败，跳过")
		} else if ts != nil {
			toolsets = append(toolsets, ts)
		}
	}

	return llmagent.New(llmagent.Config{
		Name:        spec.name,
		Model:       llm,
		Description: spec.description,
		Instruction: renderInstruction(spec.prompt, time.Now()),
		Tools:       agentTools,
		Toolsets:    toolsets,
	})
}

// ErrUnknownAgent 未注册的 Agent 名称
type ErrUnknownAgent string

func (e ErrUnknownAgent) Error() string {
	return "unknown agent: " + string(e)
}

// renderInstruction 填充指令里的当前时间与市场状态占位符
func renderInstruction(prompt string, now time.Time) string {
	timeStr := now.Format("2006-01-02 15:04:05 Monday")
	prompt = strings.ReplaceAll(prompt, "{current_time}", timeStr)
	prompt = strings.ReplaceAll(prompt, "{market_status}", marketStatus(now))
	return prompt
}

// marketStatus 判断A股盘中状态（交易时间：9:30-11:30, 13:00-15:00，周一至周五）
func marketStatus(now time.Time) string {
	weekday := now.Weekday()
	currentMinutes := now.Hour()*60 + now.Minute()

	switch {
	case weekday == time.Saturday || weekday == time.Sunday:
		return "休市（周末）"
	case currentMinutes >= 9*60+30 && currentMinutes <= 11*60+30:
		return "盘中（上午交易时段）"
	case currentMinutes >= 13*60 && currentMinutes <= 15*60:
		return "盘中（下午交易时段）"
	case currentMinutes < 9*60+30:
		return "盘前"
	case currentMinutes > 15*60:
		return "盘后"
	default:
		return "午间休市"
	}
}
