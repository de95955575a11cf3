package tools

import (
	"fmt"
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/Jiangwlee/smartrade-adk/internal/crawler/jrj"
)

// 默认拉取的日线条数
const defaultHangqingDays = 240

// StockHangqingInput 个股行情输入参数
type StockHangqingInput struct {
	Code string `json:"code" jsonschema:"6位股票代码，如 600519"`
	Name string `json:"name,omitempty" jsonschema:"股票名称，如 贵州茅台"`
}

// StockHangqingOutput 个股行情输出
type StockHangqingOutput struct {
	Data string `json:"data" jsonschema:"行情数据分析报告"`
}

// createStockHangqingTool 创建个股行情工具
// 拉取近240个交易日的日K数据并生成均线与涨跌分析报告
func (r *Registry) createStockHangqingTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input StockHangqingInput) (StockHangqingOutput, error) {
		fmt.Printf("[Tool:get_stock_hangqing] 调用开始, code=%s, name=%s\n", input.Code, input.Name)

		if input.Code == "" {
			fmt.Println("[Tool:get_stock_hangqing] 错误: 未提供股票代码")
			return StockHangqingOutput{Data: "请提供6位股票代码"}, nil
		}

		date := time.Now().Format("20060102")
		bars, err := r.deps.JrjCrawler.Crawl(ctx, input.Code, input.Name, jrj.KlineDay, date, defaultHangqingDays)
		if err != nil {
			fmt.Printf("[Tool:get_stock_hangqing] 错误: %v\n", err)
			return StockHangqingOutput{}, err
		}

		// 缓存行情数据供 create_kline 复用
		r.cacheBars(input.Code, bars)

		report, err := jrj.Summarize(bars)
		if err != nil {
			fmt.Printf("[Tool:get_stock_hangqing] 错误: %v\n", err)
			return StockHangqingOutput{}, err
		}

		fmt.Printf("[Tool:get_stock_hangqing] 调用完成, 共%d条数据\n", len(bars))
		return StockHangqingOutput{Data: report}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        ToolStockHangqing,
		Description: "获取个股近240个交易日的行情数据，返回均线系统与短期走势强度分析报告",
	}, handler)
}
