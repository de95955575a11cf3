package tools

import (
	"fmt"
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/Jiangwlee/smartrade-adk/internal/chart"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler/jrj"
)

// CreateKlineInput K线图生成输入参数
type CreateKlineInput struct {
	Code string `json:"code" jsonschema:"6位股票代码，如 600519"`
	Name string `json:"name,omitempty" jsonschema:"股票名称，如 贵州茅台"`
}

// CreateKlineOutput K线图生成输出
type CreateKlineOutput struct {
	ImagePath string `json:"imagePath" jsonschema:"生成的K线图文件路径"`
}

// createKlineTool 创建K线图工具
// 优先复用 get_stock_hangqing 缓存的行情数据，计算均线、布林带与
// MACD 指标后交给渲染服务出图
func (r *Registry) createKlineTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input CreateKlineInput) (CreateKlineOutput, error) {
		fmt.Printf("[Tool:create_kline] 调用开始, code=%s, name=%s\n", input.Code, input.Name)

		if input.Code == "" {
			fmt.Println("[Tool:create_kline] 错误: 未提供股票代码")
			return CreateKlineOutput{}, fmt.Errorf("请提供6位股票代码")
		}
		if r.deps.Renderer == nil {
			fmt.Println("[Tool:create_kline] 错误: 渲染服务未配置")
			return CreateKlineOutput{}, fmt.Errorf("K线图渲染服务未配置")
		}

		bars, ok := r.cachedBars(input.Code)
		if !ok {
			date := time.Now().Format("20060102")
			var err error
			bars, err = r.deps.JrjCrawler.Crawl(ctx, input.Code, input.Name, jrj.KlineDay, date, defaultHangqingDays)
			if err != nil {
				fmt.Printf("[Tool:create_kline] 错误: %v\n", err)
				return CreateKlineOutput{}, err
			}
			r.cacheBars(input.Code, bars)
		}

		series, err := chart.Prepare(bars)
		if err != nil {
			fmt.Printf("[Tool:create_kline] 错误: %v\n", err)
			return CreateKlineOutput{}, err
		}

		path, err := r.deps.Renderer.Render(ctx, series)
		if err != nil {
			fmt.Printf("[Tool:create_kline] 错误: %v\n", err)
			return CreateKlineOutput{}, err
		}

		fmt.Printf("[Tool:create_kline] 调用完成, 图片已保存: %s\n", path)
		return CreateKlineOutput{ImagePath: path}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        ToolCreateKline,
		Description: "生成个股日K线图（含均线、布林带、MACD指标），返回图片文件路径",
	}, handler)
}
