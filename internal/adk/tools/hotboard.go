package tools

import (
	"fmt"
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

const (
	defaultHotBoardDelta = 5
	defaultTopBlocks     = 10
)

// ThsHotBoardsInput 同花顺热门板块输入参数
type ThsHotBoardsInput struct {
	Date  string `json:"date,omitempty" jsonschema:"截止日期，格式YYYYMMDD，默认当天"`
	Delta int    `json:"delta,omitzero" jsonschema:"向前追溯的交易日数量，1-10，默认5"`
}

// ThsHotBoardsOutput 同花顺热门板块输出
type ThsHotBoardsOutput struct {
	Data string `json:"data" jsonschema:"连板天梯与热门板块报告，Markdown格式"`
}

// createThsHotBoardsTool 创建同花顺热门板块工具
func (r *Registry) createThsHotBoardsTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input ThsHotBoardsInput) (ThsHotBoardsOutput, error) {
		fmt.Printf("[Tool:get_ths_hot_boards] 调用开始, date=%s, delta=%d\n", input.Date, input.Delta)

		date := input.Date
		if date == "" {
			date = time.Now().Format("20060102")
		}
		delta := input.Delta
		if delta == 0 {
			delta = defaultHotBoardDelta
		}

		report, err := r.deps.ThsCrawler.Crawl(ctx, date, delta, defaultTopBlocks)
		if err != nil {
			fmt.Printf("[Tool:get_ths_hot_boards] 错误: %v\n", err)
			return ThsHotBoardsOutput{}, err
		}

		fmt.Println("[Tool:get_ths_hot_boards] 调用完成")
		return ThsHotBoardsOutput{Data: report}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        ToolThsHotBoards,
		Description: "获取同花顺最近若干个交易日的连板天梯与最强板块数据，用于分析市场热点与情绪周期",
	}, handler)
}
