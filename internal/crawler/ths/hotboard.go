package ths

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jiangwlee/smartrade-adk/internal/crawler"
	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

// 日志实例
var log = logger.New("THS")

// API 端点与参数
const (
	defaultContinuousURL = "https://data.10jqka.com.cn/dataapi/limit_up/continuous_limit_up"
	defaultBlockURL      = "http://data.10jqka.com.cn/dataapi/limit_up/block_top"
	marketFilter         = "HS,GEM2STAR"
	candidateDays        = 30 // 往前推的天数，覆盖至少20个交易日
)

// LadderStock 连板天梯中的个股
type LadderStock struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	ContinueNum int    `json:"continue_num"` // 连板天数
}

// LadderLevel 连板天梯的一个层级
type LadderLevel struct {
	Height int           `json:"height"` // 连板高度
	Count  int           `json:"count"`  // 该高度股票数量
	Stocks []LadderStock `json:"stocks"`
}

// BlockStock 板块内的涨停股
type BlockStock struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	ChangeRate  float64 `json:"change_rate"`  // 涨幅(%)
	ContinueNum int     `json:"continue_num"` // 连板天数
	High        string  `json:"high"`         // 连板描述，如"首板"、"2连板"
	Latest      float64 `json:"latest"`       // 最新价格
	ReasonType  string  `json:"reason_type"`  // 涨停原因标签
	ReasonInfo  string  `json:"reason_info"`  // 详细涨停原因
}

// Block 最强板块
type Block struct {
	Code                 string       `json:"code"`
	Name                 string       `json:"name"`
	Change               float64      `json:"change"`                 // 板块涨跌幅(%)
	LimitUpCount         int          `json:"limit_up_count"`         // 涨停股数量
	ContinuousPlateCount int          `json:"continuous_plate_count"` // 连板股数量
	HighDesc             string       `json:"high_desc"`              // 最高连板描述
	ActiveDays           int          `json:"active_days"`            // 活跃天数
	Stocks               []BlockStock `json:"stocks"`
}

// HotBoardData 单个交易日的热门板块数据
type HotBoardData struct {
	Date      string        `json:"date"` // 行情日期(YYYYMMDD)
	Ladder    []LadderLevel `json:"continuous_limit_up"`
	TopBlocks []Block       `json:"top_blocks"`
}

// 接口原始响应结构
type continuousResponse struct {
	StatusCode int `json:"status_code"`
	Data       []struct {
		Height   int `json:"height"`
		Number   int `json:"number"`
		CodeList []struct {
			Code        string `json:"code"`
			Name        string `json:"name"`
			ContinueNum int    `json:"continue_num"`
		} `json:"code_list"`
	} `json:"data"`
}

type blockTopResponse struct {
	StatusCode int `json:"status_code"`
	Data       []struct {
		Code               string  `json:"code"`
		Name               string  `json:"name"`
		Change             float64 `json:"change"`
		LimitUpNum         int     `json:"limit_up_num"`
		ContinuousPlateNum int     `json:"continuous_plate_num"`
		High               string  `json:"high"`
		Days               int     `json:"days"`
		StockList          []struct {
			Code        string  `json:"code"`
			Name        string  `json:"name"`
			ChangeRate  float64 `json:"change_rate"`
			ContinueNum int     `json:"continue_num"`
			High        string  `json:"high"`
			Latest      float64 `json:"latest"`
			ReasonType  string  `json:"reason_type"`
			ReasonInfo  string  `json:"reason_info"`
		} `json:"stock_list"`
	} `json:"data"`
}

// Crawler 同花顺热门板块爬虫
// 从连板天梯和最强板块两个接口聚合数据，输出 Markdown 报告
type Crawler struct {
	client        *crawler.Client
	policy        crawler.RetryPolicy
	continuousURL string
	blockURL      string
}

// New 创建同花顺爬虫
func New(timeout time.Duration, policy crawler.RetryPolicy) *Crawler {
	client := crawler.NewClient(timeout, map[string]string{
		"Referer": "https://data.10jqka.com.cn/",
	})
	return &Crawler{
		client:        client,
		policy:        policy,
		continuousURL: defaultContinuousURL,
		blockURL:      defaultBlockURL,
	}
}

// buildURL 构建接口 URL
func buildURL(baseURL, date string) string {
	return fmt.Sprintf("%s?filter=%s&date=%s", baseURL, marketFilter, date)
}

// candidateDates 生成候选日期列表，按时间倒序
// 包含周末与节假日，由接口的 status_code 判断是否为交易日
func candidateDates(endDate string, numDays int) ([]string, error) {
	end, err := time.Parse("20060102", endDate)
	if err != nil {
		return nil, fmt.Errorf("日期格式错误: %w", err)
	}
	dates := make([]string, 0, numDays)
	for i := 0; i < numDays; i++ {
		dates = append(dates, end.AddDate(0, 0, -i).Format("20060102"))
	}
	return dates, nil
}

// fetchSingleDate 抓取单个日期的数据
// 两个接口并发请求，任一接口 status_code 为 0 即视为有效交易日
func (c *Crawler) fetchSingleDate(ctx context.Context, date string) (HotBoardData, bool) {
	var (
		wg         sync.WaitGroup
		continuous continuousResponse
		blockTop   blockTopResponse
		contErr    error
		blockErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, contErr = crawler.Retry(ctx, c.policy, "ths.continuous", func() (struct{}, error) {
			return struct{}{}, c.client.GetJSON(ctx, buildURL(c.continuousURL, date), &continuous)
		})
	}()
	go func() {
		defer wg.Done()
		_, blockErr = crawler.Retry(ctx, c.policy, "ths.block", func() (struct{}, error) {
			return struct{}{}, c.client.GetJSON(ctx, buildURL(c.blockURL, date), &blockTop)
		})
	}()
	wg.Wait()

	if contErr != nil {
		log.Warn("连板天梯接口失败 %s: %v", date, contErr)
		return HotBoardData{}, false
	}
	if blockErr != nil {
		log.Warn("最强板块接口失败 %s: %v", date, blockErr)
		return HotBoardData{}, false
	}
	if continuous.StatusCode != 0 && blockTop.StatusCode != 0 {
		log.Debug("%s 非交易日", date)
		return HotBoardData{}, false
	}

	data := HotBoardData{Date: date}
	if continuous.StatusCode == 0 {
		for _, level := range continuous.Data {
			stocks := make([]LadderStock, 0, len(level.CodeList))
			for _, s := range level.CodeList {
				stocks = append(stocks, LadderStock{Code: s.Code, Name: s.Name, ContinueNum: s.ContinueNum})
			}
			data.Ladder = append(data.Ladder, LadderLevel{
				Height: level.Height,
				Count:  level.Number,
				Stocks: stocks,
			})
		}
	}
	if blockTop.StatusCode == 0 {
		for _, block := range blockTop.Data {
			stocks := make([]BlockStock, 0, len(block.StockList))
			for _, s := range block.StockList {
				stocks = append(stocks, BlockStock{
					Code:        s.Code,
					Name:        s.Name,
					ChangeRate:  s.ChangeRate,
					ContinueNum: s.ContinueNum,
					High:        s.High,
					Latest:      s.Latest,
					ReasonType:  s.ReasonType,
					ReasonInfo:  s.ReasonInfo,
				})
			}
			data.TopBlocks = append(data.TopBlocks, Block{
				Code:                 block.Code,
				Name:                 block.Name,
				Change:               block.Change,
				LimitUpCount:         block.LimitUpNum,
				ContinuousPlateCount: block.ContinuousPlateNum,
				HighDesc:             block.High,
				ActiveDays:           block.Days,
				Stocks:               stocks,
			})
		}
	}
	return data, true
}

// renderMarkdown 生成单个交易日的 Markdown 报告
func renderMarkdown(data HotBoardData, topBlocksLimit int) string {
	var lines []string

	formattedDate := fmt.Sprintf("%s年%s月%s日", data.Date[:4], data.Date[4:6], data.Date[6:8])
	lines = append(lines, fmt.Sprintf("# 同花顺热门板块 - %s\n", formattedDate))

	// 一、连板天梯
	lines = append(lines, "## 一、连板天梯\n")
	lines = append(lines, "| 高度 | 数量 | 股票列表 |")
	lines = append(lines, "|------|------|----------|")

	totalStocks := 0
	maxHeight := 0
	for _, level := range data.Ladder {
		names := make([]string, 0, len(level.Stocks))
		for _, s := range level.Stocks {
			names = append(names, fmt.Sprintf("%s(%s)", s.Name, s.Code))
		}
		lines = append(lines, fmt.Sprintf("| %d连板 | %d | %s |", level.Height, level.Count, strings.Join(names, ", ")))
		totalStocks += level.Count
		if level.Height > maxHeight {
			maxHeight = level.Height
		}
	}

	maxStock := "N/A"
	if len(data.Ladder) > 0 && len(data.Ladder[0].Stocks) > 0 {
		maxStock = data.Ladder[0].Stocks[0].Name
	}
	lines = append(lines, fmt.Sprintf("\n**连板天梯总结**: 最高%d连板(%s), 共%d个层级, %d只连板股\n",
		maxHeight, maxStock, len(data.Ladder), totalStocks))

	// 二、最强板块
	lines = append(lines, fmt.Sprintf("## 二、最强板块 Top %d\n", topBlocksLimit))

	blocks := data.TopBlocks
	if len(blocks) > topBlocksLimit {
		blocks = blocks[:topBlocksLimit]
	}
	for idx, block := range blocks {
		lines = append(lines, fmt.Sprintf("### %d. %s (%s)", idx+1, block.Name, block.Code))
		lines = append(lines, fmt.Sprintf("- **涨停数**: %d只 | **连板数**: %d只 | **板块涨跌**: %+.2f%%",
			block.LimitUpCount, block.ContinuousPlateCount, block.Change))
		lines = append(lines, fmt.Sprintf("- **最高连板**: %s | **活跃天数**: %d天", block.HighDesc, block.ActiveDays))
		lines = append(lines, "- **核心个股**:\n")

		stocks := block.Stocks
		if len(stocks) > 3 {
			stocks = stocks[:3]
		}
		for _, s := range stocks {
			lines = append(lines, fmt.Sprintf("  **%s(%s)**: %+.2f%%, %s", s.Name, s.Code, s.ChangeRate, s.High))
			lines = append(lines, fmt.Sprintf("  - 原因标签: %s", s.ReasonType))
			lines = append(lines, fmt.Sprintf("  - 详细原因: %s\n", s.ReasonInfo))
		}
	}

	return strings.Join(lines, "\n")
}

// Crawl 爬取截止 date 往前 delta 个交易日的热门板块数据
// 多个交易日的报告按日期倒序以分隔线连接，delta 取值范围 1-10
func (c *Crawler) Crawl(ctx context.Context, date string, delta, topBlocksLimit int) (string, error) {
	if delta < 1 {
		delta = 1
	}
	if delta > 10 {
		delta = 10
	}
	if topBlocksLimit <= 0 {
		topBlocksLimit = 5
	}

	log.Info("开始爬取同花顺热门板块，截止 %s, delta=%d", date, delta)

	dates, err := candidateDates(date, candidateDays)
	if err != nil {
		return "", &crawler.Error{Op: "ths.crawl", Err: err, Transient: false}
	}

	// 并发抓取所有候选日期
	type dateResult struct {
		data HotBoardData
		ok   bool
	}
	var wg sync.WaitGroup
	results := make([]dateResult, len(dates))
	for i, d := range dates {
		wg.Add(1)
		go func(idx int, day string) {
			defer wg.Done()
			data, ok := c.fetchSingleDate(ctx, day)
			results[idx] = dateResult{data: data, ok: ok}
		}(i, d)
	}
	wg.Wait()

	var valid []HotBoardData
	for _, r := range results {
		if r.ok {
			valid = append(valid, r.data)
		}
	}
	if len(valid) == 0 {
		return "", &crawler.Error{
			Op:        "ths.crawl",
			Err:       fmt.Errorf("日期范围内没有有效交易日数据"),
			Transient: false,
		}
	}

	// 按日期倒序取最近 delta 个交易日
	sort.Slice(valid, func(i, j int) bool { return valid[i].Date > valid[j].Date })
	if len(valid) > delta {
		valid = valid[:delta]
	}

	reports := make([]string, 0, len(valid))
	for _, data := range valid {
		reports = append(reports, renderMarkdown(data, topBlocksLimit))
	}
	log.Info("爬取完成，共 %d 个交易日", len(reports))
	return strings.Join(reports, "\n\n---\n\n"), nil
}
