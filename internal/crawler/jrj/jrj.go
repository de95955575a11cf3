package jrj

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/Jiangwlee/smartrade-adk/internal/crawler"
	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

// 日志实例
var log = logger.New("JRJ")

// KlineType 行情类型
type KlineType string

const (
	KlineDay       KlineType = "day"       // 日线
	KlineOneMinute KlineType = "1minkline" // 1分钟线
)

// Bar 单根 K 线
type Bar struct {
	Code   string  `json:"code"`   // 股票代码
	Name   string  `json:"name"`   // 股票名称
	Time   int64   `json:"time"`   // 日期或时间戳：20241213 或 1733103000
	Open   float64 `json:"open"`   // 开盘价
	High   float64 `json:"high"`   // 最高价
	Low    float64 `json:"low"`    // 最低价
	Close  float64 `json:"close"`  // 收盘价
	Volume int64   `json:"volume"` // 成交量
	Amount float64 `json:"amount"` // 成交金额
}

// Crawler 金融界行情爬虫
// 通过 gateway.jrj.com 的 K 线接口获取股票历史行情
type Crawler struct {
	client *crawler.Client
	policy crawler.RetryPolicy
}

// New 创建金融界行情爬虫
func New(timeout time.Duration, policy crawler.RetryPolicy) *Crawler {
	return &Crawler{
		client: crawler.NewClient(timeout, nil),
		policy: policy,
	}
}

// buildSecurityID 根据股票代码构造 securityId
// 沪深京A股：6 开头 -> 1xxxxxx，深圳股票 -> 2xxxxxx
func buildSecurityID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1" + code
	}
	return "2" + code
}

// buildURL 构造 K 线接口 URL
func buildURL(code string, klineType KlineType, date string, rangeNum int) string {
	return fmt.Sprintf(
		"https://gateway.jrj.com/quot-kline?format=json&securityId=%s&type=%s&direction=left&range.num=%d&range.begin=%s",
		buildSecurityID(code), klineType, rangeNum, date,
	)
}

// rawBar 接口返回的单条 K 线，新旧两套字段名并存
type rawBar struct {
	Time    json.Number `json:"time"`
	NTime   json.Number `json:"nTime"`
	Open    json.Number `json:"open"`
	NOpenPx json.Number `json:"nOpenPx"`
	High    json.Number `json:"high"`
	NHighPx json.Number `json:"nHighPx"`
	Low     json.Number `json:"low"`
	NLowPx  json.Number `json:"nLowPx"`
	Close   json.Number `json:"close"`
	NLastPx json.Number `json:"nLastPx"`
	Volume  json.Number `json:"volume"`
	LVolume json.Number `json:"llVolume"`
	Amount  json.Number `json:"amount"`
	LValue  json.Number `json:"llValue"`
}

// rawResponse K 线接口响应，kline 数组可能出现在不同层级
type rawResponse struct {
	Value json.RawMessage `json:"value"`
	Kline []rawBar        `json:"kline"`
	Data  struct {
		Kline []rawBar `json:"kline"`
	} `json:"data"`
}

// pickNumber 按字段优先级取第一个非零值
func pickNumber(primary, fallback json.Number) float64 {
	if v, err := primary.Float64(); err == nil && v != 0 {
		return v
	}
	v, _ := fallback.Float64()
	return v
}

// normalizePrice 归一化价格
// 接口有时返回放大 10000 倍的整数价格，超过 100000 时还原
func normalizePrice(v float64) float64 {
	if v > 100000 {
		return v / 10000
	}
	return v
}

// parseResponse 解析接口响应为 K 线列表
func parseResponse(body []byte, code, name string) ([]Bar, error) {
	var resp rawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &crawler.Error{Op: "jrj.parse", Err: err, Transient: false}
	}

	// 部分网关会把真实响应装进 value 字段的 JSON 字符串里
	if len(resp.Value) > 0 {
		var inner string
		if err := json.Unmarshal(resp.Value, &inner); err == nil && inner != "" {
			if err := json.Unmarshal([]byte(inner), &resp); err != nil {
				return nil, &crawler.Error{Op: "jrj.parse", Err: err, Transient: false}
			}
		}
	}

	kline := resp.Kline
	if len(kline) == 0 {
		kline = resp.Data.Kline
	}
	if len(kline) == 0 {
		return nil, &crawler.Error{Op: "jrj.parse", Err: fmt.Errorf("响应中没有 kline 数据"), Transient: false}
	}

	bars := make([]Bar, 0, len(kline))
	for _, item := range kline {
		bars = append(bars, Bar{
			Code:   code,
			Name:   name,
			Time:   int64(pickNumber(item.Time, item.NTime)),
			Open:   normalizePrice(pickNumber(item.Open, item.NOpenPx)),
			High:   normalizePrice(pickNumber(item.High, item.NHighPx)),
			Low:    normalizePrice(pickNumber(item.Low, item.NLowPx)),
			Close:  normalizePrice(pickNumber(item.Close, item.NLastPx)),
			Volume: int64(pickNumber(item.Volume, item.LVolume)),
			Amount: pickNumber(item.Amount, item.LValue),
		})
	}
	return bars, nil
}

// Crawl 爬取股票历史行情
// date 为空时取今天，rangeNum 为向前取的条数
func (c *Crawler) Crawl(ctx context.Context, code, name string, klineType KlineType, date string, rangeNum int) ([]Bar, error) {
	if date == "" {
		date = time.Now().Format("20060102")
	}
	url := buildURL(code, klineType, date, rangeNum)
	log.Info("开始爬取: %s-%s, 类型: %s, 日期: %s", code, name, klineType, date)
	log.Debug("请求 URL: %s", url)
	return c.crawlURL(ctx, url, code, name)
}

// crawlURL 对指定 URL 执行带重试的抓取与解析
func (c *Crawler) crawlURL(ctx context.Context, url, code, name string) ([]Bar, error) {
	bars, err := crawler.Retry(ctx, c.policy, "jrj", func() ([]Bar, error) {
		body, err := c.client.Get(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return parseResponse(body, code, name)
	})
	if err != nil {
		log.WithError(err).Error("爬取失败: %s-%s", code, name)
		return nil, err
	}
	log.Info("爬取成功！获取到 %d 条数据", len(bars))
	return bars, nil
}

// 均线周期
var maPeriods = []int{5, 10, 20, 30, 60, 120}

// Summarize 根据日线行情生成文字版走势分析
// 统计最近 7/30 个交易日的红绿柱比例以及最新一日的均线指标
func Summarize(bars []Bar) (string, error) {
	if len(bars) == 0 {
		return "", fmt.Errorf("没有行情数据")
	}

	// 按时间从旧到新排序
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
	}

	// 各周期均线的最新值，数据不足时为 N/A
	maStrs := make(map[int]string, len(maPeriods))
	for _, period := range maPeriods {
		if len(closes) < period {
			maStrs[period] = "N/A"
			continue
		}
		ma := talib.Ma(closes, period, talib.SMA)
		maStrs[period] = fmt.Sprintf("%.2f", ma[len(ma)-1])
	}

	// 红柱：收盘价 > 开盘价
	isRed := func(b Bar) bool { return b.Close > b.Open }
	countRed := func(window int) int {
		start := len(sorted) - window
		if start < 0 {
			start = 0
		}
		n := 0
		for _, b := range sorted[start:] {
			if isRed(b) {
				n++
			}
		}
		return n
	}
	redCount7 := countRed(7)
	redCount30 := countRed(30)
	redRatio7 := float64(redCount7) / 7 * 100
	redRatio30 := float64(redCount30) / 30 * 100

	latest := sorted[len(sorted)-1]
	trend := "绿柱(下跌)"
	if isRed(latest) {
		trend = "红柱(上涨)"
	}

	var sb strings.Builder
	sb.WriteString("## 股票行情数据分析\n\n")
	sb.WriteString("**短期走势强度分析：**\n")
	fmt.Fprintf(&sb, "- 最近7个交易日：红柱%d根，占比%.2f%%\n", redCount7, redRatio7)
	fmt.Fprintf(&sb, "- 最近30个交易日：红柱%d根，占比%.2f%%\n\n", redCount30, redRatio30)
	sb.WriteString("**今日技术指标：**\n")
	fmt.Fprintf(&sb, "- 日期：%d\n", latest.Time)
	fmt.Fprintf(&sb, "- 开盘：%.2f\n", latest.Open)
	fmt.Fprintf(&sb, "- 收盘：%.2f\n", latest.Close)
	fmt.Fprintf(&sb, "- 最高：%.2f\n", latest.High)
	fmt.Fprintf(&sb, "- 最低：%.2f\n", latest.Low)
	fmt.Fprintf(&sb, "- 涨跌：%s\n", trend)
	for _, period := range maPeriods {
		fmt.Fprintf(&sb, "- MA%d：%s\n", period, maStrs[period])
	}
	return sb.String(), nil
}
