package chart

import (
	"fmt"
	"sort"

	"github.com/markcheno/go-talib"

	"github.com/Jiangwlee/smartrade-adk/internal/crawler/jrj"
)

// 指标参数
var MAWindows = []int{5, 10, 20, 30, 60, 120, 240}

const (
	BBWindow   = 20
	BBDev      = 2.0
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// Series K 线图渲染所需的完整数据序列
// 日期升序排列，各指标数组与日期一一对应
type Series struct {
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Dates []string `json:"dates"` // YYYY-MM-DD

	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []int64   `json:"volume"`

	MA map[int][]float64 `json:"ma"` // 各周期均线

	BBUpper  []float64 `json:"bb_upper,omitempty"`
	BBMiddle []float64 `json:"bb_middle,omitempty"`
	BBLower  []float64 `json:"bb_lower,omitempty"`

	MACD       []float64 `json:"macd"`
	MACDSignal []float64 `json:"macd_signal"`
	MACDHist   []float64 `json:"macd_hist"`
}

// LastDate 序列的最新交易日
func (s *Series) LastDate() string {
	if len(s.Dates) == 0 {
		return ""
	}
	return s.Dates[len(s.Dates)-1]
}

// formatDate 把 20241213 格式的日期转为 2024-12-13
func formatDate(t int64) string {
	s := fmt.Sprintf("%d", t)
	if len(s) != 8 {
		return s
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:8]
}

// Prepare 根据日线行情计算 K 线图所需的全部指标
// 均线只计算数据量足够的周期，布林带在不足 20 根时省略
func Prepare(bars []jrj.Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("行情数据不能为空")
	}

	sorted := make([]jrj.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	n := len(sorted)
	s := &Series{
		Code:   sorted[0].Code,
		Name:   sorted[0].Name,
		Dates:  make([]string, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]int64, n),
		MA:     make(map[int][]float64),
	}
	for i, b := range sorted {
		s.Dates[i] = formatDate(b.Time)
		s.Open[i] = b.Open
		s.High[i] = b.High
		s.Low[i] = b.Low
		s.Close[i] = b.Close
		s.Volume[i] = b.Volume
	}
	s.Title = fmt.Sprintf("%s(%s) 日K %s", s.Name, s.Code, s.LastDate())

	for _, window := range MAWindows {
		if n >= window {
			s.MA[window] = talib.Ma(s.Close, window, talib.SMA)
		}
	}

	if n >= BBWindow {
		s.BBUpper, s.BBMiddle, s.BBLower = talib.BBands(s.Close, BBWindow, BBDev, BBDev, talib.SMA)
	}

	if n >= MACDSlow {
		s.MACD, s.MACDSignal, s.MACDHist = talib.Macd(s.Close, MACDFast, MACDSlow, MACDSignal)
	}

	return s, nil
}
