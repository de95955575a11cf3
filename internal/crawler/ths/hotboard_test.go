package ths

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jiangwlee/smartrade-adk/internal/crawler"
)

// TestCandidateDates 测试候选日期生成
func TestCandidateDates(t *testing.T) {
	t.Run("按时间倒序", func(t *testing.T) {
		dates, err := candidateDates("20251030", 5)
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		want := []string{"20251030", "20251029", "20251028", "20251027", "20251026"}
		for i, d := range want {
			if dates[i] != d {
				t.Errorf("第%d个日期: 期望 %s, 实际 %s", i, d, dates[i])
			}
		}
	})

	t.Run("跨月", func(t *testing.T) {
		dates, err := candidateDates("20250302", 4)
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		if dates[2] != "20250228" || dates[3] != "20250227" {
			t.Errorf("跨月日期错误: %v", dates)
		}
	})

	t.Run("非法日期", func(t *testing.T) {
		if _, err := candidateDates("2025-10-30", 5); err == nil {
			t.Error("非法日期应报错")
		}
	})
}

// TestBuildURL 测试接口 URL 构造
func TestBuildURL(t *testing.T) {
	url := buildURL(defaultContinuousURL, "20251030")
	want := "https://data.10jqka.com.cn/dataapi/limit_up/continuous_limit_up?filter=HS,GEM2STAR&date=20251030"
	if url != want {
		t.Errorf("URL 不一致:\n实际: %s\n期望: %s", url, want)
	}
}

// continuousJSON 连板天梯接口响应样例
const continuousJSON = `{
	"status_code": 0,
	"data": [
		{"height": 4, "number": 1, "code_list": [{"code": "002131", "name": "利欧股份", "continue_num": 4}]},
		{"height": 2, "number": 2, "code_list": [
			{"code": "600610", "name": "中毅达", "continue_num": 2},
			{"code": "000909", "name": "中国高科", "continue_num": 2}
		]}
	]
}`

// blockJSON 最强板块接口响应样例
const blockJSON = `{
	"status_code": 0,
	"data": [
		{
			"code": "881157", "name": "互联网电商", "change": 3.21,
			"limit_up_num": 5, "continuous_plate_num": 2, "high": "4连板", "days": 3,
			"stock_list": [
				{"code": "002131", "name": "利欧股份", "change_rate": 10.02, "continue_num": 4,
				 "high": "4连板", "latest": 3.52, "reason_type": "电商+AI营销", "reason_info": "公司主营数字营销业务"}
			]
		}
	]
}`

// newTestServer 构造模拟接口，validDates 中的日期返回有效数据
func newTestServer(validDates map[string]bool) *httptest.Server {
	mux := http.NewServeMux()
	handler := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			date := r.URL.Query().Get("date")
			if validDates[date] {
				fmt.Fprint(w, body)
			} else {
				fmt.Fprint(w, `{"status_code": 1, "data": null}`)
			}
		}
	}
	mux.HandleFunc("/continuous", handler(continuousJSON))
	mux.HandleFunc("/block", handler(blockJSON))
	return httptest.NewServer(mux)
}

func newTestCrawler(srv *httptest.Server) *Crawler {
	c := New(5*time.Second, crawler.RetryPolicy{MaxAttempts: 2, InitialDelay: 10 * time.Millisecond, Backoff: 2.0})
	c.continuousURL = srv.URL + "/continuous"
	c.blockURL = srv.URL + "/block"
	return c
}

// TestFetchSingleDate 测试单日数据抓取与转换
func TestFetchSingleDate(t *testing.T) {
	t.Run("有效交易日", func(t *testing.T) {
		srv := newTestServer(map[string]bool{"20251030": true})
		defer srv.Close()

		data, ok := newTestCrawler(srv).fetchSingleDate(context.Background(), "20251030")
		if !ok {
			t.Fatal("期望有效交易日")
		}
		if len(data.Ladder) != 2 {
			t.Fatalf("期望2个天梯层级，实际 %d", len(data.Ladder))
		}
		if data.Ladder[0].Height != 4 || data.Ladder[0].Count != 1 {
			t.Errorf("天梯层级解析错误: %+v", data.Ladder[0])
		}
		if data.Ladder[0].Stocks[0].Name != "利欧股份" {
			t.Errorf("天梯个股解析错误: %+v", data.Ladder[0].Stocks)
		}
		if len(data.TopBlocks) != 1 {
			t.Fatalf("期望1个板块，实际 %d", len(data.TopBlocks))
		}
		b := data.TopBlocks[0]
		if b.Name != "互联网电商" || b.LimitUpCount != 5 || b.HighDesc != "4连板" {
			t.Errorf("板块解析错误: %+v", b)
		}
		if b.Stocks[0].ReasonInfo != "公司主营数字营销业务" {
			t.Errorf("涨停原因解析错误: %+v", b.Stocks[0])
		}
	})

	t.Run("非交易日", func(t *testing.T) {
		srv := newTestServer(map[string]bool{})
		defer srv.Close()

		if _, ok := newTestCrawler(srv).fetchSingleDate(context.Background(), "20251026"); ok {
			t.Error("两个接口均无数据时应判定为非交易日")
		}
	})

	t.Run("单接口有数据仍为有效交易日", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/continuous", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, continuousJSON)
		})
		mux.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status_code": 1, "data": null}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		data, ok := newTestCrawler(srv).fetchSingleDate(context.Background(), "20251030")
		if !ok {
			t.Fatal("任一接口有数据即为有效交易日")
		}
		if len(data.Ladder) != 2 || len(data.TopBlocks) != 0 {
			t.Errorf("数据解析错误: ladder=%d blocks=%d", len(data.Ladder), len(data.TopBlocks))
		}
	})
}

// TestRenderMarkdown 测试 Markdown 报告生成
func TestRenderMarkdown(t *testing.T) {
	data := HotBoardData{
		Date: "20251030",
		Ladder: []LadderLevel{
			{Height: 4, Count: 1, Stocks: []LadderStock{{Code: "002131", Name: "利欧股份", ContinueNum: 4}}},
			{Height: 2, Count: 2, Stocks: []LadderStock{
				{Code: "600610", Name: "中毅达", ContinueNum: 2},
				{Code: "000909", Name: "中国高科", ContinueNum: 2},
			}},
		},
		TopBlocks: []Block{
			{
				Code: "881157", Name: "互联网电商", Change: 3.21,
				LimitUpCount: 5, ContinuousPlateCount: 2, HighDesc: "4连板", ActiveDays: 3,
				Stocks: []BlockStock{
					{Code: "002131", Name: "利欧股份", ChangeRate: 10.02, High: "4连板",
						ReasonType: "电商+AI营销", ReasonInfo: "公司主营数字营销业务"},
				},
			},
		},
	}

	md := renderMarkdown(data, 5)
	t.Logf("报告:\n%s", md)

	checks := []string{
		"# 同花顺热门板块 - 2025年10月30日",
		"## 一、连板天梯",
		"| 高度 | 数量 | 股票列表 |",
		"| 4连板 | 1 | 利欧股份(002131) |",
		"| 2连板 | 2 | 中毅达(600610), 中国高科(000909) |",
		"**连板天梯总结**: 最高4连板(利欧股份), 共2个层级, 3只连板股",
		"## 二、最强板块 Top 5",
		"### 1. 互联网电商 (881157)",
		"- **涨停数**: 5只 | **连板数**: 2只 | **板块涨跌**: +3.21%",
		"- **最高连板**: 4连板 | **活跃天数**: 3天",
		"**利欧股份(002131)**: +10.02%, 4连板",
		"- 原因标签: 电商+AI营销",
		"- 详细原因: 公司主营数字营销业务",
	}
	for _, want := range checks {
		if !strings.Contains(md, want) {
			t.Errorf("报告缺少: %s", want)
		}
	}
}

// TestCrawl 测试完整聚合流程
func TestCrawl(t *testing.T) {
	t.Run("选取最近交易日", func(t *testing.T) {
		// 20251030 往前，只有 29 日和 27 日是交易日
		srv := newTestServer(map[string]bool{"20251029": true, "20251027": true})
		defer srv.Close()

		report, err := newTestCrawler(srv).Crawl(context.Background(), "20251030", 2, 5)
		if err != nil {
			t.Fatalf("爬取失败: %v", err)
		}

		parts := strings.Split(report, "\n\n---\n\n")
		if len(parts) != 2 {
			t.Fatalf("期望2天数据，实际 %d 段", len(parts))
		}
		// 按日期倒序
		if !strings.Contains(parts[0], "2025年10月29日") {
			t.Error("第一段应为最近的交易日")
		}
		if !strings.Contains(parts[1], "2025年10月27日") {
			t.Error("第二段应为次近的交易日")
		}
	})

	t.Run("delta钳制", func(t *testing.T) {
		srv := newTestServer(map[string]bool{"20251029": true})
		defer srv.Close()

		// delta 超出范围时不应报错，有多少取多少
		report, err := newTestCrawler(srv).Crawl(context.Background(), "20251030", 99, 5)
		if err != nil {
			t.Fatalf("爬取失败: %v", err)
		}
		if strings.Count(report, "# 同花顺热门板块") != 1 {
			t.Error("只有1个交易日时应返回1段报告")
		}
	})

	t.Run("无有效交易日报错", func(t *testing.T) {
		srv := newTestServer(map[string]bool{})
		defer srv.Close()

		_, err := newTestCrawler(srv).Crawl(context.Background(), "20251030", 1, 5)
		if err == nil {
			t.Fatal("期望失败")
		}
		if crawler.IsTransient(err) {
			t.Error("无数据属于永久错误")
		}
	})
}
