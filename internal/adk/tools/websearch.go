package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	tavilyTimeout  = 15 * time.Second
)

// WebSearchInput 网络搜索输入参数
type WebSearchInput struct {
	Query string `json:"query" jsonschema:"搜索关键词"`
}

// WebSearchOutput 网络搜索输出
type WebSearchOutput struct {
	Data string `json:"data" jsonschema:"搜索结果摘要"`
}

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// createWebSearchTool 创建网络搜索工具，基于 Tavily Search API
func (r *Registry) createWebSearchTool() (tool.Tool, error) {
	httpClient := &http.Client{Timeout: tavilyTimeout}

	handler := func(ctx tool.Context, input WebSearchInput) (WebSearchOutput, error) {
		fmt.Printf("[Tool:web_search] 调用开始, query=%s\n", input.Query)

		if input.Query == "" {
			return WebSearchOutput{Data: "请提供搜索关键词"}, nil
		}
		if r.deps.Search.TavilyAPIKey == "" {
			fmt.Println("[Tool:web_search] 错误: 未配置 TAVILY_API_KEY")
			return WebSearchOutput{}, fmt.Errorf("网络搜索未配置 API Key")
		}

		maxResults := r.deps.Search.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}

		body, err := json.Marshal(tavilyRequest{Query: input.Query, MaxResults: maxResults})
		if err != nil {
			return WebSearchOutput{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
		if err != nil {
			return WebSearchOutput{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+r.deps.Search.TavilyAPIKey)

		resp, err := httpClient.Do(req)
		if err != nil {
			fmt.Printf("[Tool:web_search] 错误: %v\n", err)
			return WebSearchOutput{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			fmt.Printf("[Tool:web_search] 错误: 状态码 %d\n", resp.StatusCode)
			return WebSearchOutput{}, fmt.Errorf("搜索服务返回状态码 %d: %s", resp.StatusCode, string(data))
		}

		var result tavilyResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return WebSearchOutput{}, fmt.Errorf("解析搜索结果失败: %w", err)
		}

		fmt.Printf("[Tool:web_search] 调用完成, 返回%d条结果\n", len(result.Results))
		return WebSearchOutput{Data: formatSearchResults(result)}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        ToolWebSearch,
		Description: "联网搜索最新资讯，用于补充实时新闻与市场动态",
	}, handler)
}

// formatSearchResults 把搜索结果格式化为 Markdown
func formatSearchResults(resp tavilyResponse) string {
	if len(resp.Results) == 0 {
		return "未找到相关结果"
	}

	var b strings.Builder
	if resp.Answer != "" {
		b.WriteString(resp.Answer)
		b.WriteString("\n\n")
	}
	for _, item := range resp.Results {
		b.WriteString(fmt.Sprintf("## %s\n\n%s\n\n来源: %s\n\n", item.Title, item.Content, item.URL))
	}
	return strings.TrimSpace(b.String())
}
