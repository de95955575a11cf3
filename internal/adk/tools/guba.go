package tools

import (
	"fmt"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/Jiangwlee/smartrade-adk/internal/crawler/taoguba"
)

// 淘股吧摘要缓存键
const tgbCacheKey = "tgb_jinghua"

// TgbJinghuaInput 淘股吧精华帖输入参数
type TgbJinghuaInput struct{}

// TgbJinghuaOutput 淘股吧精华帖输出
type TgbJinghuaOutput struct {
	Data string `json:"data" jsonschema:"精华帖摘要，Markdown格式"`
}

// createTgbJinghuaTool 创建淘股吧精华帖工具
// 摘要短时间内重复请求时命中文件缓存
func (r *Registry) createTgbJinghuaTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input TgbJinghuaInput) (TgbJinghuaOutput, error) {
		fmt.Println("[Tool:get_tgb_jinghua] 调用开始")

		if r.deps.Cache != nil {
			if cached, ok := r.deps.Cache.Get(tgbCacheKey); ok {
				fmt.Println("[Tool:get_tgb_jinghua] 命中缓存")
				return TgbJinghuaOutput{Data: cached}, nil
			}
		}

		posts, err := r.deps.TgbCrawler.Crawl(ctx)
		if err != nil {
			fmt.Printf("[Tool:get_tgb_jinghua] 错误: %v\n", err)
			return TgbJinghuaOutput{}, err
		}

		digest := taoguba.Digest(posts)
		if r.deps.Cache != nil {
			if err := r.deps.Cache.Set(tgbCacheKey, digest); err != nil {
				fmt.Printf("[Tool:get_tgb_jinghua] 写缓存失败: %v\n", err)
			}
		}

		fmt.Printf("[Tool:get_tgb_jinghua] 调用完成, 共%d篇帖子\n", len(posts))
		return TgbJinghuaOutput{Data: digest}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        ToolTgbJinghua,
		Description: "获取淘股吧最新精华帖及正文摘要，用于分析市场散户情绪",
	}, handler)
}
