package taoguba

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jiangwlee/smartrade-adk/internal/crawler"
	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

// 日志实例
var log = logger.New("Taoguba")

// 默认列表页与站点根地址
const (
	DefaultListURL  = "https://www.tgb.cn/jinghua/1-1"
	defaultSiteRoot = "https://www.tgb.cn"
)

// 正文最大长度（字符数）
const maxContentLen = 5000

// Post 淘股吧帖子
type Post struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	PublishDate string `json:"publish_date"` // 格式: MM-DD HH:MM
	ReplyCount  int    `json:"reply_count"`
	ViewCount   int    `json:"view_count"`
	URL         string `json:"url"`
}

// Crawler 淘股吧精华帖爬虫
// 先抓列表页筛选当日热帖，再并发抓取各帖详情页正文
type Crawler struct {
	client   *crawler.Client
	policy   crawler.RetryPolicy
	listURL  string
	siteRoot string
}

// New 创建淘股吧爬虫
func New(timeout time.Duration, policy crawler.RetryPolicy) *Crawler {
	client := crawler.NewClient(timeout, map[string]string{
		"Referer": defaultSiteRoot + "/",
	})
	return &Crawler{
		client:   client,
		policy:   policy,
		listURL:  DefaultListURL,
		siteRoot: defaultSiteRoot,
	}
}

var (
	replyRe = regexp.MustCompile(`\((\d+)\)`)
	viewRe  = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
	dateRe  = regexp.MustCompile(`(\d{2}-\d{2}\s+\d{2}:\d{2})`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// cleanTitle 清理标题中的标记
func cleanTitle(title string) string {
	for _, tag := range []string{"[精]", "[红包]", "[投票]"} {
		title = strings.ReplaceAll(title, tag, "")
	}
	return strings.TrimSpace(title)
}

// parseListPage 解析列表页，提取帖子基本信息
func parseListPage(doc *goquery.Document) []Post {
	var posts []Post
	doc.Find("div.Nbbs-tiezi-lists").Each(func(_ int, s *goquery.Selection) {
		titleLink := s.Find("a.overhide.mw300").First()
		if titleLink.Length() == 0 {
			return
		}
		title := cleanTitle(strings.TrimSpace(titleLink.Text()))
		href, _ := titleLink.Attr("href")
		if title == "" || href == "" {
			return
		}

		post := Post{Title: title, URL: href}

		// 评论数，格式: (数字)
		s.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
			if m := replyRe.FindStringSubmatch(span.Text()); m != nil {
				post.ReplyCount, _ = strconv.Atoi(m[1])
				return false
			}
			return true
		})

		// 浏览数，格式: 评论 / 浏览
		if m := viewRe.FindStringSubmatch(s.Find("div.left.middle-list-talk").Text()); m != nil {
			post.ViewCount, _ = strconv.Atoi(m[2])
		}

		// 发帖时间，格式: MM-DD HH:MM
		dateText := strings.TrimSpace(s.Find("div.left.middle-list-post").Text())
		if m := dateRe.FindStringSubmatch(dateText); m != nil {
			post.PublishDate = m[1]
		} else {
			post.PublishDate = dateText
		}

		post.Author = strings.TrimSpace(s.Find("a.mw100.overhide").First().Text())
		posts = append(posts, post)
	})
	log.Info("解析列表页成功，找到%d个帖子", len(posts))
	return posts
}

// filterLatest 只保留最新日期且下午收盘前后（14:00 之后）发布的帖子
// 过滤后不足 10 个时退回取列表前 10 个
func filterLatest(posts []Post) []Post {
	maxDate := ""
	for _, p := range posts {
		if p.PublishDate == "" {
			continue
		}
		date := strings.SplitN(p.PublishDate, " ", 2)[0]
		if date >= maxDate {
			maxDate = date
		}
	}
	if maxDate == "" {
		log.Warn("无法识别发帖日期，使用全部帖子")
		return posts
	}

	var filtered []Post
	for _, p := range posts {
		parts := strings.SplitN(p.PublishDate, " ", 2)
		if len(parts) != 2 {
			continue
		}
		if parts[0] == maxDate && parts[1] >= "14:00" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) < 10 {
		n := 10
		if len(posts) < n {
			n = len(posts)
		}
		filtered = posts[:n]
	}
	log.Info("过滤后：共 %d 个当日发布的帖子（日期: %s）", len(filtered), maxDate)
	return filtered
}

// 详情页正文容器的 class 匹配
var (
	articleClassRe = regexp.MustCompile(`article-content|article_content`)
	contentClassRe = regexp.MustCompile(`content`)
)

// parseDetailPage 解析详情页正文
// 依次尝试多个容器，取到超过 100 字符的文本即认为命中
func parseDetailPage(doc *goquery.Document) string {
	doc.Find("script,style").Remove()

	selectors := []func() *goquery.Selection{
		func() *goquery.Selection { return doc.Find("div#article").First() },
		func() *goquery.Selection { return findByClassRe(doc, "div", articleClassRe) },
		func() *goquery.Selection { return findByClassRe(doc, "div", contentClassRe) },
		func() *goquery.Selection { return doc.Find("article").First() },
	}

	content := ""
	for _, sel := range selectors {
		elem := sel()
		if elem == nil || elem.Length() == 0 {
			continue
		}
		text := collapseSpace(elem.Text())
		if len([]rune(text)) > 100 {
			content = text
			break
		}
	}

	// 兜底：取整个 body 的文本
	if content == "" {
		content = collapseSpace(doc.Find("body").Text())
	}

	if runes := []rune(content); len(runes) > maxContentLen {
		content = string(runes[:maxContentLen])
	}
	log.Debug("解析详情页成功，提取正文%d个字符", len([]rune(content)))
	return content
}

// findByClassRe 查找 class 属性匹配正则的第一个元素
func findByClassRe(doc *goquery.Document, tag string, re *regexp.Regexp) *goquery.Selection {
	return doc.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return re.MatchString(class)
	}).First()
}

// collapseSpace 折叠连续空白
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// detailURL 构造详情页完整 URL
func (c *Crawler) detailURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.siteRoot + href
}

// fetchDocument 带重试抓取页面并解析为文档
func (c *Crawler) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	return crawler.Retry(ctx, c.policy, "taoguba", func() (*goquery.Document, error) {
		return c.client.GetDocument(ctx, url)
	})
}

// Crawl 爬取淘股吧精华帖
// 详情页抓取失败的帖子保留列表信息，正文置空
func (c *Crawler) Crawl(ctx context.Context) ([]Post, error) {
	log.Info("开始爬取淘股吧精华帖，列表页: %s", c.listURL)

	listDoc, err := c.fetchDocument(ctx, c.listURL)
	if err != nil {
		log.WithError(err).Error("列表页抓取失败")
		return nil, err
	}

	posts := parseListPage(listDoc)
	if len(posts) == 0 {
		log.Warn("列表页中没有找到帖子")
		return nil, nil
	}

	filtered := filterLatest(posts)

	// 并发抓取详情页，结果按请求顺序排列
	var wg sync.WaitGroup
	results := make([]Post, len(filtered))
	for i, p := range filtered {
		wg.Add(1)
		go func(idx int, post Post) {
			defer wg.Done()
			post.URL = c.detailURL(post.URL)
			doc, err := c.fetchDocument(ctx, post.URL)
			if err != nil {
				log.Warn("获取详情页失败 %s: %v", post.URL, err)
			} else {
				post.Content = parseDetailPage(doc)
			}
			results[idx] = post
		}(i, p)
	}
	wg.Wait()

	failed := 0
	for _, p := range results {
		if p.Content == "" {
			failed++
		}
	}
	log.Info("爬虫完成！成功获取 %d 个帖子（正文缺失 %d 个）", len(results), failed)
	return results, nil
}

// Digest 把帖子列表整理为 Markdown 摘要
func Digest(posts []Post) string {
	if len(posts) == 0 {
		return ""
	}
	sections := make([]string, 0, len(posts))
	for _, p := range posts {
		sections = append(sections, "## "+p.Title+" - 作者："+p.Author+"\n\n"+p.Content)
	}
	return "# 淘股吧热帖\n\n" + strings.Join(sections, "\n\n---\n\n")
}
