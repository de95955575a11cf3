package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jiangwlee/smartrade-adk/internal/adk"
	"github.com/Jiangwlee/smartrade-adk/internal/adk/mcp"
	"github.com/Jiangwlee/smartrade-adk/internal/adk/tools"
	"github.com/Jiangwlee/smartrade-adk/internal/agui"
	"github.com/Jiangwlee/smartrade-adk/internal/chart"
	"github.com/Jiangwlee/smartrade-adk/internal/config"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler/jrj"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler/taoguba"
	"github.com/Jiangwlee/smartrade-adk/internal/crawler/ths"
	"github.com/Jiangwlee/smartrade-adk/internal/logger"
	"github.com/Jiangwlee/smartrade-adk/internal/pkg/paths"
	"github.com/Jiangwlee/smartrade-adk/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("加载配置失败: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		os.Stderr.WriteString("初始化日志失败: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.New("Main")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("服务退出")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := crawler.RetryPolicy{
		MaxAttempts:  cfg.Crawler.MaxAttempts,
		InitialDelay: cfg.Crawler.InitialDelay,
		Backoff:      cfg.Crawler.Backoff,
	}

	cache, err := crawler.NewFileCache(paths.EnsureCacheDir("crawler"), cfg.Crawler.CacheTTL)
	if err != nil {
		return err
	}

	var renderer chart.Renderer
	if cfg.Chart.RendererURL != "" {
		renderer = chart.NewHTTPRenderer(cfg.Chart.RendererURL, cfg.Chart.Timeout)
	} else {
		log.Warn("未配置 CHART_RENDERER_URL，K线图生成不可用")
	}

	registry, err := tools.NewRegistry(tools.Deps{
		JrjCrawler: jrj.New(cfg.Crawler.Timeout, policy),
		TgbCrawler: taoguba.New(cfg.Crawler.Timeout, policy),
		ThsCrawler: ths.New(cfg.Crawler.Timeout, policy),
		Renderer:   renderer,
		Cache:      cache,
		Search:     cfg.Search,
	})
	if err != nil {
		return err
	}

	mcpMgr := mcp.NewManager(cfg.ImageMCP)
	factory := adk.NewModelFactory()
	builder := adk.NewAgentBuilder(factory, registry, mcpMgr, cfg.AI)

	agents, err := builder.BuildAll(ctx)
	if err != nil {
		return err
	}

	engines := make(map[string]server.Engine, len(agents))
	for name, ag := range agents {
		executor, err := adk.NewRunnerExecutor(cfg.App.Name, ag)
		if err != nil {
			return err
		}
		engines[name] = agui.NewEngine(executor, agui.NewThreadStore(), cfg.App.Name)
	}
	log.Info("已注册 %d 个 agent", len(engines))

	srv := server.New(cfg.Server, engines)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("收到退出信号，开始优雅关闭")
		return srv.Shutdown(context.Background())
	}
}
