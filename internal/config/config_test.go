package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.App.Name != "smartrade" {
		t.Errorf("默认应用名不符: %s", cfg.App.Name)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("默认监听地址不符: %s", cfg.Server.Addr)
	}
	if cfg.Crawler.MaxAttempts != 3 || cfg.Crawler.InitialDelay != time.Second {
		t.Errorf("爬虫默认重试配置不符: %+v", cfg.Crawler)
	}
	if cfg.AI.Default.Provider != "openai" {
		t.Errorf("默认模型提供方不符: %s", cfg.AI.Default.Provider)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AI_DEFAULT_MODEL_NAME", "deepseek-chat")
	t.Setenv("AI_COORDINATOR_MODEL_NAME", "glm-4")
	t.Setenv("AI_COORDINATOR_PROVIDER", "openai")
	t.Setenv("CRAWLER_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.AI.Default.ModelName != "deepseek-chat" {
		t.Errorf("默认模型名不符: %s", cfg.AI.Default.ModelName)
	}
	if cfg.AI.Coordinator.ModelName != "glm-4" {
		t.Errorf("协调者模型名不符: %s", cfg.AI.Coordinator.ModelName)
	}
	if cfg.Crawler.Timeout != 30*time.Second {
		t.Errorf("爬虫超时不符: %s", cfg.Crawler.Timeout)
	}
}

func TestAIConfigResolve(t *testing.T) {
	ai := AIConfig{
		Default:     ModelConfig{Provider: "openai", ModelName: "deepseek-chat"},
		Coordinator: ModelConfig{Provider: "gemini", ModelName: "gemini-2.0-flash"},
	}

	if got := ai.Resolve(ai.Coordinator); got.ModelName != "gemini-2.0-flash" {
		t.Errorf("已配置的模型不应回退: %+v", got)
	}
	if got := ai.Resolve(ai.MarketAnalyst); got.ModelName != "deepseek-chat" {
		t.Errorf("未配置的模型应回退到默认: %+v", got)
	}
}
