package adk

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jiangwlee/smartrade-adk/internal/adk/openai"
	"github.com/Jiangwlee/smartrade-adk/internal/config"

	go_openai "github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// 支持的模型提供方
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ModelFactory 模型工厂，根据配置创建对应的 adk model。
// 相同配置只创建一次，后续复用缓存实例。
type ModelFactory struct {
	mu    sync.RWMutex
	cache map[string]model.LLM
}

// NewModelFactory 创建模型工厂
func NewModelFactory() *ModelFactory {
	return &ModelFactory{
		cache: make(map[string]model.LLM),
	}
}

// CreateModel 根据 AI 配置创建对应的模型
func (f *ModelFactory) CreateModel(ctx context.Context, mc config.ModelConfig) (model.LLM, error) {
	key := cacheKey(mc)

	f.mu.RLock()
	if m, ok := f.cache[key]; ok {
		f.mu.RUnlock()
		return m, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.cache[key]; ok {
		return m, nil
	}

	var (
		m   model.LLM
		err error
	)
	switch mc.Provider {
	case ProviderGemini:
		m, err = f.createGeminiModel(ctx, mc)
	case ProviderOpenAI, "":
		m, err = f.createOpenAIModel(mc)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", mc.Provider)
	}
	if err != nil {
		return nil, err
	}

	f.cache[key] = m
	return m, nil
}

// createGeminiModel 创建 Gemini 模型
func (f *ModelFactory) createGeminiModel(ctx context.Context, mc config.ModelConfig) (model.LLM, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  mc.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	return gemini.NewModel(ctx, mc.ModelName, clientConfig)
}

// createOpenAIModel 创建 OpenAI 兼容模型
func (f *ModelFactory) createOpenAIModel(mc config.ModelConfig) (model.LLM, error) {
	openaiCfg := go_openai.DefaultConfig(mc.APIKey)

	if mc.BaseURL != "" {
		openaiCfg.BaseURL = mc.BaseURL
	}

	return openai.NewOpenAIModel(mc.ModelName, openaiCfg, mc.NoSystemRole), nil
}

func cacheKey(mc config.ModelConfig) string {
	return mc.Provider + "/" + mc.ModelName + "@" + mc.BaseURL
}
