package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

var log = logger.New("OpenAI")

var _ model.LLM = &OpenAIModel{}

var ErrNoChoicesInResponse = errors.New("no choices in OpenAI response")

// OpenAIModel 实现 model.LLM 接口，兼容 OpenAI 协议的各家模型服务
// 支持 thinking 模型的 reasoning_content 通道
type OpenAIModel struct {
	Client       *openai.Client
	ModelName    string
	NoSystemRole bool // 不支持 system role，需降级处理
}

// NewOpenAIModel 创建 OpenAI 兼容模型
func NewOpenAIModel(modelName string, cfg openai.ClientConfig, noSystemRole bool) *OpenAIModel {
	return &OpenAIModel{
		Client:       openai.NewClientWithConfig(cfg),
		ModelName:    modelName,
		NoSystemRole: noSystemRole,
	}
}

// Name 返回模型名称
func (o *OpenAIModel) Name() string {
	return o.ModelName
}

// GenerateContent 实现 model.LLM 接口
func (o *OpenAIModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	if stream {
		return o.generateStream(ctx, req)
	}
	return o.generate(ctx, req)
}

// generate 非流式生成
func (o *OpenAIModel) generate(ctx context.Context, req *model.LLMRequest) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		openaiReq, err := toOpenAIChatCompletionRequest(req, o.ModelName, o.NoSystemRole)
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := o.Client.CreateChatCompletion(ctx, openaiReq)
		if err != nil {
			yield(nil, err)
			return
		}

		llmResp, err := convertChatCompletionResponse(&resp)
		if err != nil {
			yield(nil, err)
			return
		}

		yield(llmResp, nil)
	}
}

// generateStream 流式生成
// 增量块实时透传为 Partial 响应，流结束后再发送一条聚合的完整响应
func (o *OpenAIModel) generateStream(ctx context.Context, req *model.LLMRequest) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		openaiReq, err := toOpenAIChatCompletionRequest(req, o.ModelName, o.NoSystemRole)
		if err != nil {
			yield(nil, err)
			return
		}
		openaiReq.Stream = true

		stream, err := o.Client.CreateChatCompletionStream(ctx, openaiReq)
		if err != nil {
			yield(nil, err)
			return
		}
		defer stream.Close()

		acc := newStreamAccumulator()
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				log.WithError(err).Warn("流式读取中断")
				yield(nil, fmt.Errorf("流式读取错误: %w", err))
				return
			}

			for _, partial := range acc.absorb(&chunk) {
				if !yield(partial, nil) {
					return
				}
			}
		}

		yield(acc.final(), nil)
	}
}

// streamAccumulator 聚合流式响应的增量块
// 文本与 reasoning 增量即时转为 Partial 响应，工具调用按索引拼装参数，
// 最终响应中 thought 部分在前、文本与工具调用在后
type streamAccumulator struct {
	text         string
	reasoning    string
	toolCalls    map[int]*toolCallBuilder
	finishReason genai.FinishReason
	usage        *genai.GenerateContentResponseUsageMetadata
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{toolCalls: make(map[int]*toolCallBuilder)}
}

// absorb 吸收一个增量块，返回需要即时透传的 Partial 响应
func (a *streamAccumulator) absorb(chunk *openai.ChatCompletionStreamResponse) []*model.LLMResponse {
	if chunk.Usage != nil {
		a.usage = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(chunk.Usage.PromptTokens),
			CandidatesTokenCount: int32(chunk.Usage.CompletionTokens),
			TotalTokenCount:      int32(chunk.Usage.TotalTokens),
		}
	}
	if len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]

	var partials []*model.LLMResponse

	// thinking 模型的推理增量
	if choice.Delta.ReasoningContent != "" {
		a.reasoning += choice.Delta.ReasoningContent
		partials = append(partials, partialResponse(&genai.Part{Text: choice.Delta.ReasoningContent, Thought: true}))
	}

	if choice.Delta.Content != "" {
		a.text += choice.Delta.Content
		partials = append(partials, partialResponse(&genai.Part{Text: choice.Delta.Content}))
	}

	for _, tc := range choice.Delta.ToolCalls {
		idx := 0
		if tc.Index != nil {
			idx = *tc.Index
		}
		builder, ok := a.toolCalls[idx]
		if !ok {
			builder = &toolCallBuilder{}
			a.toolCalls[idx] = builder
		}
		if tc.ID != "" {
			builder.id = tc.ID
		}
		if tc.Function.Name != "" {
			builder.name = tc.Function.Name
		}
		builder.args += tc.Function.Arguments
	}

	if choice.FinishReason != "" {
		a.finishReason = convertFinishReason(string(choice.FinishReason))
	}
	return partials
}

// final 生成流结束后的聚合响应
// 文本中的第三方工具调用标记解析为 FunctionCall
func (a *streamAccumulator) final() *model.LLMResponse {
	content := &genai.Content{Role: "model", Parts: []*genai.Part{}}

	if a.reasoning != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: a.reasoning, Thought: true})
	}

	if a.text != "" {
		vendorCalls, cleanedText := parseVendorToolCalls(a.text)
		if cleanedText != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: cleanedText})
		}
		for i, vc := range vendorCalls {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   fmt.Sprintf("vendor_call_%d", i),
					Name: vc.Name,
					Args: vc.Args,
				},
			})
		}
	}

	for _, idx := range sortedKeys(a.toolCalls) {
		builder := a.toolCalls[idx]
		content.Parts = append(content.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   builder.id,
				Name: builder.name,
				Args: parseJSONArgs(builder.args),
			},
		})
	}

	return &model.LLMResponse{
		Content:       content,
		UsageMetadata: a.usage,
		FinishReason:  a.finishReason,
		Partial:       false,
		TurnComplete:  true,
	}
}

// partialResponse 包装单个增量部分为 Partial 响应
func partialResponse(part *genai.Part) *model.LLMResponse {
	return &model.LLMResponse{
		Content:      &genai.Content{Role: "model", Parts: []*genai.Part{part}},
		Partial:      true,
		TurnComplete: false,
	}
}

// toolCallBuilder 按流式增量拼装单个工具调用
type toolCallBuilder struct {
	id   string
	name string
	args string
}

func sortedKeys(m map[int]*toolCallBuilder) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
