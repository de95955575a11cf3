package openai

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func TestToOpenAIChatCompletionRequest(t *testing.T) {
	t.Run("系统指令置于消息首位", func(t *testing.T) {
		req := &model.LLMRequest{
			Contents: []*genai.Content{
				{Role: "user", Parts: []*genai.Part{{Text: "你好"}}},
			},
			Config: &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: "你是股票分析助手"}}},
			},
		}
		out, err := toOpenAIChatCompletionRequest(req, "gpt-4o", false)
		if err != nil {
			t.Fatalf("转换失败: %v", err)
		}
		if len(out.Messages) != 2 {
			t.Fatalf("期望 2 条消息, 实际 %d", len(out.Messages))
		}
		if out.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("首条消息角色应为 system, 实际 %s", out.Messages[0].Role)
		}
		if out.Messages[0].Content != "你是股票分析助手" {
			t.Errorf("系统指令内容不符: %s", out.Messages[0].Content)
		}
	})

	t.Run("不支持system时降级为user", func(t *testing.T) {
		req := &model.LLMRequest{
			Contents: []*genai.Content{
				{Role: "user", Parts: []*genai.Part{{Text: "你好"}}},
			},
			Config: &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: "指令"}}},
			},
		}
		out, err := toOpenAIChatCompletionRequest(req, "some-model", true)
		if err != nil {
			t.Fatalf("转换失败: %v", err)
		}
		if out.Messages[0].Role != openai.ChatMessageRoleUser {
			t.Errorf("系统指令应降级为 user, 实际 %s", out.Messages[0].Role)
		}
	})

	t.Run("函数响应转为tool消息", func(t *testing.T) {
		req := &model.LLMRequest{
			Contents: []*genai.Content{
				{Role: "user", Parts: []*genai.Part{
					{FunctionResponse: &genai.FunctionResponse{
						ID:       "call_1",
						Name:     "get_stock_hangqing",
						Response: map[string]any{"result": "ok"},
					}},
				}},
			},
		}
		out, err := toOpenAIChatCompletionRequest(req, "gpt-4o", false)
		if err != nil {
			t.Fatalf("转换失败: %v", err)
		}
		if len(out.Messages) != 1 {
			t.Fatalf("期望 1 条消息, 实际 %d", len(out.Messages))
		}
		msg := out.Messages[0]
		if msg.Role != openai.ChatMessageRoleTool {
			t.Errorf("角色应为 tool, 实际 %s", msg.Role)
		}
		if msg.ToolCallID != "call_1" {
			t.Errorf("ToolCallID 不符: %s", msg.ToolCallID)
		}
	})

	t.Run("模型消息携带工具调用", func(t *testing.T) {
		req := &model.LLMRequest{
			Contents: []*genai.Content{
				{Role: "model", Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{
						ID:   "call_2",
						Name: "create_kline",
						Args: map[string]any{"code": "600519"},
					}},
				}},
			},
		}
		out, err := toOpenAIChatCompletionRequest(req, "gpt-4o", false)
		if err != nil {
			t.Fatalf("转换失败: %v", err)
		}
		msg := out.Messages[0]
		if msg.Role != openai.ChatMessageRoleAssistant {
			t.Errorf("角色应为 assistant, 实际 %s", msg.Role)
		}
		if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Function.Name != "create_kline" {
			t.Fatalf("工具调用转换不符: %+v", msg.ToolCalls)
		}
	})
}

func TestConvertChatCompletionResponse(t *testing.T) {
	t.Run("空choices报错", func(t *testing.T) {
		_, err := convertChatCompletionResponse(&openai.ChatCompletionResponse{})
		if err != ErrNoChoicesInResponse {
			t.Errorf("期望 ErrNoChoicesInResponse, 实际 %v", err)
		}
	})

	t.Run("reasoning内容转为thought", func(t *testing.T) {
		resp := &openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					ReasoningContent: "思考中",
					Content:          "结论",
				},
				FinishReason: "stop",
			}},
		}
		out, err := convertChatCompletionResponse(resp)
		if err != nil {
			t.Fatalf("转换失败: %v", err)
		}
		if len(out.Content.Parts) != 2 {
			t.Fatalf("期望 2 个 part, 实际 %d", len(out.Content.Parts))
		}
		if !out.Content.Parts[0].Thought || out.Content.Parts[0].Text != "思考中" {
			t.Errorf("首个 part 应为 thought: %+v", out.Content.Parts[0])
		}
		if !out.TurnComplete {
			t.Error("非流式响应应标记 TurnComplete")
		}
	})
}

func TestParseJSONArgs(t *testing.T) {
	if got := parseJSONArgs(`{"code":"600519"}`); got["code"] != "600519" {
		t.Errorf("解析结果不符: %v", got)
	}
	if got := parseJSONArgs("not json"); len(got) != 0 {
		t.Errorf("非法 JSON 应返回空 map: %v", got)
	}
	if got := parseJSONArgs(""); len(got) != 0 {
		t.Errorf("空字符串应返回空 map: %v", got)
	}
}

func TestParseVendorToolCalls(t *testing.T) {
	t.Run("提取标记并清理文本", func(t *testing.T) {
		text := "前文<tool_call>{\"name\":\"web_search\",\"arguments\":{\"query\":\"A股\"}}</tool_call>后文"
		calls, cleaned := parseVendorToolCalls(text)
		if len(calls) != 1 {
			t.Fatalf("期望 1 个调用, 实际 %d", len(calls))
		}
		if calls[0].Name != "web_search" || calls[0].Args["query"] != "A股" {
			t.Errorf("调用内容不符: %+v", calls[0])
		}
		if cleaned != "前文后文" {
			t.Errorf("清理后文本不符: %q", cleaned)
		}
	})

	t.Run("parameters字段兼容", func(t *testing.T) {
		text := "<tool_call>{\"name\":\"t\",\"parameters\":{\"k\":\"v\"}}</tool_call>"
		calls, _ := parseVendorToolCalls(text)
		if len(calls) != 1 || calls[0].Args["k"] != "v" {
			t.Fatalf("parameters 字段应被解析: %+v", calls)
		}
	})

	t.Run("非法JSON原样保留", func(t *testing.T) {
		text := "<tool_call>{broken</tool_call>正文"
		calls, cleaned := parseVendorToolCalls(text)
		if len(calls) != 0 {
			t.Errorf("非法标记不应产生调用: %+v", calls)
		}
		if cleaned != "<tool_call>{broken</tool_call>正文" {
			t.Errorf("非法标记应原样保留: %q", cleaned)
		}
	})

	t.Run("无标记直接返回", func(t *testing.T) {
		calls, cleaned := parseVendorToolCalls("普通文本")
		if calls != nil || cleaned != "普通文本" {
			t.Errorf("无标记文本应原样返回: %v %q", calls, cleaned)
		}
	})
}

func TestFilterVendorToolCallMarkers(t *testing.T) {
	text := "结果 <tool_call>{\"name\":\"x\"}</tool_call> 结束"
	if got := FilterVendorToolCallMarkers(text); got != "结果  结束" {
		t.Errorf("标记应被移除: %q", got)
	}
	if got := FilterVendorToolCallMarkers("无标记"); got != "无标记" {
		t.Errorf("无标记文本应原样返回: %q", got)
	}
}
