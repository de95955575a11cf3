package openai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// 部分第三方兼容服务不走标准 tool_calls 字段，而是在文本中输出
// <tool_call>{"name": ..., "arguments": {...}}</tool_call> 标记
var vendorToolCallRe = regexp.MustCompile(`(?s)<tool_call>\s*(\{.*?\})\s*</tool_call>`)

// vendorCall 文本标记中解析出的工具调用
type vendorCall struct {
	Name string
	Args map[string]any
}

// parseVendorToolCalls 从文本中提取第三方工具调用标记，返回调用列表和清理后的文本。
// 无法解析的标记原样保留在文本中。
func parseVendorToolCalls(text string) ([]vendorCall, string) {
	matches := vendorToolCallRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, text
	}

	var calls []vendorCall
	var cleaned strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		body := text[m[2]:m[3]]

		var payload struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
			Params    map[string]any `json:"parameters"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Name == "" {
			log.Warn("无法解析的工具调用标记: %s", body)
			cleaned.WriteString(text[last:end])
			last = end
			continue
		}

		args := payload.Arguments
		if args == nil {
			args = payload.Params
		}
		if args == nil {
			args = make(map[string]any)
		}
		calls = append(calls, vendorCall{Name: payload.Name, Args: args})

		cleaned.WriteString(text[last:start])
		last = end
	}
	cleaned.WriteString(text[last:])

	return calls, strings.TrimSpace(cleaned.String())
}

// FilterVendorToolCallMarkers 移除文本中的第三方工具调用标记
func FilterVendorToolCallMarkers(text string) string {
	if !strings.Contains(text, "<tool_call>") {
		return text
	}
	return strings.TrimSpace(vendorToolCallRe.ReplaceAllString(text, ""))
}
