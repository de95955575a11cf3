package adk

import (
	"encoding/json"

	"github.com/google/uuid"
	"google.golang.org/adk/session"

	"github.com/Jiangwlee/smartrade-adk/internal/agui"
)

// eventTranslator 把一次运行产生的 session 事件翻译为协议事件流
// 流式模型先产出 Partial 增量、最后再产出聚合响应，聚合响应里的
// 文本与增量重复，需要去重；工具调用按 ID 去重
type eventTranslator struct {
	threadID string
	runID    string

	textMessageID   string
	textOpen        bool
	streamedText    bool
	streamedThought bool
	seenCalls       map[string]bool
}

func newEventTranslator(threadID, runID string) *eventTranslator {
	return &eventTranslator{
		threadID:  threadID,
		runID:     runID,
		seenCalls: make(map[string]bool),
	}
}

// translate 翻译单个 session 事件，可能产出多个协议事件
func (t *eventTranslator) translate(ev *session.Event) []agui.Event {
	var out []agui.Event
	partial := ev.LLMResponse.Partial

	for _, part := range ev.LLMResponse.Content.Parts {
		switch {
		case part.Thought:
			if part.Text == "" {
				continue
			}
			// 聚合响应重复携带已流式输出的思考内容
			if !partial && t.streamedThought {
				continue
			}
			out = append(out, agui.Event{
				Type:  agui.EventThinkingContent,
				Delta: part.Text,
			})
			if partial {
				t.streamedThought = true
			}

		case part.Text != "":
			if !partial && t.streamedText {
				continue
			}
			if !t.textOpen {
				t.textMessageID = uuid.NewString()
				t.textOpen = true
				out = append(out, agui.Event{
					Type:      agui.EventTextStart,
					MessageID: t.textMessageID,
					Role:      string(agui.RoleAssistant),
				})
			}
			out = append(out, agui.Event{
				Type:      agui.EventTextContent,
				MessageID: t.textMessageID,
				Delta:     part.Text,
			})
			if partial {
				t.streamedText = true
			}

		case part.FunctionCall != nil:
			fc := part.FunctionCall
			if t.seenCalls[fc.ID] {
				continue
			}
			t.seenCalls[fc.ID] = true
			out = append(out, t.closeText()...)

			args, _ := json.Marshal(fc.Args)
			out = append(out,
				agui.Event{Type: agui.EventToolCallStart, ToolCallID: fc.ID, ToolCallName: fc.Name},
				agui.Event{Type: agui.EventToolCallArgs, ToolCallID: fc.ID, Delta: string(args)},
				agui.Event{Type: agui.EventToolCallEnd, ToolCallID: fc.ID},
			)

		case part.FunctionResponse != nil:
			fr := part.FunctionResponse
			out = append(out, t.closeText()...)

			result, _ := json.Marshal(fr.Response)
			out = append(out, agui.Event{
				Type:       agui.EventToolCallResult,
				ToolCallID: fr.ID,
				Content:    string(result),
			})
		}
	}

	if ev.LLMResponse.TurnComplete {
		out = append(out, t.closeText()...)
	}

	return out
}

// flush 运行结束时关闭未闭合的文本消息
func (t *eventTranslator) flush() []agui.Event {
	return t.closeText()
}

func (t *eventTranslator) closeText() []agui.Event {
	if !t.textOpen {
		return nil
	}
	t.textOpen = false
	return []agui.Event{{
		Type:      agui.EventTextEnd,
		MessageID: t.textMessageID,
	}}
}
