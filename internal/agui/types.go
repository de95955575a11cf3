package agui

import "encoding/json"

// Role 消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// FunctionCall 工具调用的函数描述
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall 助手消息中携带的工具调用
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message 会话消息
// ID 对部分角色可能缺失，缺失时无法被标记为已处理
type Message struct {
	ID         string     `json:"id,omitempty"`
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"` // tool 角色消息对应的调用 ID
}

// RunAgentInput 一轮会话的运行输入
type RunAgentInput struct {
	ThreadID       string          `json:"threadId"`
	RunID          string          `json:"runId"`
	Messages       []Message       `json:"messages"`
	State          json.RawMessage `json:"state,omitempty"`
	ForwardedProps json.RawMessage `json:"forwardedProps,omitempty"`
}

// EventType 协议事件类型
type EventType string

const (
	EventRunStarted      EventType = "RUN_STARTED"
	EventRunFinished     EventType = "RUN_FINISHED"
	EventRunError        EventType = "RUN_ERROR"
	EventTextStart       EventType = "TEXT_MESSAGE_START"
	EventTextContent     EventType = "TEXT_MESSAGE_CONTENT"
	EventTextEnd         EventType = "TEXT_MESSAGE_END"
	EventThinkingContent EventType = "THINKING_TEXT_MESSAGE_CONTENT"
	EventToolCallStart   EventType = "TOOL_CALL_START"
	EventToolCallArgs    EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd     EventType = "TOOL_CALL_END"
	EventToolCallResult  EventType = "TOOL_CALL_RESULT"
)

// Event 协议事件，扁平结构，序列化时省略空字段
type Event struct {
	Type         EventType `json:"type"`
	ThreadID     string    `json:"threadId,omitempty"`
	RunID        string    `json:"runId,omitempty"`
	MessageID    string    `json:"messageId,omitempty"`
	Role         string    `json:"role,omitempty"`
	Delta        string    `json:"delta,omitempty"`
	ToolCallID   string    `json:"toolCallId,omitempty"`
	ToolCallName string    `json:"toolCallName,omitempty"`
	Content      string    `json:"content,omitempty"`
	Message      string    `json:"message,omitempty"` // 错误描述
	Code         string    `json:"code,omitempty"`    // 错误码
}

// NewRunStarted 运行开始事件
func NewRunStarted(threadID, runID string) Event {
	return Event{Type: EventRunStarted, ThreadID: threadID, RunID: runID}
}

// NewRunFinished 运行结束事件
func NewRunFinished(threadID, runID string) Event {
	return Event{Type: EventRunFinished, ThreadID: threadID, RunID: runID}
}

// NewRunError 运行错误事件
func NewRunError(message, code string) Event {
	return Event{Type: EventRunError, Message: message, Code: code}
}
