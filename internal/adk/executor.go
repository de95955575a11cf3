package adk

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sync"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/Jiangwlee/smartrade-adk/internal/agui"
	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

var execLog = logger.New("Executor")

var _ agui.Executor = &RunnerExecutor{}

// threadExec 单个会话线程的执行状态
// pendingCalls 记录已发出但尚未拿到结果的工具调用，
// suppressedCalls 记录因重复下发而被丢弃的调用 ID，
// bufferedBatch 暂存工具调用挂起期间到达的普通消息
type threadExec struct {
	sessionReady    bool
	pendingCalls    map[string]string // call ID -> tool name
	suppressedCalls map[string]bool
	bufferedBatch   []agui.Message
}

// RunnerExecutor 基于 adk runner 的会话执行器
// 负责把协议消息批次转换为模型输入、驱动 Agent 运行并把
// 运行事件翻译回协议事件
type RunnerExecutor struct {
	appName        string
	agent          agent.Agent
	sessionService session.Service
	runner         *runner.Runner

	mu      sync.RWMutex
	threads map[string]*threadExec
}

// NewRunnerExecutor 创建执行器，所有线程共享同一个 Agent 与会话服务
func NewRunnerExecutor(appName string, ag agent.Agent) (*RunnerExecutor, error) {
	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          ag,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}

	return &RunnerExecutor{
		appName:        appName,
		agent:          ag,
		sessionService: sessionService,
		runner:         r,
		threads:        make(map[string]*threadExec),
	}, nil
}

// threadState 获取或创建线程执行状态
func (e *RunnerExecutor) threadState(threadID string) *threadExec {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.threads[threadID]
	if !ok {
		t = &threadExec{
			pendingCalls:    make(map[string]string),
			suppressedCalls: make(map[string]bool),
		}
		e.threads[threadID] = t
	}
	return t
}

// HasPendingToolCalls 线程是否有等待结果的工具调用
func (e *RunnerExecutor) HasPendingToolCalls(threadID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.threads[threadID]
	return ok && len(t.pendingCalls) > 0
}

// CloseThread 释放线程执行状态
func (e *RunnerExecutor) CloseThread(threadID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.threads, threadID)
}

// ensureSession 确保线程对应的会话已创建，会话 ID 即线程 ID
func (e *RunnerExecutor) ensureSession(ctx context.Context, t *threadExec, threadID string) error {
	e.mu.Lock()
	ready := t.sessionReady
	e.mu.Unlock()
	if ready {
		return nil
	}

	_, err := e.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   e.appName,
		UserID:    "user",
		SessionID: threadID,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	e.mu.Lock()
	t.sessionReady = true
	e.mu.Unlock()
	return nil
}

// StartNewExecution 提交一批新消息开启执行
// batch 为空表示恢复中断的运行，此时用输入里最后一条 user 消息重新驱动；
// 工具调用挂起期间到达的新消息先行暂存，待工具结果提交时一并携带
func (e *RunnerExecutor) StartNewExecution(ctx context.Context, input agui.RunAgentInput, batch []agui.Message) iter.Seq2[agui.Event, error] {
	return func(yield func(agui.Event, error) bool) {
		t := e.threadState(input.ThreadID)

		if err := e.ensureSession(ctx, t, input.ThreadID); err != nil {
			yield(agui.Event{}, err)
			return
		}

		if len(batch) > 0 && e.HasPendingToolCalls(input.ThreadID) {
			execLog.Info("thread %s: 工具调用挂起中，暂存 %d 条消息", input.ThreadID, len(batch))
			e.mu.Lock()
			t.bufferedBatch = append(t.bufferedBatch, batch...)
			e.mu.Unlock()
			return
		}

		content := batchToContent(batch)
		if content == nil {
			content = resumeContent(input)
		}
		if content == nil {
			execLog.Debug("thread %s: 无可恢复的输入，跳过", input.ThreadID)
			return
		}

		e.run(ctx, t, input, content, yield)
	}
}

// SubmitToolResults 回填工具结果并继续运行
func (e *RunnerExecutor) SubmitToolResults(ctx context.Context, input agui.RunAgentInput, toolMessages []agui.Message, includeMessageBatch bool) iter.Seq2[agui.Event, error] {
	return func(yield func(agui.Event, error) bool) {
		t := e.threadState(input.ThreadID)

		if err := e.ensureSession(ctx, t, input.ThreadID); err != nil {
			yield(agui.Event{}, err)
			return
		}

		content := &genai.Content{Role: "user"}

		e.mu.Lock()
		for _, m := range toolMessages {
			name := t.pendingCalls[m.ToolCallID]
			if name == "" {
				name = m.Name
			}
			delete(t.pendingCalls, m.ToolCallID)
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     name,
					Response: toolResultPayload(m.Content),
				},
			})
		}
		buffered := t.bufferedBatch
		t.bufferedBatch = nil
		e.mu.Unlock()

		if includeMessageBatch {
			for _, m := range buffered {
				if m.Content != "" {
					content.Parts = append(content.Parts, genai.NewPartFromText(m.Content))
				}
			}
		} else if len(buffered) > 0 {
			execLog.Debug("thread %s: 丢弃 %d 条已刷新的暂存消息", input.ThreadID, len(buffered))
		}

		e.run(ctx, t, input, content, yield)
	}
}

// run 驱动 runner 并把 session 事件翻译为协议事件
func (e *RunnerExecutor) run(ctx context.Context, t *threadExec, input agui.RunAgentInput, content *genai.Content, yield func(agui.Event, error) bool) {
	tr := newEventTranslator(input.ThreadID, input.RunID)

	for event, err := range e.runner.Run(ctx, "user", input.ThreadID, content, agent.RunConfig{}) {
		if err != nil {
			execLog.WithError(err).Error("thread %s: agent 运行失败", input.ThreadID)
			yield(agui.Event{}, err)
			return
		}
		if event == nil || event.LLMResponse.Content == nil {
			continue
		}

		for _, out := range tr.translate(event) {
			if !e.applyToolTracking(t, out) {
				continue
			}
			if !yield(out, nil) {
				return
			}
		}
	}

	for _, out := range tr.flush() {
		if !yield(out, nil) {
			return
		}
	}
}

// applyToolTracking 根据协议事件维护挂起工具调用集合
// 返回 false 表示事件重复，应丢弃；重复调用的 START 被丢弃后，
// 其后续 ARGS/END 同样丢弃，避免向客户端发出无头的事件序列
func (e *RunnerExecutor) applyToolTracking(t *threadExec, ev agui.Event) bool {
	switch ev.Type {
	case agui.EventToolCallStart:
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, seen := t.pendingCalls[ev.ToolCallID]; seen {
			t.suppressedCalls[ev.ToolCallID] = true
			return false
		}
		t.pendingCalls[ev.ToolCallID] = ev.ToolCallName
	case agui.EventToolCallArgs, agui.EventToolCallEnd:
		e.mu.RLock()
		defer e.mu.RUnlock()
		if t.suppressedCalls[ev.ToolCallID] {
			return false
		}
	case agui.EventToolCallResult:
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(t.pendingCalls, ev.ToolCallID)
		delete(t.suppressedCalls, ev.ToolCallID)
	}
	return true
}

// batchToContent 把普通消息批次合并为单条模型输入
func batchToContent(batch []agui.Message) *genai.Content {
	content := &genai.Content{Role: "user"}
	for _, m := range batch {
		if m.Content == "" {
			continue
		}
		content.Parts = append(content.Parts, genai.NewPartFromText(m.Content))
	}
	if len(content.Parts) == 0 {
		return nil
	}
	return content
}

// resumeContent 恢复中断的运行时，用输入里最后一条 user 消息重新驱动
func resumeContent(input agui.RunAgentInput) *genai.Content {
	for i := len(input.Messages) - 1; i >= 0; i-- {
		m := input.Messages[i]
		if m.Role == agui.RoleUser && m.Content != "" {
			return &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{genai.NewPartFromText(m.Content)},
			}
		}
	}
	return nil
}

// toolResultPayload 工具结果内容优先按 JSON 对象解析，否则包装为 result 字段
func toolResultPayload(content string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err == nil {
		return payload
	}
	return map[string]any{"result": content}
}
