package agui

import (
	"context"
	"iter"

	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

// 日志实例
var log = logger.New("AGUI")

// Executor 会话执行器
// StartNewExecution 提交一批新消息开启执行（batch 为空表示恢复中断的运行），
// SubmitToolResults 提交待回填的工具结果，includeMessageBatch 控制是否携带
// 此前尚未提交的普通消息批次
type Executor interface {
	StartNewExecution(ctx context.Context, input RunAgentInput, batch []Message) iter.Seq2[Event, error]
	SubmitToolResults(ctx context.Context, input RunAgentInput, toolMessages []Message, includeMessageBatch bool) iter.Seq2[Event, error]
	HasPendingToolCalls(threadID string) bool
}

// Engine 消息回放对账引擎
// 对每轮送达的未见消息序列做单遍扫描，决定哪些批次提交给执行器、
// 哪些属于历史残留只做已处理标记，保证消息不被重复提交
type Engine struct {
	executor Executor
	store    *ThreadStore
	appName  string

	// 无 ID 的 assistant 消息是否也触发工具批次抑制
	// 这类消息无法被跟踪，默认不抑制
	SuppressOnIDlessAssistant bool
}

// NewEngine 创建对账引擎
func NewEngine(executor Executor, store *ThreadStore, appName string) *Engine {
	return &Engine{
		executor: executor,
		store:    store,
		appName:  appName,
	}
}

// messageIDs 提取消息 ID 列表，跳过空 ID
func messageIDs(messages []Message) []string {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Run 对一轮输入执行对账并转发执行器事件
// 提交批次失败时以单个错误终止事件流，已完成批次的处理标记不回滚
func (e *Engine) Run(ctx context.Context, input RunAgentInput) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		thread := e.store.Get(input.ThreadID, e.appName)
		unseen := thread.Unseen(input.Messages)

		// 没有新消息：恢复中断的运行
		if len(unseen) == 0 {
			log.Debug("thread %s: 无未见消息，恢复执行", input.ThreadID)
			e.forward(e.executor.StartNewExecution(ctx, input, nil), nil, thread, yield)
			return
		}

		index := 0
		total := len(unseen)
		skipToolMessageBatch := false

		for index < total {
			current := unseen[index]

			if current.Role == "" {
				log.Warn("thread %s: 消息 %q 缺少角色，跳过", input.ThreadID, current.ID)
				index++
				continue
			}

			if current.Role == RoleTool {
				// 收集连续的 tool 消息
				var toolBatch []Message
				for index < total && unseen[index].Role == RoleTool {
					toolBatch = append(toolBatch, unseen[index])
					index++
				}

				if e.executor.HasPendingToolCalls(input.ThreadID) {
					log.Info("thread %s: 提交 %d 条待回填的工具结果", input.ThreadID, len(toolBatch))
					if !e.forward(
						e.executor.SubmitToolResults(ctx, input, toolBatch, !skipToolMessageBatch),
						toolBatch, thread, yield,
					) {
						return
					}
				} else {
					// 没有挂起的工具调用，这些是历史残留，直接标记已处理
					ids := messageIDs(toolBatch)
					log.Info("thread %s: 跳过 %d 条历史工具消息，标记已处理: %v", input.ThreadID, len(toolBatch), ids)
					thread.MarkProcessed(ids...)
				}

				skipToolMessageBatch = false
				continue
			}

			// 收集连续的非 tool 消息，剥离 assistant 历史回复
			var (
				messageBatch    []Message
				assistantIDs    []string
				idlessAssistant bool
			)
			for index < total && unseen[index].Role != RoleTool {
				candidate := unseen[index]
				index++
				if candidate.Role == "" {
					log.Warn("thread %s: 消息 %q 缺少角色，跳过", input.ThreadID, candidate.ID)
					continue
				}
				if candidate.Role == RoleAssistant {
					if candidate.ID != "" {
						assistantIDs = append(assistantIDs, candidate.ID)
					} else {
						idlessAssistant = true
					}
					continue
				}
				messageBatch = append(messageBatch, candidate)
			}

			// 历史回复立即标记，防止重复响应
			thread.MarkProcessed(assistantIDs...)

			if len(messageBatch) == 0 {
				if len(assistantIDs) > 0 || (idlessAssistant && e.SuppressOnIDlessAssistant) {
					skipToolMessageBatch = true
				}
				continue
			}

			skipToolMessageBatch = false
			log.Info("thread %s: 提交 %d 条新消息开启执行", input.ThreadID, len(messageBatch))
			if !e.forward(e.executor.StartNewExecution(ctx, input, messageBatch), messageBatch, thread, yield) {
				return
			}
		}
	}
}

// forward 转发执行器的事件流
// 流正常结束后把 batch 中的消息标记为已处理；遇到错误时转发该错误并终止，
// 返回值表示对账流程是否可以继续
func (e *Engine) forward(
	events iter.Seq2[Event, error],
	batch []Message,
	thread *ThreadState,
	yield func(Event, error) bool,
) bool {
	for event, err := range events {
		if err != nil {
			log.WithError(err).Error("thread %s: 执行器提交失败", thread.ThreadID)
			yield(Event{}, err)
			return false
		}
		if !yield(event, nil) {
			return false
		}
	}
	if batch != nil {
		thread.MarkProcessed(messageIDs(batch)...)
	}
	return true
}
