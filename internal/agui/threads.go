package agui

import "sync"

// ThreadState 单个会话线程的状态
// processed 记录已交付给执行器的消息 ID，生命周期与线程一致
type ThreadState struct {
	ThreadID string
	AppName  string

	mu        sync.RWMutex
	processed map[string]struct{}
}

// MarkProcessed 标记消息为已处理，空 ID 被忽略
func (t *ThreadState) MarkProcessed(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			t.processed[id] = struct{}{}
		}
	}
}

// IsProcessed 判断消息是否已处理，无 ID 的消息永远视为未处理
func (t *ThreadState) IsProcessed(id string) bool {
	if id == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.processed[id]
	return ok
}

// Unseen 过滤出尚未处理的消息，保持原始顺序
func (t *ThreadState) Unseen(messages []Message) []Message {
	var unseen []Message
	for _, m := range messages {
		if !t.IsProcessed(m.ID) {
			unseen = append(unseen, m)
		}
	}
	return unseen
}

// ThreadStore 线程状态注册表
type ThreadStore struct {
	mu      sync.RWMutex
	threads map[string]*ThreadState
}

// NewThreadStore 创建线程状态注册表
func NewThreadStore() *ThreadStore {
	return &ThreadStore{
		threads: make(map[string]*ThreadState),
	}
}

// Get 获取线程状态，不存在时创建
func (s *ThreadStore) Get(threadID, appName string) *ThreadState {
	s.mu.RLock()
	t, ok := s.threads[threadID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[threadID]; ok {
		return t
	}
	t = &ThreadState{
		ThreadID:  threadID,
		AppName:   appName,
		processed: make(map[string]struct{}),
	}
	s.threads[threadID] = t
	return t
}

// Remove 移除线程状态（会话销毁时调用）
func (s *ThreadStore) Remove(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
}
