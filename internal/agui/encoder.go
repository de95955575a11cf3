package agui

import (
	"encoding/json"
	"fmt"
)

// EventEncoder 把协议事件编码为 SSE 帧
type EventEncoder struct{}

// NewEventEncoder 创建事件编码器
func NewEventEncoder() *EventEncoder {
	return &EventEncoder{}
}

// ContentType SSE 响应的 Content-Type
func (e *EventEncoder) ContentType() string {
	return "text/event-stream"
}

// Encode 编码单个事件
func (e *EventEncoder) Encode(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("事件编码失败: %w", err)
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
}
