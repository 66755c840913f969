package autosave

import (
	"time"

	"blockEditor/backend/internal/ot/delta"
)

const EventContentChanged = "CONTENT_CHANGED"

// ContentChangedEvent 每次文档变化发往 Kafka 的事件
type ContentChangedEvent struct {
	EventType string        `json:"eventType"` // 固定 "CONTENT_CHANGED"
	DocID     string        `json:"docId"`
	Revision  uint64        `json:"revision"`
	HTML      string        `json:"html"`
	Ops       []delta.Delta `json:"ops"` // 每个 step 一个 delta
	ChangedAt time.Time     `json:"changedAt"`
}
