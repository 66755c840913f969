package ws

import (
	"blockEditor/backend/internal/cache"
	"blockEditor/backend/internal/session"
)

// 客户端消息类型
const (
	MsgLoad       = "load"
	MsgKey        = "key"
	MsgText       = "text"
	MsgSelect     = "select"
	MsgSelectNode = "selectNode"
	MsgClick      = "click"
	MsgInput      = "input"
	MsgFocus      = "focus"
	MsgBlur       = "blur"
	MsgExport     = "export"
	MsgPointer    = "pointer"
	MsgHeartbeat  = "heartbeat"
)

// 服务端消息类型
const (
	MsgWelcome  = "welcome"
	MsgState    = "state"
	MsgPresence = "presence"
	MsgError    = "error"
)

type ClientMessage struct {
	Type string `json:"type"`
	// load 的内容、text 输入的文字、input 的值
	Content string `json:"content,omitempty"`
	// load 的格式："html"（默认）或 "markdown"
	Format string `json:"format,omitempty"`
	Key    string `json:"key,omitempty"`
	// 控件测试 ID
	Target string `json:"target,omitempty"`
	// 节点视图所在位置；缺省表示目标不在节点视图里
	Pos    *int `json:"pos,omitempty"`
	Anchor int  `json:"anchor,omitempty"`
	Head   int  `json:"head,omitempty"`
	// focus 的位置："start" | "end" | "keep"（默认），或者数字位置放在 Pos 里
	Position string  `json:"position,omitempty"`
	Event    string  `json:"event,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

func (m ClientMessage) pos() int {
	if m.Pos == nil {
		return -1
	}
	return *m.Pos
}

type ServerMessage struct {
	Type      string                 `json:"type"`
	DocID     string                 `json:"docId,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	Revision  uint64                 `json:"revision"`
	Request   string                 `json:"request,omitempty"`
	Handled   bool                   `json:"handled"`
	Members   []cache.PresenceMember `json:"members,omitempty"`
	State     *session.Snapshot      `json:"state,omitempty"`
	Content   string                 `json:"content,omitempty"`
}
