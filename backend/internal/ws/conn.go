package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"blockEditor/backend/internal/autosave"
	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/session"
)

var ErrUnknownMessage = errors.New("UNKNOWN_MESSAGE_TYPE")

const (
	handleTimeout = 200 * time.Millisecond
	presenceTTL   = 600 * time.Second
	sendQueueSize = 32
)

// Conn 一个 websocket 连接独占一个编辑会话，读循环是唯一驱动编辑器的 goroutine
type Conn struct {
	ws        *websocket.Conn
	m         *Manager
	docID     string
	sessionID string
	userID    uint64
	username  string
	send      chan ServerMessage

	sess  *session.Session
	saver *autosave.Saver
}

func newConn(ws *websocket.Conn, m *Manager, docID, sessionID string, userID uint64, username string, sess *session.Session, saver *autosave.Saver) *Conn {
	return &Conn{
		ws:        ws,
		m:         m,
		docID:     docID,
		sessionID: sessionID,
		userID:    userID,
		username:  username,
		send:      make(chan ServerMessage, sendQueueSize),
		sess:      sess,
		saver:     saver,
	}
}

func (c *Conn) enqueue(msg ServerMessage) {
	select {
	case c.send <- msg:
	default:
		// 队列满了就丢弃，客户端下一条消息会拿到完整状态
		log.Printf("send queue full, drop %s (doc=%s session=%s)", msg.Type, c.docID, c.sessionID)
	}
}

func (c *Conn) stateMessage(request string, handled bool) ServerMessage {
	snap := c.sess.Snapshot()
	return ServerMessage{
		Type:      MsgState,
		DocID:     c.docID,
		SessionID: c.sessionID,
		Revision:  c.saver.Revision(),
		Request:   request,
		Handled:   handled,
		State:     &snap,
	}
}

func (c *Conn) errorMessage(request string, err error) ServerMessage {
	return ServerMessage{Type: MsgError, DocID: c.docID, Revision: c.saver.Revision(), Request: request, Content: err.Error()}
}

func focusPosition(msg ClientMessage) editor.FocusPosition {
	switch msg.Position {
	case "start":
		return editor.FocusStart
	case "end":
		return editor.FocusEnd
	}
	if msg.Pos != nil {
		return editor.FocusAt(*msg.Pos)
	}
	if n, err := strconv.Atoi(msg.Position); err == nil {
		return editor.FocusAt(n)
	}
	return editor.FocusKeep
}

// handle 把一条客户端消息交给编辑会话，返回它是否被处理
func (c *Conn) handle(msg ClientMessage) (bool, error) {
	ed := c.sess.Editor()
	switch msg.Type {
	case MsgLoad:
		html, err := c.m.svc.Normalize(msg.Format, msg.Content)
		if err != nil {
			return false, err
		}
		return true, ed.SetContent(html)
	case MsgKey:
		return c.sess.Key(msg.pos(), msg.Target, msg.Key), nil
	case MsgText:
		if !ed.IsEditable() || msg.Content == "" {
			return false, nil
		}
		ed.TypeText(msg.Content)
		return true, nil
	case MsgSelect:
		return ed.SetSelection(msg.Anchor, msg.Head), nil
	case MsgSelectNode:
		return ed.SelectNode(msg.pos()), nil
	case MsgClick:
		return c.sess.Click(msg.Target), nil
	case MsgInput:
		return c.sess.Input(msg.pos(), msg.Target, msg.Content), nil
	case MsgFocus:
		ed.Focus(focusPosition(msg))
		return true, nil
	case MsgBlur:
		ed.Blur(msg.Target)
		return true, nil
	case MsgExport:
		return true, nil
	case MsgPointer:
		return c.sess.Pointer(msg.pos(), msg.Target, msg.Event, msg.X, msg.Y), nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}

func (c *Conn) heartbeat(ctx context.Context) {
	if c.m.presence == nil {
		c.enqueue(ServerMessage{Type: MsgPresence, DocID: c.docID, Revision: c.saver.Revision()})
		return
	}
	if err := c.m.presence.AddSession(ctx, c.docID, c.sessionID, c.username, presenceTTL); err != nil {
		log.Printf("add session error (doc=%s): %v", c.docID, err)
	}
	members, err := c.m.presence.AliveSessions(ctx, c.docID)
	if err != nil {
		log.Printf("alive sessions error (doc=%s): %v", c.docID, err)
	}
	c.enqueue(ServerMessage{Type: MsgPresence, DocID: c.docID, Revision: c.saver.Revision(), Members: members})
}

func (c *Conn) process(ctx context.Context, msg ClientMessage) {
	if c.m.sem != nil {
		acquireCtx, cancel := context.WithTimeout(ctx, handleTimeout)
		err := c.m.sem.Acquire(acquireCtx)
		cancel()
		if err != nil {
			c.enqueue(c.errorMessage(msg.Type, err))
			return
		}
		defer func() { _ = c.m.sem.Release() }()
	}
	handled, err := c.handle(msg)
	if err != nil {
		log.Printf("handle %s error (doc=%s rev=%d): %v", msg.Type, c.docID, c.saver.Revision(), err)
		c.enqueue(c.errorMessage(msg.Type, err))
		return
	}
	c.enqueue(c.stateMessage(msg.Type, handled))
}

func (c *Conn) readLoop(ctx context.Context) {
	defer close(c.send)
	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("read json error (user=%d, doc=%s): %v", c.userID, c.docID, err)
			}
			return
		}
		if msg.Type == MsgHeartbeat {
			c.heartbeat(ctx)
			continue
		}
		c.process(ctx, msg)
	}
}

func (c *Conn) writeLoop(done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		if err := c.ws.WriteJSON(msg); err != nil {
			log.Printf("write json error (doc=%s): %v", c.docID, err)
		}
	}
}
