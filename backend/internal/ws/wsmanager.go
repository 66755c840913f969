package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"blockEditor/backend/internal/autosave"
	"blockEditor/backend/internal/cache"
	"blockEditor/backend/internal/collab"
	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/session"
)

const flushTimeout = 2 * time.Second

// 全局的WebSocket upgrader（允许本地开发环境的来源）
var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" { // 一些环境可能不发送 Origin，或为 "null"
		return true
	}
	allowedPrefixes := []string{
		"http://localhost",
		"http://127.0.0.1",
		"https://localhost",
		"https://127.0.0.1",
	}
	for _, p := range allowedPrefixes {
		if strings.HasPrefix(origin, p) {
			return true
		}
	}
	return false
}}

type Manager struct {
	svc      *collab.Service
	cfg      session.Config
	saveOpts autosave.Options
	events   autosave.EventSink
	presence cache.PresenceCache
	sem      *autosave.SemaphoreControl
}

// NewManager events、presence、sem 可为 nil
func NewManager(svc *collab.Service, cfg session.Config, saveOpts autosave.Options, events autosave.EventSink, presence cache.PresenceCache, sem *autosave.SemaphoreControl) *Manager {
	return &Manager{svc: svc, cfg: cfg, saveOpts: saveOpts, events: events, presence: presence, sem: sem}
}

// WebSocketConnect 为 ?docId= 打开一个编辑会话
func (m *Manager) WebSocketConnect(c *gin.Context) {
	docID := c.Query("docId")
	if docID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "missing docId"})
		return
	}
	userID := c.GetUint64("userId")
	username := c.GetString("username")
	ctx := c.Request.Context()

	initial, err := m.svc.Open(ctx, docID)
	if err != nil {
		log.Printf("open document error (doc=%s): %v", docID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "LOAD_DOC_FAILED"})
		return
	}
	saver := autosave.NewSaver(docID, initial.Revision, m.svc, m.svc, m.events, m.saveOpts)
	sess, err := session.New(m.svc.Registry(), initial.HTML, m.cfg,
		editor.WithOnTransaction(saver.OnTransaction),
		editor.WithOnUpdate(saver.OnUpdate),
	)
	if err != nil {
		log.Printf("new session error (doc=%s rev=%d): %v", docID, initial.Revision, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "LOAD_DOC_FAILED"})
		return
	}
	defer sess.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}
	defer conn.Close()

	wsConn := newConn(conn, m, docID, uuid.NewString(), userID, username, sess, saver)
	if m.presence != nil {
		if err := m.presence.AddSession(ctx, docID, wsConn.sessionID, username, presenceTTL); err != nil {
			log.Printf("add session error (doc=%s): %v", docID, err)
		}
	}

	// 先启动写循环，确保后续写入 send 通道的消息可以被及时发送
	done := make(chan struct{})
	go wsConn.writeLoop(done)
	welcome := wsConn.stateMessage("", true)
	welcome.Type = MsgWelcome
	wsConn.enqueue(welcome)

	// 读循环阻塞至连接关闭
	wsConn.readLoop(ctx)
	<-done

	// 连接断开时落一次最新快照，请求的 ctx 这时可能已经取消
	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := saver.Flush(flushCtx); err != nil {
		log.Printf("flush snapshot error (doc=%s rev=%d): %v", docID, saver.Revision(), err)
	}
	if m.presence != nil {
		if err := m.presence.RemoveSession(flushCtx, docID, wsConn.sessionID); err != nil {
			log.Printf("remove session error (doc=%s): %v", docID, err)
		}
	}
}
