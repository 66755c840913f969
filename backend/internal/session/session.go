package session

import (
	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/insertmenu"
	"blockEditor/backend/internal/menus"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/search"
	"blockEditor/backend/internal/state"
)

// Config 编辑会话的可配置项
type Config struct {
	Placeholder string         `mapstructure:"Placeholder"`
	Search      search.Options `mapstructure:"Search"`
}

// Session 一个编辑器加上它的全部控制器：插入菜单、气泡工具栏、块类型切换、搜索替换。
// 不是并发安全的，由持有它的连接在单个 goroutine 中驱动
type Session struct {
	ed     *editor.Editor
	insert *insertmenu.Menu
	bubble *menus.Bubble
	change *menus.ChangeMenu
	search *search.Session
}

func New(reg *schema.Registry, content string, cfg Config, opts ...editor.Option) (*Session, error) {
	if cfg.Placeholder != "" {
		opts = append(opts, editor.WithPlaceholder(cfg.Placeholder))
	}
	ed, err := editor.New(reg, content, opts...)
	if err != nil {
		return nil, err
	}
	return &Session{
		ed:     ed,
		insert: insertmenu.New(ed),
		bubble: menus.NewBubble(ed),
		change: menus.NewChangeMenu(ed),
		search: search.New(ed, cfg.Search),
	}, nil
}

func (s *Session) Editor() *editor.Editor { return s.ed }

func (s *Session) InsertMenu() *insertmenu.Menu { return s.insert }

func (s *Session) Bubble() *menus.Bubble { return s.bubble }

func (s *Session) ChangeMenu() *menus.ChangeMenu { return s.change }

func (s *Session) Search() *search.Session { return s.search }

// Click 按测试 ID 点击控件，第一个认领该 ID 的控制器处理
func (s *Session) Click(target string) bool {
	return s.insert.Click(target) ||
		s.bubble.Click(target) ||
		s.change.Click(target) ||
		s.search.Click(target)
}

// Input 向控件输入内容。pos >= 0 时交给该位置的节点视图
func (s *Session) Input(pos int, target, value string) bool {
	if pos >= 0 {
		v, ok := s.ed.NodeView(pos).(schema.InputView)
		return ok && v.Input(target, value)
	}
	return s.bubble.Input(target, value) || s.search.Input(target, value)
}

// Key 按键。target 为空时按键落在编辑器本身
func (s *Session) Key(pos int, target, key string) bool {
	if pos >= 0 {
		v, ok := s.ed.NodeView(pos).(schema.InputView)
		return ok && v.Key(target, key)
	}
	if target == "" {
		return s.ed.Key(key)
	}
	return s.bubble.Key(target, key)
}

// Pointer pointerdown 落在节点视图的控件上；move/up 是文档级事件
func (s *Session) Pointer(pos int, target, typ string, x, y float64) bool {
	if typ == "pointerdown" {
		v, ok := s.ed.NodeView(pos).(schema.PointerView)
		return ok && v.PointerDown(target, x, y)
	}
	if s.ed.Events().ListenerCount(typ) == 0 {
		return false
	}
	s.ed.Events().Dispatch(schema.PointerEvent{Type: typ, X: x, Y: y})
	return true
}

// NodeViewState 节点视图对外可见的状态
type NodeViewState struct {
	Pos   int            `json:"pos"`
	State map[string]any `json:"state"`
}

// Snapshot 会话的完整派生状态，随每条 ws 消息返回
type Snapshot struct {
	HTML       string                   `json:"html"`
	ViewHTML   string                   `json:"viewHtml"`
	Selection  state.SelectionJSON      `json:"selection"`
	Focused    bool                     `json:"focused"`
	Active     string                   `json:"activeElement,omitempty"`
	InsertMenu insertmenu.Snapshot      `json:"insertMenu"`
	Bubble     menus.BubbleSnapshot     `json:"bubble"`
	ChangeMenu menus.ChangeMenuSnapshot `json:"changeMenu"`
	Search     search.Snapshot          `json:"search"`
	NodeViews  []NodeViewState          `json:"nodeViews,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		HTML:       s.ed.HTML(),
		ViewHTML:   s.ed.ViewHTML(),
		Selection:  s.ed.State().Selection.JSON(),
		Focused:    s.ed.HasFocus(),
		Active:     s.ed.ActiveElement(),
		InsertMenu: s.insert.Snapshot(),
		Bubble:     s.bubble.Snapshot(),
		ChangeMenu: s.change.Snapshot(),
		Search:     s.search.Snapshot(),
	}
	for _, pos := range s.ed.NodeViews() {
		snap.NodeViews = append(snap.NodeViews, NodeViewState{Pos: pos, State: s.ed.NodeView(pos).State()})
	}
	return snap
}

func (s *Session) Close() { s.ed.Destroy() }
