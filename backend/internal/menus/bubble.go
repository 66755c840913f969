// Package menus holds the selection-anchored formatting toolbar and the
// caret-anchored block-type switcher.
package menus

import (
	"strings"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

// Bubble modes.
const (
	ModeMarks = "marks"
	ModeLink  = "link"
)

// Bubble control test IDs.
const (
	MarkBold        = "mark-bold"
	MarkItalic      = "mark-italic"
	MarkUnderline   = "mark-underline"
	MarkStrike      = "mark-strike"
	MarkLink        = "mark-link"
	InsertLinkValue = "insert-link-value"
	CancelLink      = "cancel-link"
)

var markControls = map[string]string{
	MarkBold:      "bold",
	MarkItalic:    "italic",
	MarkUnderline: "underline",
	MarkStrike:    "strike",
}

func bubbleControl(id string) bool {
	switch id {
	case MarkLink, InsertLinkValue, CancelLink:
		return true
	}
	_, ok := markControls[id]
	return ok
}

// BubbleSnapshot is the toolbar's visible state.
type BubbleSnapshot struct {
	Visible   bool            `json:"visible"`
	Mode      string          `json:"mode"`
	Rect      editor.Rect     `json:"rect"`
	Active    map[string]bool `json:"active"`
	LinkValue string          `json:"linkValue,omitempty"`
}

// Bubble is the floating formatting toolbar.
type Bubble struct {
	ed *editor.Editor

	visible   bool
	mode      string
	linkValue string
	rect      editor.Rect
	active    map[string]bool
}

// NewBubble attaches a toolbar to ed.
func NewBubble(ed *editor.Editor) *Bubble {
	b := &Bubble{ed: ed, mode: ModeMarks}
	ed.AddPlugin(b)
	return b
}

// ShouldShow reports whether the toolbar qualifies for the current state.
func ShouldShow(ed *editor.Editor) bool {
	focused := ed.HasFocus() || bubbleControl(ed.ActiveElement())
	if !focused {
		return false
	}
	st := ed.State()
	sel := st.Selection
	if sel.Empty() {
		return false
	}
	if _, ok := sel.(*state.TextSelection); ok && st.Doc.TextBetween(sel.From(), sel.To(), "", "") == "" {
		return false
	}
	return inPlainParagraph(st)
}

// inPlainParagraph reports whether the selection lies in paragraphs that are
// not list item content.
func inPlainParagraph(st *state.EditorState) bool {
	if ns, ok := st.Selection.(*state.NodeSelection); ok {
		return ns.Node().Type.Name == "paragraph" && !inListItem(ns.ResolvedFrom())
	}
	if !commands.IsNodeActive(st, "paragraph", nil) {
		return false
	}
	return !inListItem(st.Selection.ResolvedFrom()) && !inListItem(st.Selection.ResolvedTo())
}

func inListItem(rPos *model.ResolvedPos) bool {
	for d := rPos.Depth; d > 0; d-- {
		if rPos.Node(d).Type.Name == "listItem" {
			return true
		}
	}
	return false
}

func (b *Bubble) Update(ed *editor.Editor, prev *state.EditorState) {
	if !prev.Selection.Eq(ed.State().Selection) {
		b.mode, b.linkValue = ModeMarks, ""
	}
	b.visible = ShouldShow(ed)
	if !b.visible {
		b.active = nil
		return
	}
	sel := ed.State().Selection
	b.rect = ed.RectBetween(sel.From(), sel.To())
	b.active = make(map[string]bool, len(markControls)+1)
	for id, name := range markControls {
		b.active[id] = commands.IsMarkActive(ed.State(), name, nil)
	}
	b.active[MarkLink] = commands.IsMarkActive(ed.State(), "link", nil)
}

func (b *Bubble) Visible() bool { return b.visible }

func (b *Bubble) Mode() string { return b.mode }

func (b *Bubble) Rect() editor.Rect { return b.rect }

// IsActive reports whether the control's mark covers the selection.
func (b *Bubble) IsActive(testID string) bool { return b.active[testID] }

func (b *Bubble) Snapshot() BubbleSnapshot {
	if !b.visible {
		return BubbleSnapshot{Mode: b.mode}
	}
	active := make(map[string]bool, len(b.active))
	for k, v := range b.active {
		active[k] = v
	}
	return BubbleSnapshot{Visible: true, Mode: b.mode, Rect: b.rect, Active: active, LinkValue: b.linkValue}
}

// Click presses a toolbar control.
func (b *Bubble) Click(testID string) bool {
	if !b.visible {
		return false
	}
	if name, ok := markControls[testID]; ok && b.mode == ModeMarks {
		b.ed.Focus(editor.FocusKeep)
		return b.ed.Run(commands.ToggleMark(name, nil))
	}
	switch {
	case testID == MarkLink && b.mode == ModeMarks:
		b.mode, b.linkValue = ModeLink, ""
		// The URL input takes focus.
		b.ed.Blur(InsertLinkValue)
		return true
	case testID == CancelLink && b.mode == ModeLink:
		b.mode, b.linkValue = ModeMarks, ""
		b.ed.Focus(editor.FocusKeep)
		b.ed.Run(commands.UnsetLink())
		return true
	}
	return false
}

// Input types into the link URL field.
func (b *Bubble) Input(testID, value string) bool {
	if !b.visible || b.mode != ModeLink || testID != InsertLinkValue {
		return false
	}
	b.linkValue = value
	return true
}

// Key handles a key pressed in the link URL field. Enter applies the link
// and returns to the marks view; Escape leaves without a change.
func (b *Bubble) Key(testID, key string) bool {
	if !b.visible || b.mode != ModeLink || testID != InsertLinkValue {
		return false
	}
	switch key {
	case "Enter":
		href := strings.TrimSpace(b.linkValue)
		b.mode, b.linkValue = ModeMarks, ""
		b.ed.Focus(editor.FocusKeep)
		if href != "" {
			b.ed.Run(commands.SetLink(href, "_blank"))
		}
		return true
	case "Escape":
		b.mode, b.linkValue = ModeMarks, ""
		b.ed.Focus(editor.FocusKeep)
		return true
	}
	return false
}
