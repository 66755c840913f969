package menus

import (
	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

// ChangeBlock is the test ID of the switcher handle.
const ChangeBlock = "change-block"

// noSwitcher lists the node types whose blocks never get the switcher.
var noSwitcher = map[string]bool{
	"imageNode":        true,
	"imagePlaceholder": true,
	"youtube":          true,
	"videoPlaceholder": true,
}

// Conversion is one entry of the switcher list.
type Conversion struct {
	Title  string `json:"title"`
	TestID string `json:"testId"`

	run func(ed *editor.Editor) bool
}

func clearThen(name string, args map[string]any) func(ed *editor.Editor) bool {
	return func(ed *editor.Editor) bool {
		return ed.RunChain(commands.ClearNodes(), ed.Named(name, args))
	}
}

func just(name string, args map[string]any) func(ed *editor.Editor) bool {
	return func(ed *editor.Editor) bool { return ed.RunChain(ed.Named(name, args)) }
}

// Conversions lists the switcher entries in display order. Lists toggle
// membership; bullet lists clear wrapping first, numbered lists do not.
var Conversions = []Conversion{
	{Title: "Paragraph", TestID: "set-paragraph", run: func(ed *editor.Editor) bool {
		return ed.RunChain(commands.ClearNodes(), commands.ToggleNode("paragraph", "paragraph", nil))
	}},
	{Title: "Heading", TestID: "set-heading1", run: just("setHeading", map[string]any{"level": 1})},
	{Title: "Subheading", TestID: "set-heading2", run: just("setHeading", map[string]any{"level": 2})},
	{Title: "Small Subheading", TestID: "set-heading3", run: just("setHeading", map[string]any{"level": 3})},
	{Title: "Quote", TestID: "set-quote", run: clearThen("setBlockquote", nil)},
	{Title: "Bullet List", TestID: "set-bullet-list", run: clearThen("toggleBulletList", nil)},
	{Title: "Numbered List", TestID: "set-ordered-list", run: just("toggleOrderedList", nil)},
	{Title: "Code Block", TestID: "set-code", run: just("setCodeBlock", nil)},
	{Title: "Callout", TestID: "set-callout", run: just("setCallout", nil)},
}

// ChangeMenuSnapshot is the switcher's visible state.
type ChangeMenuSnapshot struct {
	Visible bool         `json:"visible"`
	Open    bool         `json:"open"`
	Rect    editor.Rect  `json:"rect"`
	Entries []Conversion `json:"entries,omitempty"`
}

// ChangeMenu is the block-type switcher.
type ChangeMenu struct {
	ed *editor.Editor

	visible bool
	open    bool
	rect    editor.Rect

	// last seen inputs; an update with none of them changed is skipped
	seen     bool
	doc      *model.Node
	sel      state.Selection
	focused  bool
	editable bool
}

// NewChangeMenu attaches a switcher to ed.
func NewChangeMenu(ed *editor.Editor) *ChangeMenu {
	m := &ChangeMenu{ed: ed}
	ed.AddPlugin(m)
	return m
}

// disallowed reports whether the caret's top-level block is, or directly
// holds, a media node.
func disallowed(st *state.EditorState) bool {
	if ns, ok := st.Selection.(*state.NodeSelection); ok && noSwitcher[ns.Node().Type.Name] {
		return true
	}
	rAnchor, err := st.Doc.Resolve(st.Selection.Anchor())
	if err != nil || rAnchor.Depth < 1 {
		return false
	}
	block := rAnchor.Node(1)
	if noSwitcher[block.Type.Name] {
		return true
	}
	found := false
	block.Content.ForEach(func(child *model.Node, _, _ int) {
		if noSwitcher[child.Type.Name] {
			found = true
		}
	})
	return found
}

func (m *ChangeMenu) Update(ed *editor.Editor, _ *state.EditorState) {
	st := ed.State()
	if m.seen && m.doc == st.Doc && m.sel.Eq(st.Selection) &&
		m.focused == ed.HasFocus() && m.editable == ed.IsEditable() {
		return
	}
	m.seen, m.doc, m.sel = true, st.Doc, st.Selection
	m.focused, m.editable = ed.HasFocus(), ed.IsEditable()

	m.visible = m.focused && m.editable && !disallowed(st)
	if !m.visible {
		m.open = false
		return
	}
	m.rect = blockRect(ed)
}

// blockRect spans the editor body horizontally and the start of the caret's
// block vertically.
func blockRect(ed *editor.Editor) editor.Rect {
	rFrom := ed.State().Selection.ResolvedFrom()
	line := ed.CoordsAtPos(rFrom.PosAtIndex(0, rFrom.Depth))
	bounds := ed.Bounds()
	return editor.Rect{Left: bounds.Left, Top: line.Top, Right: bounds.Right, Bottom: line.Bottom}
}

func (m *ChangeMenu) Visible() bool { return m.visible }

func (m *ChangeMenu) Open() bool { return m.open }

func (m *ChangeMenu) Rect() editor.Rect { return m.rect }

func (m *ChangeMenu) Snapshot() ChangeMenuSnapshot {
	if !m.visible {
		return ChangeMenuSnapshot{}
	}
	s := ChangeMenuSnapshot{Visible: true, Open: m.open, Rect: m.rect}
	if m.open {
		s.Entries = append([]Conversion(nil), Conversions...)
	}
	return s
}

// Click presses the handle or a list entry. The list closes before the
// conversion runs.
func (m *ChangeMenu) Click(testID string) bool {
	if !m.visible {
		return false
	}
	if testID == ChangeBlock {
		m.open = !m.open
		return true
	}
	if !m.open {
		return false
	}
	for _, c := range Conversions {
		if c.TestID == testID {
			m.open = false
			m.ed.Focus(editor.FocusKeep)
			c.run(m.ed)
			return true
		}
	}
	return false
}
