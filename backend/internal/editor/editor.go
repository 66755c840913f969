// Package editor hosts one document: its state, focus, plugins, keymap,
// node views and layout. An Editor is single-writer and not safe for
// concurrent use.
package editor

import (
	"fmt"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/state"
)

// DefaultPlaceholder is shown in an empty document.
const DefaultPlaceholder = "Start writing..."

// Plugin derives state from the editor. Update runs after every dispatch,
// focus change and editable change, with the state before the change.
type Plugin interface {
	Update(ed *Editor, prev *state.EditorState)
}

// KeyHandler is a plugin that sees keys before the keymap does.
type KeyHandler interface {
	HandleKey(ed *Editor, key string) bool
}

// DecorationSource is a plugin that adds render-only decorations.
type DecorationSource interface {
	Decorations(ed *Editor) []schema.Decoration
}

// Option configures an Editor.
type Option func(*Editor)

// WithOnUpdate registers a callback receiving the exported HTML after every
// document change.
func WithOnUpdate(fn func(html string)) Option {
	return func(ed *Editor) { ed.onUpdate = fn }
}

// WithOnTransaction registers a callback for every dispatched transaction
// that changed the document.
func WithOnTransaction(fn func(tr *state.Transaction)) Option {
	return func(ed *Editor) { ed.onTransaction = fn }
}

// WithPlaceholder sets the empty-document placeholder text.
func WithPlaceholder(text string) Option {
	return func(ed *Editor) { ed.placeholder = text }
}

// WithEditable sets whether the document accepts user edits.
func WithEditable(editable bool) Option {
	return func(ed *Editor) { ed.editable = editable }
}

// WithPlugins adds plugins in order.
func WithPlugins(plugins ...Plugin) Option {
	return func(ed *Editor) { ed.plugins = append(ed.plugins, plugins...) }
}

// WithBounds sets the editor body rectangle used by layout.
func WithBounds(r Rect) Option {
	return func(ed *Editor) { ed.bounds = r }
}

// Editor is a headless editor instance.
type Editor struct {
	reg   *schema.Registry
	state *state.EditorState

	focused       bool
	activeElement string
	editable      bool
	placeholder   string
	bounds        Rect

	plugins       []Plugin
	keymap        Keymap
	onUpdate      func(html string)
	onTransaction func(tr *state.Transaction)

	events *schema.EventTarget
	views  []*nodeView
	layout *layout
}

// New creates an editor holding the parsed HTML content.
func New(reg *schema.Registry, content string, opts ...Option) (*Editor, error) {
	doc, err := reg.ParseHTML(content)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	ed := &Editor{
		reg:         reg,
		state:       state.New(reg.Schema(), doc),
		editable:    true,
		placeholder: DefaultPlaceholder,
		bounds:      DefaultBounds,
		events:      schema.NewEventTarget(),
	}
	for _, opt := range opts {
		opt(ed)
	}
	ed.keymap = defaultKeymap(reg)
	ed.syncViews(nil)
	return ed, nil
}

func (ed *Editor) State() *state.EditorState { return ed.state }

func (ed *Editor) Registry() *schema.Registry { return ed.reg }

// Events is the document-level event target node views listen on.
func (ed *Editor) Events() *schema.EventTarget { return ed.events }

// AddPlugin registers a plugin after construction and gives it a first
// update.
func (ed *Editor) AddPlugin(p Plugin) {
	ed.plugins = append(ed.plugins, p)
	p.Update(ed, ed.state)
}

// Dispatch applies a transaction and notifies plugins.
func (ed *Editor) Dispatch(tr *state.Transaction) {
	prev := ed.state
	ed.state = prev.Apply(tr)
	if tr.DocChanged() {
		ed.layout = nil
		ed.syncViews(tr)
		if ed.onTransaction != nil {
			ed.onTransaction(tr)
		}
		if ed.onUpdate != nil {
			ed.onUpdate(ed.HTML())
		}
	}
	ed.notify(prev)
}

// Run applies cmd and dispatches the result. Nothing is dispatched when the
// command does not apply.
func (ed *Editor) Run(cmd commands.Command) bool {
	if cmd == nil {
		return false
	}
	tr := ed.state.Tr()
	if !cmd(tr) {
		return false
	}
	ed.Dispatch(tr)
	return true
}

// RunChain runs cmds in order on one transaction and dispatches it whatever
// they report. It reports whether every command succeeded.
func (ed *Editor) RunChain(cmds ...commands.Command) bool {
	tr := ed.state.Tr()
	ok := commands.Chain(cmds...)(tr)
	ed.Dispatch(tr)
	return ok
}

// Can reports whether cmd would apply.
func (ed *Editor) Can(cmd commands.Command) bool {
	return cmd != nil && commands.Can(ed.state, cmd)
}

// Command runs a command from the registry's command tables by name.
func (ed *Editor) Command(name string, args map[string]any) bool {
	return ed.Run(ed.reg.Command(name, args))
}

// Named returns the registry command called name. An unknown name yields a
// command that never applies.
func (ed *Editor) Named(name string, args map[string]any) commands.Command {
	if cmd := ed.reg.Command(name, args); cmd != nil {
		return cmd
	}
	return func(*state.Transaction) bool { return false }
}

func (ed *Editor) notify(prev *state.EditorState) {
	for _, p := range ed.plugins {
		p.Update(ed, prev)
	}
}

// FocusPosition says where Focus puts the caret.
type FocusPosition struct {
	kind int
	pos  int
}

var (
	// FocusKeep keeps the current selection.
	FocusKeep = FocusPosition{}
	// FocusStart puts the caret at the start of the document.
	FocusStart = FocusPosition{kind: 1}
	// FocusEnd puts the caret at the end of the document.
	FocusEnd = FocusPosition{kind: 2}
)

// FocusAt puts the caret near pos.
func FocusAt(pos int) FocusPosition { return FocusPosition{kind: 3, pos: pos} }

// Focus moves focus into the editor.
func (ed *Editor) Focus(at FocusPosition) {
	prev := ed.state
	ed.focused = true
	ed.activeElement = ""
	var sel state.Selection
	switch at.kind {
	case 1:
		sel = state.AtStart(ed.state.Doc)
	case 2:
		sel = state.AtEnd(ed.state.Doc)
	case 3:
		pos := max(0, min(at.pos, ed.state.Doc.ContentSize()))
		if rPos, err := ed.state.Doc.Resolve(pos); err == nil {
			sel = state.Near(rPos, 1)
		}
	}
	if sel != nil {
		tr := ed.state.Tr()
		tr.SetSelection(sel)
		ed.state = ed.state.Apply(tr)
	}
	ed.notify(prev)
}

// Blur moves focus out of the editor to the control with the given test
// ID, or to nothing when target is empty.
func (ed *Editor) Blur(target string) {
	ed.focused = false
	ed.activeElement = target
	ed.notify(ed.state)
}

func (ed *Editor) HasFocus() bool { return ed.focused }

// ActiveElement is the test ID of the focused control outside the editor.
func (ed *Editor) ActiveElement() string { return ed.activeElement }

func (ed *Editor) IsEditable() bool { return ed.editable }

func (ed *Editor) SetEditable(editable bool) {
	ed.editable = editable
	ed.notify(ed.state)
}

// SetSelection sets a text selection.
func (ed *Editor) SetSelection(anchor, head int) bool {
	return ed.Run(commands.SetTextSelection(anchor, head))
}

// SelectNode selects the node at pos.
func (ed *Editor) SelectNode(pos int) bool {
	return ed.Run(commands.SetNodeSelection(pos))
}

// TypeText inserts text one character at a time, as typing does.
func (ed *Editor) TypeText(text string) {
	if !ed.editable {
		return
	}
	for _, r := range text {
		ed.Run(commands.InsertText(string(r)))
	}
}

// SetContent replaces the whole document.
func (ed *Editor) SetContent(content string) error {
	doc, err := ed.reg.ParseHTML(content)
	if err != nil {
		return err
	}
	tr := ed.state.Tr()
	if err := tr.ReplaceWith(0, ed.state.Doc.ContentSize(), doc.Content.Children()...); err != nil {
		return fmt.Errorf("replace content: %w", err)
	}
	tr.SetSelection(state.AtStart(tr.Doc))
	ed.Dispatch(tr)
	return nil
}

// HTML exports the document.
func (ed *Editor) HTML() string { return ed.reg.SerializeHTML(ed.state.Doc) }

// ViewHTML renders the document as displayed: with plugin decorations, the
// empty-document placeholder and node view styles.
func (ed *Editor) ViewHTML() string {
	var decos []schema.Decoration
	if d, ok := ed.placeholderDecoration(); ok {
		decos = append(decos, d)
	}
	for _, p := range ed.plugins {
		if src, ok := p.(DecorationSource); ok {
			decos = append(decos, src.Decorations(ed)...)
		}
	}
	return ed.reg.Render(ed.state.Doc, schema.RenderOptions{
		Decorations: decos,
		NodeAttrs:   ed.viewAttrs,
	})
}

func (ed *Editor) placeholderDecoration() (schema.Decoration, bool) {
	doc := ed.state.Doc
	if doc.ChildCount() != 1 {
		return schema.Decoration{}, false
	}
	first := doc.FirstChild()
	if !first.IsTextblock() || first.ContentSize() != 0 {
		return schema.Decoration{}, false
	}
	return schema.Decoration{
		From:  0,
		To:    first.NodeSize(),
		Node:  true,
		Class: "is-empty is-editor-empty",
		Attrs: map[string]string{"data-placeholder": ed.placeholder},
	}, true
}

// Destroy tears down node views.
func (ed *Editor) Destroy() {
	for _, v := range ed.views {
		v.view.Destroy()
	}
	ed.views = nil
}

// nodeView is an interactive view bound to the node at pos.
type nodeView struct {
	pos  int
	node *model.Node
	view schema.View
}

// NodeView returns the view of the node at pos, if it has one.
func (ed *Editor) NodeView(pos int) schema.View {
	for _, v := range ed.views {
		if v.pos == pos {
			return v.view
		}
	}
	return nil
}

// NodeViews returns the positions of all nodes with views, in document
// order.
func (ed *Editor) NodeViews() []int {
	out := make([]int, 0, len(ed.views))
	for _, v := range ed.views {
		out = append(out, v.pos)
	}
	return out
}

// syncViews keeps node views attached to their nodes across a change. A
// view survives when its node's mapped position still holds a node it
// accepts.
func (ed *Editor) syncViews(tr *state.Transaction) {
	old := ed.views
	ed.views = nil
	used := make(map[*nodeView]bool, len(old))
	ed.state.Doc.Descendants(func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		d, ok := ed.reg.Descriptor(node.Type.Name)
		if !ok || d.NewView == nil {
			return true
		}
		for _, v := range old {
			if used[v] || v.node.Type != node.Type {
				continue
			}
			mapped := v.pos
			if tr != nil {
				r := tr.Mapping.MapResult(v.pos, 1)
				if r.Deleted {
					continue
				}
				mapped = r.Pos
			}
			if mapped == pos && v.view.Update(node) {
				used[v] = true
				v.pos, v.node = pos, node
				ed.views = append(ed.views, v)
				return true
			}
		}
		nv := &nodeView{pos: pos, node: node}
		nv.view = ed.reg.NewView(ed, node, func() int { return nv.pos })
		ed.views = append(ed.views, nv)
		return true
	})
	for _, v := range old {
		if !used[v] {
			v.view.Destroy()
		}
	}
}

func (ed *Editor) viewAttrs(_ *model.Node, pos int) map[string]string {
	if s, ok := ed.NodeView(pos).(schema.StyledView); ok {
		return map[string]string{"style": s.Style()}
	}
	return nil
}
