// Package insertmenu is the slash-command menu: typing "/" as the first
// character of a block opens a filterable list of block insertions.
package insertmenu

import (
	"regexp"
	"strings"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/state"
)

// MaxItems caps the filtered list.
const MaxItems = 10

var triggerRe = regexp.MustCompile(`^/[^\s/]*$`)

// Range is the "/query" text the menu replaces.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Item is one insertable block.
type Item struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	TestID   string `json:"testId"`

	command string
	args    map[string]any
}

// Items is the fixed command list, in display order.
var Items = []Item{
	{Title: "Heading", Subtitle: "Large section heading", TestID: "insert-heading1", command: "setHeading", args: map[string]any{"level": 1}},
	{Title: "Subheading", Subtitle: "Medium section heading", TestID: "insert-heading2", command: "setHeading", args: map[string]any{"level": 2}},
	{Title: "Small Subheading", Subtitle: "Small section heading", TestID: "insert-heading3", command: "setHeading", args: map[string]any{"level": 3}},
	{Title: "Quote", Subtitle: "Display a quote", TestID: "insert-quote", command: "setBlockquote"},
	{Title: "Bullet List", Subtitle: "Create a list with bullet points", TestID: "insert-bullet-list", command: "toggleBulletList"},
	{Title: "Numbered List", Subtitle: "Create a list with numbering", TestID: "insert-ordered-list", command: "toggleOrderedList"},
	{Title: "Divider", Subtitle: "Visually divide sections", TestID: "insert-divider", command: "setHorizontalRule"},
	{Title: "Code Block", Subtitle: "Display a code snippet", TestID: "insert-code", command: "setCodeBlock"},
	{Title: "Callout", Subtitle: "Make your text stand out", TestID: "insert-callout", command: "setCallout"},
	{Title: "Image", Subtitle: "Embed an image", TestID: "insert-image", command: "insertImagePlaceholder"},
	{Title: "Video", Subtitle: "Embed a youtube video", TestID: "insert-video", command: "insertVideoPlaceholder"},
}

// Filter returns the items whose title starts with query, ignoring case, in
// declaration order and capped at MaxItems.
func Filter(query string) []Item {
	q := strings.ToLower(query)
	out := make([]Item, 0, MaxItems)
	for _, it := range Items {
		if strings.HasPrefix(strings.ToLower(it.Title), q) {
			out = append(out, it)
			if len(out) == MaxItems {
				break
			}
		}
	}
	return out
}

// Snapshot is the menu's visible state.
type Snapshot struct {
	Visible  bool        `json:"visible"`
	Query    string      `json:"query"`
	Range    Range       `json:"range"`
	Items    []Item      `json:"items"`
	Selected int         `json:"selected"`
	Rect     editor.Rect `json:"rect"`
}

// Menu tracks the slash trigger on one editor.
type Menu struct {
	ed *editor.Editor

	active    bool
	dismissed bool
	query     string
	rng       Range
	items     []Item
	selected  int
	rect      editor.Rect
}

// New attaches a menu to ed.
func New(ed *editor.Editor) *Menu {
	m := &Menu{ed: ed, selected: -1}
	ed.AddPlugin(m)
	return m
}

// match finds the "/query" before an empty caret at the start of a block.
func match(st *state.EditorState) (Range, string, bool) {
	sel, ok := st.Selection.(*state.TextSelection)
	if !ok || !sel.Empty() {
		return Range{}, "", false
	}
	rPos := sel.ResolvedFrom()
	parent := rPos.Parent()
	if !parent.InlineContent() || parent.Type.IsCode() {
		return Range{}, "", false
	}
	if parent.Content.TextBetween(0, min(1, parent.ContentSize()), "", "\ufffc") != "/" {
		return Range{}, "", false
	}
	text := parent.Content.TextBetween(0, rPos.ParentOffset, "", "\ufffc")
	if !triggerRe.MatchString(text) {
		return Range{}, "", false
	}
	start := rPos.Start(rPos.Depth)
	return Range{From: start, To: rPos.Pos}, text[1:], true
}

func (m *Menu) Update(ed *editor.Editor, _ *state.EditorState) {
	rng, query, ok := match(ed.State())
	if !ok || !ed.IsEditable() {
		m.active, m.dismissed = false, false
		m.items, m.selected, m.query = nil, -1, ""
		return
	}
	m.active = true
	m.rng, m.query = rng, query
	items := Filter(query)
	if !sameItems(items, m.items) {
		m.selected = 0
	}
	m.items = items
	m.rect = ed.RectBetween(rng.From, rng.To)
}

func sameItems(a, b []Item) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	for i := range a {
		if a[i].TestID != b[i].TestID {
			return false
		}
	}
	return true
}

// Visible reports whether the list is shown.
func (m *Menu) Visible() bool { return m.active && !m.dismissed }

func (m *Menu) Snapshot() Snapshot {
	if !m.Visible() {
		return Snapshot{Selected: -1}
	}
	return Snapshot{
		Visible:  true,
		Query:    m.query,
		Range:    m.rng,
		Items:    append([]Item(nil), m.items...),
		Selected: m.selected,
		Rect:     m.rect,
	}
}

// HandleKey drives the list from the keyboard while it is shown.
func (m *Menu) HandleKey(_ *editor.Editor, key string) bool {
	if !m.Visible() {
		return false
	}
	n := len(m.items)
	switch key {
	case "ArrowUp":
		if n > 0 {
			m.selected = (max(m.selected, 0) + n - 1) % n
		}
		return true
	case "ArrowDown":
		if n > 0 {
			if m.selected < 0 {
				m.selected = 0
			} else {
				m.selected = (m.selected + 1) % n
			}
		}
		return true
	case "Enter":
		m.choose(max(m.selected, 0))
		return true
	case "Escape":
		m.dismissed = true
		return true
	}
	return false
}

// Click runs the item with the given test ID.
func (m *Menu) Click(testID string) bool {
	if !m.Visible() {
		return false
	}
	for i, it := range m.items {
		if it.TestID == testID {
			return m.choose(i)
		}
	}
	return false
}

// choose deletes the "/query" text and runs the item's command on the block
// left behind.
func (m *Menu) choose(i int) bool {
	if i >= len(m.items) {
		return false
	}
	it, rng := m.items[i], m.rng
	m.ed.Focus(editor.FocusKeep)
	return m.ed.RunChain(commands.DeleteRange(rng.From, rng.To), m.ed.Named(it.command, it.args))
}
