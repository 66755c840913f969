package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/state"
)

func newEditor(t *testing.T, content string, opts ...Option) *Editor {
	t.Helper()
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	ed, err := New(reg, content, opts...)
	require.NoError(t, err)
	return ed
}

func TestTypeTextAndExport(t *testing.T) {
	var updates []string
	ed := newEditor(t, "<p></p>", WithOnUpdate(func(html string) { updates = append(updates, html) }))
	ed.Focus(FocusStart)
	ed.TypeText("Hi")

	assert.Equal(t, "<p>Hi</p>", ed.HTML())
	assert.Equal(t, []string{"<p>H</p>", "<p>Hi</p>"}, updates)
	assert.Equal(t, 3, ed.State().Selection.Head())
}

func TestNotEditable(t *testing.T) {
	ed := newEditor(t, "<p>a</p>", WithEditable(false))
	ed.Focus(FocusEnd)
	ed.TypeText("b")
	assert.False(t, ed.Key("c"))
	assert.Equal(t, "<p>a</p>", ed.HTML())
}

func TestFocusPositions(t *testing.T) {
	ed := newEditor(t, "<p>abc</p><p>de</p>")
	assert.False(t, ed.HasFocus())

	ed.Focus(FocusEnd)
	assert.True(t, ed.HasFocus())
	assert.Equal(t, 8, ed.State().Selection.From())

	ed.Focus(FocusAt(2))
	assert.Equal(t, 2, ed.State().Selection.From())

	ed.Focus(FocusKeep)
	assert.Equal(t, 2, ed.State().Selection.From())

	ed.Blur("insert-link-value")
	assert.False(t, ed.HasFocus())
	assert.Equal(t, "insert-link-value", ed.ActiveElement())
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Mod-b":       "Ctrl-b",
		"Shift-Mod-S": "Ctrl-Shift-s",
		"Control-,":   "Ctrl-,",
		"Control-.":   "Ctrl-.",
		"Cmd-f":       "Meta-f",
		"Alt-Mod-1":   "Alt-Ctrl-1",
		"Enter":       "Enter",
		"A":           "a",
		"-":           "-",
		"Ctrl--":      "Ctrl--",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestKeymap(t *testing.T) {
	ed := newEditor(t, "<p>abc</p>")
	ed.Focus(FocusStart)
	require.True(t, ed.SetSelection(1, 3))

	require.True(t, ed.Key("Mod-b"))
	assert.Equal(t, "<p><strong>ab</strong>c</p>", ed.HTML())

	require.True(t, ed.Key("Meta-b"))
	assert.Equal(t, "<p>abc</p>", ed.HTML())

	require.True(t, ed.SetSelection(2, 2))
	require.True(t, ed.Key("Enter"))
	assert.Equal(t, "<p>a</p><p>bc</p>", ed.HTML())

	require.True(t, ed.Key("Backspace"))
	assert.Equal(t, "<p>abc</p>", ed.HTML())

	require.True(t, ed.Key("Shift-X"))
	assert.Equal(t, "<p>aXbc</p>", ed.HTML())

	assert.False(t, ed.Key("F5"))
}

func TestKeymapBlocks(t *testing.T) {
	ed := newEditor(t, "<p>abc</p>")
	ed.Focus(FocusEnd)

	require.True(t, ed.Key("Mod-Alt-2"))
	assert.Equal(t, "<h2>abc</h2>", ed.HTML())

	require.True(t, ed.Key("Mod-Alt-2"))
	assert.Equal(t, "<p>abc</p>", ed.HTML())

	require.True(t, ed.Key("Mod-Shift-8"))
	assert.Equal(t, "<ul><li><p>abc</p></li></ul>", ed.HTML())
}

type recorder struct {
	calls int
	keys  []string
}

func (r *recorder) Update(*Editor, *state.EditorState) { r.calls++ }

func (r *recorder) HandleKey(_ *Editor, key string) bool {
	r.keys = append(r.keys, key)
	return key == "Escape"
}

func TestPluginsSeeUpdatesAndKeys(t *testing.T) {
	rec := &recorder{}
	ed := newEditor(t, "<p>a</p>", WithPlugins(rec))
	ed.Focus(FocusEnd)
	ed.TypeText("b")
	ed.Blur("")
	assert.Equal(t, 3, rec.calls)

	assert.True(t, ed.Key("Escape"))
	assert.True(t, ed.Key("c"))
	assert.Equal(t, []string{"Escape", "c"}, rec.keys)
	assert.Equal(t, "<p>abc</p>", ed.HTML())
}

func TestPlaceholder(t *testing.T) {
	ed := newEditor(t, "")
	assert.Equal(t, "<p></p>", ed.HTML())
	assert.Equal(t, `<p class="is-empty is-editor-empty" data-placeholder="Start writing..."></p>`, ed.ViewHTML())

	ed.Focus(FocusStart)
	ed.TypeText("x")
	assert.Equal(t, "<p>x</p>", ed.ViewHTML())

	custom := newEditor(t, "<h1></h1>", WithPlaceholder("Title"))
	assert.Contains(t, custom.ViewHTML(), `data-placeholder="Title"`)
}

func TestSetContent(t *testing.T) {
	ed := newEditor(t, "<p>old</p>")
	require.NoError(t, ed.SetContent("<h1>new</h1><p>body</p>"))
	assert.Equal(t, "<h1>new</h1><p>body</p>", ed.HTML())
	assert.Equal(t, 1, ed.State().Selection.From())
}

func TestNodeViewsFollowTheirNodes(t *testing.T) {
	ed := newEditor(t, "<p>a</p><image-placeholder></image-placeholder>")
	require.Equal(t, []int{3}, ed.NodeViews())
	view := ed.NodeView(3)
	require.NotNil(t, view)

	ed.Focus(FocusStart)
	ed.TypeText("x")
	assert.Equal(t, []int{4}, ed.NodeViews())
	assert.Same(t, view, ed.NodeView(4))

	require.True(t, ed.SetSelection(1, 3))
	require.True(t, ed.Key("Backspace"))
	assert.Equal(t, []int{2}, ed.NodeViews())
	assert.Same(t, view, ed.NodeView(2))
}

func TestImageViewStyle(t *testing.T) {
	ed := newEditor(t, `<p><img src="a.png" width="300"></p>`)
	require.Equal(t, []int{1}, ed.NodeViews())
	iv, ok := ed.NodeView(1).(*schema.ImageView)
	require.True(t, ok)
	assert.Equal(t, 300.0, iv.Width())
	assert.Contains(t, ed.ViewHTML(), `style="width: 300px"`)
	assert.NotContains(t, ed.HTML(), "style=")
}

func TestLayout(t *testing.T) {
	ed := newEditor(t, "<p>abcdefg</p><p>h</p>", WithBounds(Rect{Left: 0, Top: 0, Right: 40}))

	assert.Equal(t, Rect{Left: 0, Top: 0, Right: 0, Bottom: 24}, ed.CoordsAtPos(1))
	assert.Equal(t, Rect{Left: 16, Top: 0, Right: 16, Bottom: 24}, ed.CoordsAtPos(3))
	assert.Equal(t, Rect{Left: 40, Top: 0, Right: 40, Bottom: 24}, ed.CoordsAtPos(6))
	// "f" wraps onto the second line.
	assert.Equal(t, Rect{Left: 8, Top: 24, Right: 8, Bottom: 48}, ed.CoordsAtPos(7))

	// Second paragraph starts below the first with a gap.
	assert.Equal(t, Rect{Left: 0, Top: 56, Right: 0, Bottom: 80}, ed.CoordsAtPos(10))

	assert.Equal(t, Rect{Left: 0, Top: 0, Right: 16, Bottom: 24}, ed.RectBetween(1, 3))
	assert.Equal(t, Rect{Left: 0, Top: 0, Right: 8, Bottom: 48}, ed.RectBetween(1, 7))
	assert.Equal(t, 80.0, ed.Bounds().Bottom)
}

func TestLayoutNesting(t *testing.T) {
	ed := newEditor(t, "<h1>T</h1><ul><li><p>a</p></li></ul>")
	assert.Equal(t, 40.0, ed.CoordsAtPos(1).Height())

	// ul(3) li(4) p(5) "a" at 6
	r := ed.CoordsAtPos(6)
	assert.Equal(t, NestIndent, r.Left)
	assert.Equal(t, 48.0, r.Top)
}
