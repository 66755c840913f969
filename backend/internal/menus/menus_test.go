package menus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/search"
)

func newEditor(t *testing.T, content string) *editor.Editor {
	t.Helper()
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	ed, err := editor.New(reg, content)
	require.NoError(t, err)
	return ed
}

func TestBubbleToggleBoldRoundTrip(t *testing.T) {
	ed := newEditor(t, "<p>hello world</p>")
	b := NewBubble(ed)
	ed.Focus(editor.FocusStart)
	require.True(t, ed.SetSelection(7, 12))
	require.True(t, b.Visible())
	assert.False(t, b.IsActive(MarkBold))

	require.True(t, b.Click(MarkBold))
	assert.Equal(t, "<p>hello <strong>world</strong></p>", ed.HTML())
	assert.True(t, b.IsActive(MarkBold))

	require.True(t, b.Click(MarkBold))
	assert.Equal(t, "<p>hello world</p>", ed.HTML())
	assert.False(t, b.IsActive(MarkBold))
}

func TestBubblePartialMarkAddsAcrossRange(t *testing.T) {
	ed := newEditor(t, "<p>a<em>bc</em>d</p>")
	b := NewBubble(ed)
	ed.Focus(editor.FocusStart)
	require.True(t, ed.SetSelection(1, 5))
	assert.False(t, b.IsActive(MarkItalic))

	require.True(t, b.Click(MarkItalic))
	assert.Equal(t, "<p><em>abcd</em></p>", ed.HTML())
	require.True(t, b.Click(MarkItalic))
	assert.Equal(t, "<p>abcd</p>", ed.HTML())

	for id, tag := range map[string]string{MarkUnderline: "u", MarkStrike: "s"} {
		require.True(t, b.Click(id))
		assert.Equal(t, "<p><"+tag+">abcd</"+tag+"></p>", ed.HTML())
		require.True(t, b.Click(id))
	}
}

func TestBubbleVisibility(t *testing.T) {
	cases := []struct {
		name    string
		content string
		from    int
		to      int
		want    bool
	}{
		{"paragraph", "<p>abc</p>", 1, 3, true},
		{"collapsed", "<p>abc</p>", 2, 2, false},
		{"heading", "<h1>abc</h1>", 1, 3, false},
		{"list item", "<ul><li><p>abc</p></li></ul>", 3, 5, false},
		{"code block", "<pre><code>abc</code></pre>", 1, 3, false},
		{"quote paragraph", "<blockquote><p>abc</p></blockquote>", 2, 4, true},
		{"paragraph into heading", "<p>abc</p><h2>de</h2>", 2, 7, false},
		{"empty paragraphs", "<p></p><p></p>", 1, 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ed := newEditor(t, tc.content)
			b := NewBubble(ed)
			ed.Focus(editor.FocusStart)
			require.True(t, ed.SetSelection(tc.from, tc.to))
			assert.Equal(t, tc.want, b.Visible())
			assert.Equal(t, tc.want, b.Snapshot().Visible)
		})
	}
}

func TestBubbleNeedsFocus(t *testing.T) {
	ed := newEditor(t, "<p>abc</p>")
	b := NewBubble(ed)
	require.True(t, ed.SetSelection(1, 3))
	assert.False(t, b.Visible())

	ed.Focus(editor.FocusKeep)
	assert.True(t, b.Visible())
	assert.Equal(t, editor.Rect{Left: 0, Top: 0, Right: 16, Bottom: 24}, b.Rect())

	ed.Blur("somewhere-else")
	assert.False(t, b.Visible())
	assert.False(t, b.Click(MarkBold))

	ed.Focus(editor.FocusKeep)
	ed.Blur(MarkBold)
	assert.True(t, b.Visible(), "focusing a toolbar control keeps it open")
}

func TestBubbleNodeSelection(t *testing.T) {
	ed := newEditor(t, "<p>abc</p><hr><p>d</p>")
	b := NewBubble(ed)
	ed.Focus(editor.FocusStart)
	require.True(t, ed.SelectNode(5))
	assert.False(t, b.Visible())
}

func TestBubbleLinkMode(t *testing.T) {
	ed := newEditor(t, "<p>go here</p>")
	b := NewBubble(ed)
	ed.Focus(editor.FocusStart)
	require.True(t, ed.SetSelection(4, 8))

	require.True(t, b.Click(MarkLink))
	assert.Equal(t, ModeLink, b.Mode())
	assert.True(t, b.Visible())
	assert.Equal(t, InsertLinkValue, ed.ActiveElement())

	require.True(t, b.Input(InsertLinkValue, "https://example.com"))
	require.True(t, b.Key(InsertLinkValue, "Enter"))
	assert.Equal(t, ModeMarks, b.Mode())
	assert.True(t, ed.HasFocus())
	assert.Equal(t, `<p>go <a target="_blank" rel="noopener noreferrer nofollow" href="https://example.com">here</a></p>`, ed.HTML())
	assert.True(t, b.IsActive(MarkLink))

	require.True(t, b.Click(MarkLink))
	require.True(t, b.Click(CancelLink))
	assert.Equal(t, ModeMarks, b.Mode())
	assert.Equal(t, "<p>go here</p>", ed.HTML())
}

func TestBubbleSelectionChangeResetsMode(t *testing.T) {
	ed := newEditor(t, "<p>go here</p>")
	b := NewBubble(ed)
	ed.Focus(editor.FocusStart)
	require.True(t, ed.SetSelection(4, 8))
	require.True(t, b.Click(MarkLink))
	require.True(t, b.Input(InsertLinkValue, "x"))

	ed.Focus(editor.FocusKeep)
	require.True(t, ed.SetSelection(1, 3))
	assert.Equal(t, ModeMarks, b.Mode())
	assert.False(t, b.Key(InsertLinkValue, "Enter"))
	assert.Equal(t, "<p>go here</p>", ed.HTML())
}

func TestBubbleFollowsSearchResults(t *testing.T) {
	ed := newEditor(t, "<p>is a</p><p>b is</p><p>is</p>")
	b := NewBubble(ed)
	s := search.New(ed, search.Options{})
	ed.Focus(editor.FocusStart)
	s.SetSearchTerm("is")
	require.Len(t, s.Results(), 3)

	require.True(t, s.Next())
	require.True(t, b.Visible())
	first := b.Rect()

	rects := []editor.Rect{first}
	for i := 1; i < 3; i++ {
		s.Next()
		assert.NotEqual(t, rects[len(rects)-1], b.Rect())
		rects = append(rects, b.Rect())
	}
	s.Next()
	assert.Equal(t, first, b.Rect())

	s.Previous()
	assert.Equal(t, rects[2], b.Rect())
	assert.Equal(t, 2, s.Index())
}

func TestChangeMenuVisibility(t *testing.T) {
	ed := newEditor(t, `<p>a</p><p><img src="x.png"></p><image-placeholder></image-placeholder>`)
	m := NewChangeMenu(ed)
	assert.False(t, m.Visible())

	ed.Focus(editor.FocusStart)
	assert.True(t, m.Visible())

	// caret in the paragraph holding the image
	require.True(t, ed.SetSelection(4, 4))
	assert.False(t, m.Visible())

	require.True(t, ed.SelectNode(7))
	assert.False(t, m.Visible())

	require.True(t, ed.SetSelection(1, 1))
	assert.True(t, m.Visible())
	ed.SetEditable(false)
	assert.False(t, m.Visible())
	ed.SetEditable(true)
	assert.True(t, m.Visible())
	ed.Blur("")
	assert.False(t, m.Visible())
}

func TestChangeMenuOpenAndConvert(t *testing.T) {
	cases := []struct {
		content string
		testID  string
		want    string
	}{
		{"<h2>abc</h2>", "set-paragraph", "<p>abc</p>"},
		{"<p>abc</p>", "set-heading1", "<h1>abc</h1>"},
		{"<p>abc</p>", "set-heading2", "<h2>abc</h2>"},
		{"<p>abc</p>", "set-heading3", "<h3>abc</h3>"},
		{"<p>abc</p>", "set-quote", "<blockquote><p>abc</p></blockquote>"},
		{"<ul><li><p>abc</p></li></ul>", "set-quote", "<blockquote><p>abc</p></blockquote>"},
		{"<p>abc</p>", "set-bullet-list", "<ul><li><p>abc</p></li></ul>"},
		{"<p>abc</p>", "set-ordered-list", "<ol><li><p>abc</p></li></ol>"},
		{"<p>abc</p>", "set-code", "<pre><code>abc</code></pre>"},
	}
	for _, tc := range cases {
		t.Run(tc.content+" "+tc.testID, func(t *testing.T) {
			ed := newEditor(t, tc.content)
			m := NewChangeMenu(ed)
			ed.Focus(editor.FocusEnd)
			assert.False(t, m.Click(tc.testID), "entries need the list open")

			require.True(t, m.Click(ChangeBlock))
			require.True(t, m.Open())
			assert.Len(t, m.Snapshot().Entries, len(Conversions))

			require.True(t, m.Click(tc.testID))
			assert.False(t, m.Open())
			assert.Equal(t, tc.want, ed.HTML())
		})
	}
}

func TestChangeMenuListRoundTrip(t *testing.T) {
	ed := newEditor(t, "<p>intro</p><ul><li><p>item text</p></li></ul>")
	m := NewChangeMenu(ed)
	ed.Focus(editor.FocusAt(12))
	require.True(t, m.Visible())
	before := m.Rect()

	require.True(t, m.Click(ChangeBlock))
	require.True(t, m.Click("set-paragraph"))
	assert.Equal(t, "<p>intro</p><p>item text</p>", ed.HTML())

	require.True(t, m.Click(ChangeBlock))
	require.True(t, m.Click("set-bullet-list"))
	assert.Equal(t, "<p>intro</p><ul><li><p>item text</p></li></ul>", ed.HTML())
	assert.Equal(t, before, m.Rect())
}

func TestChangeMenuRectTracksCaretBlock(t *testing.T) {
	ed := newEditor(t, "<p>one</p><p>two</p>")
	m := NewChangeMenu(ed)
	ed.Focus(editor.FocusStart)
	top := m.Rect()
	assert.Equal(t, editor.DefaultBounds.Left, top.Left)
	assert.Equal(t, editor.DefaultBounds.Right, top.Right)

	require.True(t, ed.SetSelection(8, 8))
	below := m.Rect()
	assert.Equal(t, top.Left, below.Left)
	assert.Greater(t, below.Top, top.Top)

	require.True(t, ed.SetSelection(7, 7))
	assert.Equal(t, below, m.Rect())
}
