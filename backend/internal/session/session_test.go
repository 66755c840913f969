package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/insertmenu"
	"blockEditor/backend/internal/schema"
)

func newSession(t *testing.T, content string, opts ...editor.Option) *Session {
	t.Helper()
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	s, err := New(reg, content, Config{}, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestInsertMenuThroughKeysAndClicks(t *testing.T) {
	s := newSession(t, "<p></p>")
	s.Editor().Focus(editor.FocusStart)

	require.True(t, s.Key(-1, "", "/"))
	snap := s.Snapshot()
	assert.True(t, snap.InsertMenu.Visible)
	assert.Len(t, snap.InsertMenu.Items, insertmenu.MaxItems)
	assert.Equal(t, 0, snap.InsertMenu.Selected)

	require.True(t, s.Click("insert-heading1"))
	assert.Equal(t, "<h1></h1>", s.Snapshot().HTML)
	assert.False(t, s.Snapshot().InsertMenu.Visible)
}

func TestBubbleLinkThroughRouting(t *testing.T) {
	s := newSession(t, "<p>go here</p>")
	s.Editor().Focus(editor.FocusStart)
	require.True(t, s.Editor().SetSelection(4, 8))
	require.True(t, s.Snapshot().Bubble.Visible)

	require.True(t, s.Click("mark-link"))
	assert.Equal(t, "insert-link-value", s.Snapshot().Active)
	require.True(t, s.Input(-1, "insert-link-value", "https://example.com"))
	require.True(t, s.Key(-1, "insert-link-value", "Enter"))
	assert.Equal(t, `<p>go <a target="_blank" rel="noopener noreferrer nofollow" href="https://example.com">here</a></p>`, s.Snapshot().HTML)
	assert.True(t, s.Snapshot().Bubble.Active["mark-link"])

	assert.False(t, s.Click("no-such-control"))
}

func TestChangeMenuThroughClicks(t *testing.T) {
	s := newSession(t, "<p>abc</p>")
	s.Editor().Focus(editor.FocusEnd)
	require.True(t, s.Snapshot().ChangeMenu.Visible)

	require.True(t, s.Click("change-block"))
	assert.True(t, s.Snapshot().ChangeMenu.Open)
	require.True(t, s.Click("set-heading2"))
	assert.Equal(t, "<h2>abc</h2>", s.Snapshot().HTML)
}

func TestSearchThroughInputs(t *testing.T) {
	s := newSession(t, "<p>one two one</p>")
	s.Editor().Focus(editor.FocusStart)

	require.True(t, s.Input(-1, "search-input", "one"))
	snap := s.Snapshot()
	assert.True(t, snap.Search.Open)
	assert.Len(t, snap.Search.Results, 2)
	assert.Contains(t, snap.ViewHTML, `<span class="search-result">one</span>`)
	assert.Equal(t, "<p>one two one</p>", snap.HTML)

	require.True(t, s.Input(-1, "replace-input", "1"))
	require.True(t, s.Click("replace-all"))
	assert.Equal(t, "<p>1 two 1</p>", s.Snapshot().HTML)
}

func TestPlaceholderViewInput(t *testing.T) {
	s := newSession(t, "<p>a</p><image-placeholder></image-placeholder>")
	require.Equal(t, []int{3}, s.Editor().NodeViews())

	assert.False(t, s.Input(0, "image-url", "x"), "no view at 0")
	require.True(t, s.Input(3, "image-url", "https://x.io/y.png"))
	snap := s.Snapshot()
	require.Len(t, snap.NodeViews, 1)
	assert.Equal(t, "https://x.io/y.png", snap.NodeViews[0].State["value"])

	require.True(t, s.Key(3, "image-url", "Enter"))
	assert.Equal(t, `<p>a</p><p><span data-image-container="true"><img src="https://x.io/y.png"/></span></p>`, s.Snapshot().HTML)
}

func TestImageResizeThroughPointer(t *testing.T) {
	s := newSession(t, `<p><img src="a.png" width="300"></p>`)
	require.Equal(t, []int{1}, s.Editor().NodeViews())

	assert.False(t, s.Pointer(-1, "", "pointermove", 10, 0), "no drag in progress")
	require.True(t, s.Pointer(1, "image-resizer", "pointerdown", 0, 0))
	require.True(t, s.Pointer(-1, "", "pointermove", 50, 0))
	state := s.Snapshot().NodeViews[0].State
	assert.Equal(t, 350.0, state["width"])
	assert.Equal(t, true, state["dragging"])

	require.True(t, s.Pointer(-1, "", "pointerup", 50, 0))
	assert.Equal(t, false, s.Snapshot().NodeViews[0].State["dragging"])
	assert.Contains(t, s.Snapshot().ViewHTML, `style="width: 350px"`)
	assert.NotContains(t, s.Snapshot().HTML, "350")
}

func TestSnapshotJSON(t *testing.T) {
	s := newSession(t, "<p>ab</p>")
	s.Editor().Focus(editor.FocusEnd)
	raw, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "<p>ab</p>", m["html"])
	assert.Equal(t, true, m["focused"])
	sel := m["selection"].(map[string]any)
	assert.Equal(t, "text", sel["type"])
	assert.Equal(t, 3.0, sel["head"])
	for _, k := range []string{"insertMenu", "bubble", "changeMenu", "search"} {
		assert.Contains(t, m, k)
	}
}

func TestPlaceholderConfig(t *testing.T) {
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	s, err := New(reg, "", Config{Placeholder: "Write here"})
	require.NoError(t, err)
	assert.Contains(t, s.Snapshot().ViewHTML, `data-placeholder="Write here"`)
}
