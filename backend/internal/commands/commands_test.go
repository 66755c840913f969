package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/state"
)

type fixture struct {
	reg *schema.Registry
	st  *state.EditorState
}

func load(t *testing.T, content string, anchor, head int) *fixture {
	t.Helper()
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	doc, err := reg.ParseHTML(content)
	require.NoError(t, err)
	st := state.New(reg.Schema(), doc)
	st.Selection = state.TextSelectionBetween(doc, anchor, head)
	return &fixture{reg: reg, st: st}
}

// run applies cmd and keeps the result whether or not it reported success.
func (f *fixture) run(cmd commands.Command) bool {
	tr := f.st.Tr()
	ok := cmd(tr)
	f.st = f.st.Apply(tr)
	return ok
}

func (f *fixture) html() string { return f.reg.SerializeHTML(f.st.Doc) }

func TestSplitBlock(t *testing.T) {
	cases := []struct {
		name    string
		content string
		pos     int
		want    string
	}{
		{"middle of paragraph", "<p>abcd</p>", 3, "<p>ab</p><p>cd</p>"},
		{"end of heading", "<h1>ab</h1>", 3, "<h1>ab</h1><p></p>"},
		{"middle of heading", "<h2>ab</h2>", 2, "<h2>a</h2><h2>b</h2>"},
		{"list item end", "<ul><li><p>ab</p></li></ul>", 5, "<ul><li><p>ab</p></li><li><p></p></li></ul>"},
		{"list item middle", "<ul><li><p>ab</p></li></ul>", 4, "<ul><li><p>a</p></li><li><p>b</p></li></ul>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := load(t, tc.content, tc.pos, tc.pos)
			require.True(t, f.run(commands.SplitBlock()))
			assert.Equal(t, tc.want, f.html())
		})
	}
}

func TestSplitEmptyListItemLiftsIt(t *testing.T) {
	f := load(t, "<ul><li><p>a</p></li><li><p></p></li></ul>", 8, 8)
	require.True(t, f.run(commands.SplitBlock()))
	assert.Equal(t, "<ul><li><p>a</p></li></ul><p></p>", f.html())
}

func TestToggleLists(t *testing.T) {
	f := load(t, "<p>a</p>", 1, 1)
	require.True(t, f.run(commands.ToggleBulletList()))
	assert.Equal(t, "<ul><li><p>a</p></li></ul>", f.html())
	assert.True(t, commands.IsNodeActive(f.st, "bulletList", nil))

	require.True(t, f.run(commands.ToggleOrderedList()))
	assert.Equal(t, "<ol><li><p>a</p></li></ol>", f.html())

	require.True(t, f.run(commands.ToggleOrderedList()))
	assert.Equal(t, "<p>a</p>", f.html())
}

func TestToggleListJoinsNeighbours(t *testing.T) {
	f := load(t, "<ul><li><p>a</p></li></ul><p>b</p>", 9, 9)
	require.True(t, f.run(commands.ToggleBulletList()))
	assert.Equal(t, "<ul><li><p>a</p></li><li><p>b</p></li></ul>", f.html())
}

func TestClearNodes(t *testing.T) {
	f := load(t, "<blockquote><h2>ab</h2></blockquote>", 3, 3)
	assert.True(t, f.run(commands.ClearNodes()))
	assert.Equal(t, "<p>ab</p>", f.html())

	f = load(t, "<p>ab</p>", 2, 2)
	assert.True(t, f.run(commands.ClearNodes()), "always succeeds")
	assert.Equal(t, "<p>ab</p>", f.html())
}

func TestMarksAndLinks(t *testing.T) {
	f := load(t, "<p>go here</p>", 4, 8)
	require.True(t, f.run(commands.ToggleMark("bold", nil)))
	assert.Equal(t, "<p>go <strong>here</strong></p>", f.html())
	assert.True(t, commands.IsMarkActive(f.st, "bold", nil))

	require.True(t, f.run(commands.SetLink("https://example.com", "_blank")))
	assert.True(t, commands.IsMarkActive(f.st, "link", nil))
	assert.True(t, commands.IsMarkActive(f.st, "link", map[string]any{"href": "https://example.com"}))

	// a caret inside the link removes the whole link
	f.st.Selection = state.TextSelectionBetween(f.st.Doc, 6, 6)
	require.True(t, f.run(commands.UnsetLink()))
	assert.Equal(t, "<p>go <strong>here</strong></p>", f.html())

	assert.False(t, f.run(commands.SetMark("nope", nil)))
}

func TestStoredMarksApplyToTyping(t *testing.T) {
	f := load(t, "<p>ab</p>", 3, 3)
	require.True(t, f.run(commands.ToggleMark("italic", nil)))
	assert.Equal(t, "<p>ab</p>", f.html())
	require.True(t, f.run(commands.InsertText("c")))
	assert.Equal(t, "<p>ab<em>c</em></p>", f.html())
}

func TestChainKeepsGoing(t *testing.T) {
	f := load(t, "<p>ab</p>", 3, 3)
	never := func(*state.Transaction) bool { return false }
	ok := f.run(commands.Chain(never, commands.InsertText("c")))
	assert.False(t, ok)
	assert.Equal(t, "<p>abc</p>", f.html())

	assert.True(t, f.run(commands.First(never, commands.InsertText("d"))))
	assert.Equal(t, "<p>abcd</p>", f.html())
}

func TestCanDoesNotChangeState(t *testing.T) {
	f := load(t, "<p>ab</p>", 1, 1)
	before := f.st.Doc
	assert.True(t, commands.Can(f.st, commands.SetBlockquote()))
	assert.Same(t, before, f.st.Doc)
	assert.False(t, commands.Can(f.st, commands.SetNode("nope", nil)))
}

func TestInsertContentAt(t *testing.T) {
	f := load(t, "<p>ab</p>", 1, 1)
	rule := f.reg.Schema().Nodes["horizontalRule"].Create(nil, nil, nil)
	require.True(t, f.run(commands.InsertContentAt(0, 0, rule)))
	assert.Equal(t, "<hr/><p>ab</p>", f.html())

	text := f.reg.Schema().Text("x", nil)
	require.True(t, f.run(commands.InsertContentAt(3, 3, text)))
	assert.Equal(t, "<hr/><p>axb</p>", f.html())
	assert.Equal(t, 4, f.st.Selection.From())

	assert.False(t, f.run(commands.InsertContentAt(0, 0)))
}

func TestDeleteBackwardJoinsBlocks(t *testing.T) {
	f := load(t, "<p>ab</p><p>cd</p>", 5, 5)
	require.True(t, f.run(commands.DeleteBackward()))
	assert.Equal(t, "<p>abcd</p>", f.html())
	assert.Equal(t, 3, f.st.Selection.From())

	require.True(t, f.run(commands.DeleteBackward()))
	assert.Equal(t, "<p>acd</p>", f.html())

	f = load(t, "<p>ab</p>", 1, 1)
	assert.False(t, f.run(commands.DeleteBackward()))
}

func TestMoveCaret(t *testing.T) {
	f := load(t, "<p>ab</p><p>c</p>", 3, 3)
	require.True(t, f.run(commands.MoveCaret(1, false)))
	assert.Equal(t, 5, f.st.Selection.From())

	require.True(t, f.run(commands.MoveCaret(-1, true)))
	assert.Equal(t, 5, f.st.Selection.Anchor())
	assert.Equal(t, 3, f.st.Selection.Head())
}
