package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/model"
)

func testSchema(t *testing.T) *model.Schema {
	t.Helper()
	s, err := model.NewSchema([]*model.NodeSpec{
		{Key: "doc", Content: "block+"},
		{Key: "paragraph", Content: "inline*", Group: "block"},
		{Key: "horizontalRule", Group: "block"},
		{Key: "text", Group: "inline"},
	}, []*model.MarkSpec{{Key: "strong"}})
	require.NoError(t, err)
	return s
}

func para(s *model.Schema, text string) *model.Node {
	return s.Node("paragraph", nil, []*model.Node{s.Text(text, nil)}, nil)
}

// <p>ab</p><p>cd</p>：文本位于 1..3 与 5..7
func twoParagraphs(s *model.Schema) *model.Node {
	return s.Node("doc", nil, []*model.Node{para(s, "ab"), para(s, "cd")}, nil)
}

func TestSelectionBounds(t *testing.T) {
	s := testSchema(t)
	doc := twoParagraphs(s)

	assert.Equal(t, 1, New(s, doc).Selection.Head())
	assert.Equal(t, 7, AtEnd(doc).Head())

	sel := TextSelectionBetween(doc, 0, 100)
	assert.Equal(t, 1, sel.Anchor())
	assert.Equal(t, 7, sel.Head())
	assert.Equal(t, SelectionJSON{Type: "text", Anchor: 1, Head: 7, From: 1, To: 7}, sel.JSON())

	back := TextSelectionBetween(doc, 6, 2)
	assert.Equal(t, 2, back.From())
	assert.Equal(t, 6, back.To())
	assert.False(t, back.Empty())
}

func TestNodeSelectionMapsThroughInsert(t *testing.T) {
	s := testSchema(t)
	hr := s.Node("horizontalRule", nil, nil, nil)
	doc := s.Node("doc", nil, []*model.Node{para(s, "ab"), hr, para(s, "cd")}, nil)

	sel, ok := NewNodeSelection(doc, 4)
	require.True(t, ok)
	assert.Equal(t, 5, sel.To())
	assert.Equal(t, "horizontalRule", sel.Node().Type.Name)

	_, ok = NewNodeSelection(doc, 1)
	assert.False(t, ok, "text cannot be node-selected")

	st := &EditorState{Schema: s, Doc: doc, Selection: sel}
	tr := st.Tr()
	require.NoError(t, tr.InsertText("X", 1, 1))
	mapped, ok := tr.Selection().(*NodeSelection)
	require.True(t, ok)
	assert.Equal(t, 5, mapped.From())
}

func TestStoredMarksApplyToNextInsert(t *testing.T) {
	s := testSchema(t)
	st := New(s, twoParagraphs(s))

	tr := st.Tr()
	tr.AddStoredMark(s.Mark("strong", nil))
	st = st.Apply(tr)
	require.Len(t, st.StoredMarks, 1)

	tr = st.Tr()
	require.NoError(t, tr.InsertText("X", 1, 1))
	st = st.Apply(tr)
	first := st.Doc.Child(0).Child(0)
	assert.Equal(t, "X", first.Text)
	require.Len(t, first.Marks, 1)
	assert.Equal(t, "strong", first.Marks[0].Type.Name)
	assert.Nil(t, st.StoredMarks, "a doc change clears stored marks")
	assert.Equal(t, "Xab", st.Doc.Child(0).TextContent())
}

func TestDeleteSelectionAcrossBlocks(t *testing.T) {
	s := testSchema(t)
	st := New(s, twoParagraphs(s))
	tr := st.Tr()
	tr.SetSelection(TextSelectionBetween(st.Doc, 2, 6))
	require.NoError(t, tr.DeleteSelection())
	st = st.Apply(tr)
	assert.Equal(t, "ad", st.Doc.TextContent())
	assert.True(t, st.Selection.Empty())
	assert.Nil(t, tr.GetMeta("missing"))
}
