package delta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/state"
)

func transaction(t *testing.T, content string, from, to int, cmd commands.Command) *state.Transaction {
	t.Helper()
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	doc, err := reg.ParseHTML(content)
	require.NoError(t, err)
	st := state.New(reg.Schema(), doc)
	st.Selection = state.TextSelectionBetween(doc, from, to)
	tr := st.Tr()
	require.True(t, cmd(tr))
	return tr
}

func TestBuilderMerges(t *testing.T) {
	var d Delta
	d = d.Retain(2, nil).Retain(3, nil).Delete(1).Delete(2).Insert(0, "", nil).Retain(0, nil)
	assert.Equal(t, Delta{{Kind: KindRetain, Count: 5}, {Kind: KindDelete, Count: 3}}, d)
	assert.Equal(t, 8, d.BaseLen())
	assert.Equal(t, -3, d.Diff())

	d = d.Retain(1, map[string]any{"mark": "bold"}).Retain(1, nil)
	assert.Len(t, d, 4, "attributed retains are kept apart")
}

func TestTypingEncodesInsert(t *testing.T) {
	tr := transaction(t, "<p>ab</p>", 2, 2, commands.InsertText("x"))
	ds := FromSteps(tr.Steps)
	require.Len(t, ds, 1)
	assert.Equal(t, Delta{
		{Kind: KindRetain, Count: 2},
		{Kind: KindInsert, Count: 1, Text: "x"},
	}, ds[0])
}

func TestReplaceRangeEncodesDeleteAndMarks(t *testing.T) {
	tr := transaction(t, "<p><strong>abc</strong></p>", 2, 3, commands.InsertText("XY"))
	ds := FromSteps(tr.Steps)
	require.Len(t, ds, 1)
	assert.Equal(t, Delta{
		{Kind: KindRetain, Count: 2},
		{Kind: KindDelete, Count: 1},
		{Kind: KindInsert, Count: 2, Text: "XY", Attrs: map[string]any{"marks": []string{"bold"}}},
	}, ds[0])
}

func TestMarkStep(t *testing.T) {
	tr := transaction(t, "<p>abcd</p>", 2, 4, commands.ToggleMark("italic", nil))
	ds := FromSteps(tr.Steps)
	require.Len(t, ds, 1)
	assert.Equal(t, Delta{
		{Kind: KindRetain, Count: 2},
		{Kind: KindRetain, Count: 2, Attrs: map[string]any{"mark": "italic", "set": true}},
	}, ds[0])
	assert.Equal(t, 0, ds[0].Diff())
}

func TestStructuralStepUsesMap(t *testing.T) {
	tr := transaction(t, "<p>a</p><p>b</p>", 4, 4, commands.SetBlockquote())
	ds := FromSteps(tr.Steps)
	require.Len(t, ds, 1)
	assert.Equal(t, Delta{
		{Kind: KindRetain, Count: 3},
		{Kind: KindInsert, Count: 1},
		{Kind: KindRetain, Count: 3},
		{Kind: KindInsert, Count: 1},
	}, ds[0])
	assert.Equal(t, 2, ds[0].Diff())
}

func TestSplitEncodesBlockBoundary(t *testing.T) {
	tr := transaction(t, "<p>ab</p>", 2, 2, commands.SplitBlock())
	ds := FromSteps(tr.Steps)
	require.Len(t, ds, 1)
	assert.Equal(t, KindInsert, ds[0][1].Kind)
	assert.Equal(t, 2, ds[0][1].Count)
	assert.Equal(t, "\n", ds[0][1].Text)

	b, err := json.Marshal(ds[0])
	require.NoError(t, err)
	assert.JSONEq(t, `[{"kind":"retain","count":2},{"kind":"insert","count":2,"text":"\n"}]`, string(b))
}
