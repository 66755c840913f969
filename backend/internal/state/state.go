package state

import (
	"blockEditor/backend/internal/model"
)

// EditorState is an immutable snapshot of the editor.
type EditorState struct {
	Schema      *model.Schema
	Doc         *model.Node
	Selection   Selection
	StoredMarks []*model.Mark
}

// New creates a state with the caret at the start of the document.
func New(schema *model.Schema, doc *model.Node) *EditorState {
	return &EditorState{Schema: schema, Doc: doc, Selection: AtStart(doc)}
}

// Tr starts a transaction on this state.
func (s *EditorState) Tr() *Transaction {
	return newTransaction(s)
}

// Apply returns the state produced by a transaction.
func (s *EditorState) Apply(tr *Transaction) *EditorState {
	next := &EditorState{Schema: s.Schema, Doc: tr.Doc, Selection: tr.Selection()}
	switch {
	case tr.storedMarksSet && tr.storedMarksStep == len(tr.Steps):
		next.StoredMarks = tr.storedMarks
	case tr.DocChanged() || tr.SelectionSet():
		next.StoredMarks = nil
	default:
		next.StoredMarks = s.StoredMarks
	}
	return next
}

// MarkType looks a mark type up by name.
func (s *EditorState) MarkType(name string) *model.MarkType { return s.Schema.Marks[name] }

// NodeType looks a node type up by name.
func (s *EditorState) NodeType(name string) *model.NodeType { return s.Schema.Nodes[name] }
