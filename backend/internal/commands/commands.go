// Package commands holds the editing commands shared by the menus, the
// keymap and node descriptors. A command edits a transaction in place and
// reports whether it applied.
package commands

import (
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

// Command edits tr and reports success. A command that returns false may
// still have added steps; callers that need all-or-nothing check Can first.
type Command func(tr *state.Transaction) bool

// Chain runs commands in order on the same transaction. It reports whether
// every command succeeded; later commands run even when earlier ones fail.
func Chain(cmds ...Command) Command {
	return func(tr *state.Transaction) bool {
		ok := true
		for _, cmd := range cmds {
			if !cmd(tr) {
				ok = false
			}
		}
		return ok
	}
}

// First runs commands until one succeeds.
func First(cmds ...Command) Command {
	return func(tr *state.Transaction) bool {
		for _, cmd := range cmds {
			if cmd(tr) {
				return true
			}
		}
		return false
	}
}

// Can reports whether cmd would apply to st, without changing anything.
func Can(st *state.EditorState, cmd Command) bool {
	return cmd(st.Tr())
}

// canOn is Can against the current document and selection of a transaction.
func canOn(tr *state.Transaction, cmd Command) bool {
	probe := &state.EditorState{Schema: tr.Doc.Type.Schema, Doc: tr.Doc, Selection: tr.Selection(), StoredMarks: tr.StoredMarks()}
	return Can(probe, cmd)
}

// DeleteRange deletes the range between from and to.
func DeleteRange(from, to int) Command {
	return func(tr *state.Transaction) bool {
		return tr.DeleteRange(from, to) == nil
	}
}

// DeleteSelection deletes the selected content.
func DeleteSelection() Command {
	return func(tr *state.Transaction) bool {
		if tr.Selection().Empty() {
			return false
		}
		return tr.DeleteSelection() == nil
	}
}

// InsertText types text over the selection.
func InsertText(text string) Command {
	return func(tr *state.Transaction) bool {
		sel := tr.Selection()
		if _, ok := sel.(*state.NodeSelection); ok {
			return false
		}
		if !sel.ResolvedFrom().Parent().InlineContent() {
			return false
		}
		return tr.InsertText(text, sel.From(), sel.To()) == nil
	}
}

// InsertTextAt replaces the range with text.
func InsertTextAt(text string, from, to int) Command {
	return func(tr *state.Transaction) bool {
		return tr.InsertText(text, from, to) == nil
	}
}

// SetTextSelection moves the selection.
func SetTextSelection(anchor, head int) Command {
	return func(tr *state.Transaction) bool {
		tr.SetSelection(state.TextSelectionBetween(tr.Doc, anchor, head))
		return true
	}
}

// SetNodeSelection selects the node at pos.
func SetNodeSelection(pos int) Command {
	return func(tr *state.Transaction) bool {
		sel, ok := state.NewNodeSelection(tr.Doc, pos)
		if !ok {
			return false
		}
		tr.SetSelection(sel)
		return true
	}
}

// SelectAll selects all text in the document.
func SelectAll() Command {
	return func(tr *state.Transaction) bool {
		tr.SetSelection(state.TextSelectionBetween(tr.Doc, state.AtStart(tr.Doc).From(), state.AtEnd(tr.Doc).To()))
		return true
	}
}

// parentNode is an ancestor found by findParentNode.
type parentNode struct {
	pos   int
	start int
	depth int
	node  *model.Node
}

func findParentNode(rPos *model.ResolvedPos, pred func(*model.Node) bool) *parentNode {
	for d := rPos.Depth; d > 0; d-- {
		node := rPos.Node(d)
		if pred(node) {
			return &parentNode{pos: rPos.Before(d), start: rPos.Start(d), depth: d, node: node}
		}
	}
	return nil
}

func nodeType(tr *state.Transaction, name string) *model.NodeType {
	return tr.Doc.Type.Schema.Nodes[name]
}

func childTypes(node *model.Node, upTo int) []*model.NodeType {
	types := make([]*model.NodeType, 0, upTo)
	for i := 0; i < upTo && i < node.ChildCount(); i++ {
		types = append(types, node.Child(i).Type)
	}
	return types
}

func attrsInclude(have, want map[string]any) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
