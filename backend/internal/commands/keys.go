package commands

import (
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
	"blockEditor/backend/internal/transform"
)

// SplitBlock splits the textblock at the caret (Enter). Code blocks get a
// newline, list items split into a new item and an empty item is lifted out
// of its list. Splitting at the end of a heading starts a paragraph.
func SplitBlock() Command {
	return func(tr *state.Transaction) bool {
		if _, ok := tr.Selection().(*state.NodeSelection); ok {
			return false
		}
		if !tr.Selection().Empty() {
			if err := tr.DeleteSelection(); err != nil {
				return false
			}
		}
		rPos := tr.Selection().ResolvedFrom()
		parent := rPos.Parent()
		if !parent.IsTextblock() || rPos.Depth == 0 {
			return false
		}
		if parent.Type.IsCode() {
			return tr.InsertText("\n", rPos.Pos, rPos.Pos) == nil
		}
		atEnd := rPos.ParentOffset == parent.ContentSize()

		if rPos.Depth >= 2 && rPos.Node(rPos.Depth-1).Type.Name == "listItem" {
			if parent.ContentSize() == 0 {
				return LiftListItem("listItem")(tr)
			}
			types := []*model.NodeType{nil, nil}
			if atEnd {
				types[1] = tr.Doc.Type.Schema.Nodes["paragraph"]
			}
			if !transform.CanSplit(tr.Doc, rPos.Pos, 2) {
				return false
			}
			return tr.Split(rPos.Pos, 2, types) == nil
		}

		var types []*model.NodeType
		if atEnd {
			container := rPos.Node(rPos.Depth - 1)
			if def := container.Type.DefaultTypeAt(childTypes(container, rPos.IndexAfter(rPos.Depth-1))); def != nil {
				types = []*model.NodeType{def}
			}
		}
		if !transform.CanSplit(tr.Doc, rPos.Pos, 1) {
			return false
		}
		return tr.Split(rPos.Pos, 1, types) == nil
	}
}

// DeleteBackward handles Backspace: it deletes the selection, the character
// or inline node before the caret, or joins the block with the one before.
func DeleteBackward() Command {
	return func(tr *state.Transaction) bool {
		sel := tr.Selection()
		if !sel.Empty() {
			return tr.DeleteSelection() == nil
		}
		rPos := sel.ResolvedFrom()
		if rPos.ParentOffset > 0 {
			before := rPos.NodeBefore()
			size := 1
			if before != nil && !before.IsText() {
				size = before.NodeSize()
			}
			return tr.Delete(rPos.Pos-size, rPos.Pos) == nil
		}
		if rPos.Depth >= 2 && rPos.Node(rPos.Depth-1).Type.Name == "listItem" && rPos.Index(rPos.Depth-1) == 0 {
			return LiftListItem("listItem")(tr)
		}
		return JoinBackward()(tr)
	}
}

// DeleteForward handles Delete at the caret.
func DeleteForward() Command {
	return func(tr *state.Transaction) bool {
		sel := tr.Selection()
		if !sel.Empty() {
			return tr.DeleteSelection() == nil
		}
		rPos := sel.ResolvedFrom()
		if rPos.ParentOffset < rPos.Parent().ContentSize() {
			after := rPos.NodeAfter()
			size := 1
			if after != nil && !after.IsText() {
				size = after.NodeSize()
			}
			return tr.Delete(rPos.Pos, rPos.Pos+size) == nil
		}
		next := state.Near(mustResolve(tr.Doc, min(rPos.After(rPos.Depth), tr.Doc.ContentSize())), 1)
		if next.From() <= rPos.Pos {
			return false
		}
		if _, ok := next.(*state.NodeSelection); ok {
			return tr.Delete(next.From(), next.To()) == nil
		}
		return joinAt(tr, next.ResolvedFrom())
	}
}

// JoinBackward joins the textblock at the caret with the block before it.
// An atom before it is deleted instead; an empty block disappears.
func JoinBackward() Command {
	return func(tr *state.Transaction) bool {
		sel := tr.Selection()
		rPos := sel.ResolvedFrom()
		if !sel.Empty() || rPos.ParentOffset > 0 || rPos.Depth == 0 {
			return false
		}
		return joinAt(tr, rPos)
	}
}

// joinAt merges the textblock starting at rPos into the closest textblock
// before it.
func joinAt(tr *state.Transaction, rPos *model.ResolvedPos) bool {
	cut := -1
	for d := rPos.Depth - 1; d >= 0; d-- {
		if rPos.Index(d) > 0 {
			cut = rPos.Before(d + 1)
			break
		}
	}
	if cut < 0 {
		r := rPos.BlockRange(rPos, nil)
		if r == nil {
			return false
		}
		target := transform.LiftTarget(r)
		if target < 0 {
			return false
		}
		return tr.Lift(r, target) == nil
	}
	rCut := mustResolve(tr.Doc, cut)
	before := rCut.NodeBefore()
	if before == nil {
		return false
	}
	if before.IsAtom() {
		return tr.Delete(cut-before.NodeSize(), cut) == nil
	}
	if rPos.Parent().ContentSize() == 0 && rPos.Depth == rCut.Depth+1 {
		if err := tr.Delete(cut, rPos.After(rPos.Depth)); err != nil {
			return false
		}
		prev := state.Near(mustResolve(tr.Doc, cut), -1)
		tr.SetSelection(state.TextSelectionBetween(tr.Doc, prev.To(), prev.To()))
		return true
	}
	prev := state.Near(mustResolve(tr.Doc, cut), -1)
	prevEnd := prev.To()
	rPrev := prev.ResolvedTo()
	if !rPrev.Parent().IsTextblock() {
		return false
	}
	if err := tr.Delete(prevEnd, rPos.Pos); err != nil {
		// The blocks sit at different depths: move the inline content over
		// and drop the emptied block with any wrappers it leaves empty.
		d := rPos.Depth
		for d > 1 && rPos.Node(d-1).ChildCount() == 1 {
			d--
		}
		content := rPos.Parent().Content.Children()
		if err := tr.Delete(rPos.Before(d), rPos.After(d)); err != nil {
			return false
		}
		if len(content) > 0 {
			if err := tr.Insert(prevEnd, content...); err != nil {
				return false
			}
		}
	}
	tr.SetSelection(state.TextSelectionBetween(tr.Doc, prevEnd, prevEnd))
	return true
}

// MoveCaret moves or collapses the selection by one position.
func MoveCaret(dir int, extend bool) Command {
	return func(tr *state.Transaction) bool {
		sel := tr.Selection()
		if !sel.Empty() && !extend {
			pos := sel.From()
			if dir > 0 {
				pos = sel.To()
			}
			tr.SetSelection(state.TextSelectionBetween(tr.Doc, pos, pos))
			return true
		}
		head := sel.Head()
		target := head + dir
		if target < 0 || target > tr.Doc.ContentSize() {
			return false
		}
		next := state.Near(mustResolve(tr.Doc, target), dir)
		newHead := next.Head()
		if ns, ok := next.(*state.NodeSelection); ok {
			if !extend {
				tr.SetSelection(ns)
				return true
			}
			newHead = ns.From()
			if dir < 0 {
				newHead = ns.To()
			}
		}
		if !extend {
			tr.SetSelection(state.TextSelectionBetween(tr.Doc, newHead, newHead))
			return true
		}
		tr.SetSelection(state.TextSelectionBetween(tr.Doc, sel.Anchor(), newHead))
		return true
	}
}

func mustResolve(doc *model.Node, pos int) *model.ResolvedPos {
	r, err := doc.Resolve(max(0, min(pos, doc.ContentSize())))
	if err != nil {
		panic(err)
	}
	return r
}
