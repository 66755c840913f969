package commands

import (
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

// InsertContent replaces the selection with nodes.
func InsertContent(nodes ...*model.Node) Command {
	return func(tr *state.Transaction) bool {
		sel := tr.Selection()
		return InsertContentAt(sel.From(), sel.To(), nodes...)(tr)
	}
}

// InsertContentAt replaces the range with nodes and puts the selection at
// the end of the inserted content. Block content dropped into an empty
// textblock replaces that textblock; dropped into a non-empty one it lands
// before, after or between the split halves.
func InsertContentAt(from, to int, nodes ...*model.Node) Command {
	return func(tr *state.Transaction) bool {
		if len(nodes) == 0 {
			return false
		}
		inline := true
		for _, n := range nodes {
			if !n.IsInline() {
				inline = false
			}
		}
		if inline {
			rFrom, err := tr.Doc.Resolve(from)
			if err == nil && rFrom.Parent().InlineContent() {
				if err := tr.ReplaceWith(from, to, nodes...); err != nil {
					return false
				}
				selectInsertionEnd(tr)
				return true
			}
			para := tr.Doc.Type.Schema.Nodes["paragraph"]
			if para == nil {
				return false
			}
			nodes = []*model.Node{para.Create(nil, model.NewFragment(nodes...), nil)}
		}
		if _, ok := insertBlocksAt(tr, from, to, nodes); !ok {
			return false
		}
		selectInsertionEnd(tr)
		return true
	}
}

// insertBlocksAt inserts block nodes around the textblock at from and
// returns the position of the first inserted node.
func insertBlocksAt(tr *state.Transaction, from, to int, nodes []*model.Node) (int, bool) {
	if from < to {
		if blockRange(tr.Doc, from, to) && tr.ReplaceWith(from, to, nodes...) == nil {
			return from, true
		}
		mapFrom := len(tr.Steps)
		if err := tr.DeleteRange(from, to); err != nil {
			return 0, false
		}
		from = tr.Mapping.Slice(mapFrom).Map(from, -1)
	}
	rFrom, err := tr.Doc.Resolve(from)
	if err != nil {
		return 0, false
	}
	tb := rFrom.Parent()
	if !tb.IsTextblock() || rFrom.Depth == 0 {
		return from, tr.Insert(from, nodes...) == nil
	}
	d := rFrom.Depth
	switch {
	case tb.ContentSize() == 0:
		start := rFrom.Before(d)
		if tr.ReplaceWith(start, start+tb.NodeSize(), nodes...) == nil {
			return start, true
		}
		return 0, false
	case rFrom.ParentOffset == tb.ContentSize():
		pos := rFrom.After(d)
		return pos, tr.Insert(pos, nodes...) == nil
	case rFrom.ParentOffset == 0:
		pos := rFrom.Before(d)
		return pos, tr.Insert(pos, nodes...) == nil
	}
	if err := tr.Split(from, 1, nil); err != nil {
		return 0, false
	}
	return from + 1, tr.Insert(from+1, nodes...) == nil
}

// selectInsertionEnd puts the selection near the end of the content added by
// the last step.
func selectInsertionEnd(tr *state.Transaction) {
	maps := tr.Mapping.Maps()
	if len(maps) == 0 {
		return
	}
	end := -1
	maps[len(maps)-1].ForEach(func(_, _, _, newEnd int) {
		if end < 0 {
			end = newEnd
		}
	})
	if end < 0 {
		return
	}
	rEnd, err := tr.Doc.Resolve(end)
	if err != nil {
		return
	}
	tr.SetSelection(state.Near(rEnd, -1))
}

// SetHorizontalRule inserts a divider and makes sure a textblock follows it
// so the caret has somewhere to go.
func SetHorizontalRule() Command {
	return func(tr *state.Transaction) bool {
		schema := tr.Doc.Type.Schema
		hrType := schema.Nodes["horizontalRule"]
		if hrType == nil {
			return false
		}
		hr := hrType.Create(nil, nil, nil)
		sel := tr.Selection()
		rTo := sel.ResolvedTo()

		hrPos, ok := -1, false
		if sel.Empty() && rTo.ParentOffset == 0 && rTo.Parent().IsTextblock() && rTo.Depth >= 1 {
			pos := rTo.Before(rTo.Depth)
			if tr.Insert(pos, hr) == nil {
				hrPos, ok = pos, true
			}
		}
		if !ok {
			if hrPos, ok = insertBlocksAt(tr, sel.From(), sel.To(), []*model.Node{hr}); !ok {
				return false
			}
		}

		after := hrPos + hr.NodeSize()
		if next := tr.Doc.NodeAt(after); next == nil || !next.IsTextblock() {
			para := schema.Nodes["paragraph"]
			if err := tr.Insert(after, para.Create(nil, nil, nil)); err != nil {
				return true
			}
		}
		rNext, err := tr.Doc.Resolve(after + 1)
		if err == nil {
			tr.SetSelection(state.Near(rNext, 1))
		}
		return true
	}
}

// blockRange reports whether from and to sit between block children of the
// same parent, as they do around a selected block node.
func blockRange(doc *model.Node, from, to int) bool {
	rFrom, err := doc.Resolve(from)
	if err != nil {
		return false
	}
	rTo, err := doc.Resolve(to)
	if err != nil {
		return false
	}
	return rFrom.Depth == rTo.Depth && rFrom.Parent() == rTo.Parent() && !rFrom.Parent().InlineContent()
}
