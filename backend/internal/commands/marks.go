package commands

import (
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

// IsMarkActive reports whether the selection is fully covered by a mark of
// the named type. For a caret it checks the stored marks or the marks at
// the caret.
func IsMarkActive(st *state.EditorState, name string, attrs map[string]any) bool {
	mt := st.MarkType(name)
	if mt == nil {
		return false
	}
	return markActive(st.Doc, st.Selection, st.StoredMarks, mt, attrs)
}

func markActive(doc *model.Node, sel state.Selection, stored []*model.Mark, mt *model.MarkType, attrs map[string]any) bool {
	if sel.Empty() {
		marks := stored
		if marks == nil {
			marks = sel.ResolvedFrom().Marks()
		}
		m := mt.IsInSet(marks)
		return m != nil && attrsInclude(m.Attrs, attrs)
	}
	from, to := sel.From(), sel.To()
	selectionRange, matched := 0, 0
	doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if !node.IsText() && len(node.Marks) == 0 {
			return true
		}
		span := min(to, pos+node.NodeSize()) - max(from, pos)
		selectionRange += span
		if m := mt.IsInSet(node.Marks); m != nil && attrsInclude(m.Attrs, attrs) {
			matched += span
		}
		return true
	})
	return selectionRange > 0 && matched >= selectionRange
}

// MarkRange returns the extent of the mark of type mt around rPos.
func MarkRange(rPos *model.ResolvedPos, mt *model.MarkType) (from, to int, ok bool) {
	parent := rPos.Parent()
	index, offset, err := parent.Content.FindIndex(rPos.ParentOffset)
	if err != nil {
		return 0, 0, false
	}
	child := parent.MaybeChild(index)
	if child == nil || mt.IsInSet(child.Marks) == nil {
		if rPos.ParentOffset == 0 {
			return 0, 0, false
		}
		if offset >= rPos.ParentOffset {
			index--
			child = parent.MaybeChild(index)
			if child == nil {
				return 0, 0, false
			}
			offset -= child.NodeSize()
		}
	}
	mark := mt.IsInSet(child.Marks)
	if mark == nil {
		return 0, 0, false
	}
	start := rPos.Start(rPos.Depth) + offset
	end := start + child.NodeSize()
	for i := index - 1; i >= 0 && mark.IsInSet(parent.Child(i).Marks); i-- {
		start -= parent.Child(i).NodeSize()
	}
	for i := index + 1; i < parent.ChildCount() && mark.IsInSet(parent.Child(i).Marks); i++ {
		end += parent.Child(i).NodeSize()
	}
	return start, end, true
}

func canSetMark(tr *state.Transaction, mt *model.MarkType) bool {
	sel := tr.Selection()
	if sel.Empty() {
		return sel.ResolvedFrom().Parent().Type.AllowsMarkType(mt)
	}
	allowed := false
	tr.Doc.NodesBetween(sel.From(), sel.To(), func(node *model.Node, _ int, parent *model.Node, _ int) bool {
		if allowed {
			return false
		}
		if node.IsInline() && parent != nil && parent.Type.AllowsMarkType(mt) {
			allowed = true
		}
		return true
	})
	return allowed
}

// SetMark adds a mark over the selection, or to the stored marks for a
// caret.
func SetMark(name string, attrs map[string]any) Command {
	return func(tr *state.Transaction) bool {
		mt := tr.Doc.Type.Schema.Marks[name]
		if mt == nil || !canSetMark(tr, mt) {
			return false
		}
		sel := tr.Selection()
		if sel.Empty() {
			tr.AddStoredMark(mt.Create(attrs))
			return true
		}
		return tr.AddMark(sel.From(), sel.To(), mt.Create(attrs)) == nil
	}
}

// UnsetMark removes a mark from the selection. With extendEmpty a caret
// removes the whole mark range around it.
func UnsetMark(name string, extendEmpty bool) Command {
	return func(tr *state.Transaction) bool {
		mt := tr.Doc.Type.Schema.Marks[name]
		if mt == nil {
			return false
		}
		sel := tr.Selection()
		from, to := sel.From(), sel.To()
		if sel.Empty() && extendEmpty {
			if start, end, ok := MarkRange(sel.ResolvedFrom(), mt); ok {
				from, to = start, end
			}
		}
		if err := tr.RemoveMark(from, to, mt); err != nil {
			return false
		}
		tr.RemoveStoredMark(mt)
		return true
	}
}

// ToggleMark removes the mark when the selection is fully covered by it and
// adds it across the whole selection otherwise.
func ToggleMark(name string, attrs map[string]any) Command {
	return func(tr *state.Transaction) bool {
		mt := tr.Doc.Type.Schema.Marks[name]
		if mt == nil {
			return false
		}
		if markActive(tr.Doc, tr.Selection(), tr.StoredMarks(), mt, attrs) {
			return UnsetMark(name, false)(tr)
		}
		return SetMark(name, attrs)(tr)
	}
}

// SetLink applies a link mark over the selection.
func SetLink(href, target string) Command {
	return SetMark("link", map[string]any{"href": href, "target": target})
}

// UnsetLink removes the link around the selection.
func UnsetLink() Command {
	return UnsetMark("link", true)
}
