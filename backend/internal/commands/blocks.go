package commands

import (
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
	"blockEditor/backend/internal/transform"
)

// IsNodeActive reports whether the selection sits in (or fully covers)
// nodes of the named type whose attributes include attrs.
func IsNodeActive(st *state.EditorState, name string, attrs map[string]any) bool {
	return nodeActive(st.Doc, st.Selection, name, attrs)
}

func nodeActive(doc *model.Node, sel state.Selection, name string, attrs map[string]any) bool {
	from, to := sel.From(), sel.To()
	matched, found := 0, false
	doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if node.IsText() {
			return true
		}
		if node.Type.Name == name && attrsInclude(node.Attrs, attrs) {
			found = true
			matched += min(to, pos+node.NodeSize()) - max(from, pos)
		}
		return true
	})
	if sel.Empty() {
		return found
	}
	return matched >= to-from
}

func canSetBlockType(doc *model.Node, sel state.Selection, nt *model.NodeType, attrs map[string]any) bool {
	applicable := false
	doc.NodesBetween(sel.From(), sel.To(), func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if applicable {
			return false
		}
		if !node.IsTextblock() || node.HasMarkup(nt, attrs, node.Marks) {
			return true
		}
		if node.Type == nt {
			applicable = true
			return false
		}
		rPos, err := doc.Resolve(pos)
		if err != nil {
			return false
		}
		index := rPos.Index(rPos.Depth)
		applicable = rPos.Parent().CanReplaceWith(index, index+1, nt)
		return false
	})
	return applicable
}

func setBlockType(name string, attrs map[string]any) Command {
	return func(tr *state.Transaction) bool {
		nt := nodeType(tr, name)
		if nt == nil || !canSetBlockType(tr.Doc, tr.Selection(), nt, attrs) {
			return false
		}
		sel := tr.Selection()
		return tr.SetBlockType(sel.From(), sel.To(), nt, attrs) == nil
	}
}

// SetNode turns the textblocks in the selection into the named type. When
// that is not possible in place (a paragraph inside a list, say) the
// surrounding nodes are cleared first.
func SetNode(name string, attrs map[string]any) Command {
	return func(tr *state.Transaction) bool {
		nt := nodeType(tr, name)
		if nt == nil || !nt.IsTextblock() {
			return false
		}
		if !canSetBlockType(tr.Doc, tr.Selection(), nt, attrs) {
			if !ClearNodes()(tr) {
				return false
			}
		}
		return setBlockType(name, attrs)(tr)
	}
}

// ToggleNode sets the named type, or toggleName when it is already active.
func ToggleNode(name, toggleName string, attrs map[string]any) Command {
	return func(tr *state.Transaction) bool {
		if nodeActive(tr.Doc, tr.Selection(), name, attrs) {
			return SetNode(toggleName, nil)(tr)
		}
		return SetNode(name, attrs)(tr)
	}
}

// SetCodeBlock turns the selection into a code block.
func SetCodeBlock(attrs map[string]any) Command {
	return SetNode("codeBlock", attrs)
}

// ClearNodes lifts the selected blocks out of their wrappers and turns
// textblocks into the default block type of their parent.
func ClearNodes() Command {
	return func(tr *state.Transaction) bool {
		sel := tr.Selection()
		doc := tr.Doc
		mapFrom := len(tr.Steps)
		doc.NodesBetween(sel.From(), sel.To(), func(node *model.Node, pos int, _ *model.Node, _ int) bool {
			if node.IsText() {
				return true
			}
			mapping := tr.Mapping.Slice(mapFrom)
			r := blockRangeAt(tr.Doc, mapping.Map(pos, 1), mapping.Map(pos+node.NodeSize(), 1))
			if r == nil {
				return true
			}
			target := transform.LiftTarget(r)
			if node.IsTextblock() {
				parent := r.From.Node(r.Depth)
				def := parent.Type.DefaultTypeAt(childTypes(parent, r.StartIndex()))
				if def != nil {
					_ = tr.SetNodeMarkup(r.Start(), def, nil)
				}
				mapping = tr.Mapping.Slice(mapFrom)
				if r = blockRangeAt(tr.Doc, mapping.Map(pos, 1), mapping.Map(pos+node.NodeSize(), 1)); r == nil {
					return true
				}
			}
			if target >= 0 {
				_ = tr.Lift(r, target)
			}
			return true
		})
		return true
	}
}

func blockRangeAt(doc *model.Node, from, to int) *model.NodeRange {
	rFrom, err := doc.Resolve(from)
	if err != nil {
		return nil
	}
	rTo, err := doc.Resolve(to)
	if err != nil {
		return nil
	}
	return rFrom.BlockRange(rTo, nil)
}

// WrapIn wraps the selected blocks in a node of the named type.
func WrapIn(name string, attrs map[string]any) Command {
	return func(tr *state.Transaction) bool {
		nt := nodeType(tr, name)
		if nt == nil {
			return false
		}
		sel := tr.Selection()
		r := sel.ResolvedFrom().BlockRange(sel.ResolvedTo(), nil)
		if r == nil {
			return false
		}
		wrappers := transform.FindWrapping(r, nt, attrs)
		if wrappers == nil {
			return false
		}
		return tr.Wrap(r, wrappers) == nil
	}
}

// SetBlockquote wraps the selection in a blockquote.
func SetBlockquote() Command {
	return WrapIn("blockquote", nil)
}
