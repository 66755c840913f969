package transform

import (
	"errors"

	"blockEditor/backend/internal/model"
)

var (
	errNoNodeAt      = errors.New("no node at position")
	errInvalidMarkup = errors.New("invalid content for node type")
)

func canCut(node *model.Node, start, end int) bool {
	return (start == 0 || node.CanReplace(start, node.ChildCount(), nil)) &&
		(end == node.ChildCount() || node.CanReplace(0, end, nil))
}

// LiftTarget returns the depth the range can be lifted to, or -1.
func LiftTarget(r *model.NodeRange) int {
	parent := r.Parent()
	content := parent.Content.CutByIndex(r.StartIndex(), r.EndIndex())
	for depth := r.Depth; ; depth-- {
		node := r.From.Node(depth)
		index, endIndex := r.From.Index(depth), r.To.IndexAfter(depth)
		if depth < r.Depth && node.CanReplace(index, endIndex, content) {
			return depth
		}
		if depth == 0 || node.Type.Spec.Isolating || !canCut(node, index, endIndex) {
			break
		}
	}
	return -1
}

// FindWrapping returns the wrappers needed to wrap the range in a node of
// type nt, with at most one inner wrapper (a list item inside a list), or
// nil when the range cannot be wrapped.
func FindWrapping(r *model.NodeRange, nt *model.NodeType, attrs map[string]any) []Wrapper {
	parent := r.Parent()
	if !parent.CanReplaceWith(r.StartIndex(), r.EndIndex(), nt) {
		return nil
	}
	var types []*model.NodeType
	for i := r.StartIndex(); i < r.EndIndex(); i++ {
		types = append(types, parent.Child(i).Type)
	}
	if nt.ValidTypes(types) {
		return []Wrapper{{Type: nt, Attrs: attrs}}
	}
	for _, inner := range nt.Schema.NodeTypes() {
		if inner.IsLeaf() || !nt.ValidTypes([]*model.NodeType{inner}) {
			continue
		}
		if inner.ValidTypes(types) {
			return []Wrapper{{Type: nt, Attrs: attrs}, {Type: inner}}
		}
	}
	return nil
}

// CanSplit reports whether the node at pos can be split depth levels up.
func CanSplit(doc *model.Node, pos, depth int) bool {
	rPos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	base := rPos.Depth - depth
	parent := rPos.Parent()
	index := rPos.Index(rPos.Depth)
	if base < 0 || parent.Type.Spec.Isolating ||
		!parent.CanReplace(index, parent.ChildCount(), nil) ||
		!parent.Type.ValidContent(parent.Content.CutByIndex(index, parent.ChildCount())) {
		return false
	}
	for d := rPos.Depth - 1; d > base; d-- {
		node := rPos.Node(d)
		index := rPos.Index(d)
		if node.Type.Spec.Isolating {
			return false
		}
		rest := node.Content.CutByIndex(index, node.ChildCount())
		if !node.CanReplace(index+1, node.ChildCount(), nil) || !node.Type.ValidContent(rest) {
			return false
		}
	}
	after := rPos.IndexAfter(base)
	return rPos.Node(base).CanReplaceWith(after, after, rPos.Node(base+1).Type)
}

// CanJoin reports whether the blocks around pos can be joined.
func CanJoin(doc *model.Node, pos int) bool {
	rPos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := rPos.Index(rPos.Depth)
	before, after := rPos.NodeBefore(), rPos.NodeAfter()
	return joinableNodes(before, after) && rPos.Parent().CanReplace(index, index+1, nil)
}

func joinableNodes(a, b *model.Node) bool {
	return a != nil && b != nil && !a.IsLeaf() && a.CanAppend(b)
}
