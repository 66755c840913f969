package model

import "fmt"

type pathEntry struct {
	node   *Node
	index  int
	offset int
}

// ResolvedPos is a position annotated with the chain of ancestors it lies
// in. Depth 0 is the document.
type ResolvedPos struct {
	Pos          int
	Depth        int
	ParentOffset int
	path         []pathEntry
}

// Resolve annotates a document position.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > n.ContentSize() {
		return nil, fmt.Errorf("position %d out of range (0..%d)", pos, n.ContentSize())
	}
	var path []pathEntry
	start := 0
	parentOffset := pos
	node := n
	for {
		index, offset, err := node.Content.FindIndex(parentOffset)
		if err != nil {
			return nil, err
		}
		rem := parentOffset - offset
		path = append(path, pathEntry{node: node, index: index, offset: start + offset})
		if rem == 0 {
			break
		}
		node = node.Child(index)
		if node.IsText() {
			break
		}
		parentOffset = rem - 1
		start += offset + 1
	}
	return &ResolvedPos{Pos: pos, Depth: len(path) - 1, ParentOffset: parentOffset, path: path}, nil
}

// Doc returns the root node the position was resolved in.
func (r *ResolvedPos) Doc() *Node { return r.path[0].node }

// Parent is the innermost node containing the position.
func (r *ResolvedPos) Parent() *Node { return r.Node(r.Depth) }

// Node returns the ancestor at the given depth.
func (r *ResolvedPos) Node(depth int) *Node { return r.path[depth].node }

// Index returns the child index in the ancestor at depth.
func (r *ResolvedPos) Index(depth int) int { return r.path[depth].index }

// IndexAfter is the index pointing after this position in the ancestor.
func (r *ResolvedPos) IndexAfter(depth int) int {
	if depth == r.Depth && r.TextOffset() == 0 {
		return r.Index(depth)
	}
	return r.Index(depth) + 1
}

// Start is the position where the ancestor's content starts.
func (r *ResolvedPos) Start(depth int) int {
	if depth == 0 {
		return 0
	}
	return r.path[depth-1].offset + 1
}

// End is the position where the ancestor's content ends.
func (r *ResolvedPos) End(depth int) int {
	return r.Start(depth) + r.Node(depth).ContentSize()
}

// Before is the position directly before the ancestor at depth (>= 1).
func (r *ResolvedPos) Before(depth int) int {
	if depth == r.Depth+1 {
		return r.Pos
	}
	return r.path[depth-1].offset
}

// After is the position directly after the ancestor at depth (>= 1).
func (r *ResolvedPos) After(depth int) int {
	if depth == r.Depth+1 {
		return r.Pos
	}
	return r.path[depth-1].offset + r.path[depth].node.NodeSize()
}

// TextOffset is the offset into the text node the position points into, or
// zero when it points between nodes.
func (r *ResolvedPos) TextOffset() int {
	return r.Pos - r.path[len(r.path)-1].offset
}

// NodeAfter returns the node (or the part of a text node) after the position.
func (r *ResolvedPos) NodeAfter() *Node {
	parent := r.Parent()
	index := r.Index(r.Depth)
	if index == parent.ChildCount() {
		return nil
	}
	dOff := r.TextOffset()
	child := parent.Child(index)
	if dOff > 0 {
		return child.Cut(dOff, child.NodeSize())
	}
	return child
}

// NodeBefore returns the node (or the part of a text node) before the
// position.
func (r *ResolvedPos) NodeBefore() *Node {
	parent := r.Parent()
	index := r.Index(r.Depth)
	dOff := r.TextOffset()
	if dOff > 0 {
		return parent.Child(index).Cut(0, dOff)
	}
	if index == 0 {
		return nil
	}
	return parent.Child(index - 1)
}

// PosAtIndex returns the position of the child at index in the ancestor at
// depth.
func (r *ResolvedPos) PosAtIndex(index, depth int) int {
	node := r.Node(depth)
	pos := r.Start(depth)
	for i := 0; i < index && i < node.ChildCount(); i++ {
		pos += node.Child(i).NodeSize()
	}
	return pos
}

// Marks returns the marks that text inserted at this position would get.
// Non-inclusive marks are only kept when the text after carries them too.
func (r *ResolvedPos) Marks() []*Mark {
	parent := r.Parent()
	index := r.Index(r.Depth)
	if parent.ContentSize() == 0 {
		return nil
	}
	if r.TextOffset() > 0 {
		return parent.Child(index).Marks
	}
	main, other := parent.MaybeChild(index-1), parent.MaybeChild(index)
	if main == nil {
		main, other = other, main
	}
	var out []*Mark
	for _, m := range main.Marks {
		if !m.Type.Inclusive() && (other == nil || !m.IsInSet(other.Marks)) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// MarksAcross returns the marks that should be kept when replacing the range
// up to end with text.
func (r *ResolvedPos) MarksAcross(end *ResolvedPos) []*Mark {
	after := r.Parent().MaybeChild(r.Index(r.Depth))
	if after == nil || !after.IsInline() {
		return nil
	}
	next := end.Parent().MaybeChild(end.Index(end.Depth))
	var out []*Mark
	for _, m := range after.Marks {
		if !m.Type.Inclusive() && (next == nil || !m.IsInSet(next.Marks)) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SharedDepth is the depth of the deepest ancestor that also contains pos.
func (r *ResolvedPos) SharedDepth(pos int) int {
	for depth := r.Depth; depth > 0; depth-- {
		if r.Start(depth) <= pos && r.End(depth) >= pos {
			return depth
		}
	}
	return 0
}

// BlockRange returns the range of sibling blocks around this position and
// other, at the deepest depth where both share a block parent. pred may
// restrict the parent node.
func (r *ResolvedPos) BlockRange(other *ResolvedPos, pred func(*Node) bool) *NodeRange {
	if other.Pos < r.Pos {
		return other.BlockRange(r, pred)
	}
	d := r.Depth
	if r.Parent().InlineContent() || r.Pos == other.Pos {
		d--
	}
	for ; d >= 0; d-- {
		if other.Pos <= r.End(d) && (pred == nil || pred(r.Node(d))) {
			return &NodeRange{From: r, To: other, Depth: d}
		}
	}
	return nil
}

// NodeRange is a flat range of siblings at Depth.
type NodeRange struct {
	From  *ResolvedPos
	To    *ResolvedPos
	Depth int
}

func (nr *NodeRange) Start() int { return nr.From.Before(nr.Depth + 1) }

func (nr *NodeRange) End() int { return nr.To.After(nr.Depth + 1) }

func (nr *NodeRange) Parent() *Node { return nr.From.Node(nr.Depth) }

func (nr *NodeRange) StartIndex() int { return nr.From.Index(nr.Depth) }

func (nr *NodeRange) EndIndex() int { return nr.To.IndexAfter(nr.Depth) }
