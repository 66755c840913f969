package model

import (
	"errors"
)

var errPositionOutOfRange = errors.New("position out of range")

// Fragment is an immutable ordered list of child nodes with a cached size.
type Fragment struct {
	content []*Node
	size    int
}

// EmptyFragment has no children.
var EmptyFragment = &Fragment{}

// NewFragment builds a fragment, dropping nil nodes and joining adjacent text
// nodes that share marks.
func NewFragment(nodes ...*Node) *Fragment {
	if len(nodes) == 0 {
		return EmptyFragment
	}
	out := make([]*Node, 0, len(nodes))
	size := 0
	for _, n := range nodes {
		if n == nil || (n.IsText() && n.Text == "") {
			continue
		}
		size += n.NodeSize()
		if last := len(out) - 1; last >= 0 && n.IsText() && out[last].IsText() && out[last].SameMarkup(n) {
			out[last] = out[last].WithText(out[last].Text + n.Text)
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return EmptyFragment
	}
	return &Fragment{content: out, size: size}
}

func (f *Fragment) Size() int { return f.size }

func (f *Fragment) ChildCount() int { return len(f.content) }

func (f *Fragment) Child(i int) *Node { return f.content[i] }

func (f *Fragment) MaybeChild(i int) *Node {
	if i < 0 || i >= len(f.content) {
		return nil
	}
	return f.content[i]
}

func (f *Fragment) FirstChild() *Node { return f.MaybeChild(0) }

func (f *Fragment) LastChild() *Node { return f.MaybeChild(len(f.content) - 1) }

// Children returns a copy of the child list.
func (f *Fragment) Children() []*Node {
	out := make([]*Node, len(f.content))
	copy(out, f.content)
	return out
}

// ForEach calls fn with every child and its offset.
func (f *Fragment) ForEach(fn func(child *Node, offset, index int)) {
	pos := 0
	for i, c := range f.content {
		fn(c, pos, i)
		pos += c.NodeSize()
	}
}

// Append concatenates two fragments, joining text at the seam.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if other.size == 0 {
		return f
	}
	if f.size == 0 {
		return other
	}
	content := make([]*Node, 0, len(f.content)+len(other.content))
	content = append(content, f.content...)
	i := 0
	last, first := f.LastChild(), other.FirstChild()
	if last.IsText() && first.IsText() && last.SameMarkup(first) {
		content[len(content)-1] = last.WithText(last.Text + first.Text)
		i = 1
	}
	content = append(content, other.content[i:]...)
	return &Fragment{content: content, size: f.size + other.size}
}

// Cut returns the part of the fragment between two positions.
func (f *Fragment) Cut(from, to int) *Fragment {
	if from == 0 && to == f.size {
		return f
	}
	var result []*Node
	size := 0
	if to > from {
		pos := 0
		for i := 0; pos < to && i < len(f.content); i++ {
			child := f.content[i]
			end := pos + child.NodeSize()
			if end > from {
				if pos < from || end > to {
					if child.IsText() {
						child = child.Cut(max(0, from-pos), min(child.NodeSize(), to-pos))
					} else {
						child = child.Cut(max(0, from-pos-1), min(child.ContentSize(), to-pos-1))
					}
				}
				result = append(result, child)
				size += child.NodeSize()
			}
			pos = end
		}
	}
	if len(result) == 0 {
		return EmptyFragment
	}
	return &Fragment{content: result, size: size}
}

// CutByIndex returns the children between two indexes.
func (f *Fragment) CutByIndex(from, to int) *Fragment {
	if from == to {
		return EmptyFragment
	}
	if from == 0 && to == len(f.content) {
		return f
	}
	return NewFragment(f.content[from:to]...)
}

// ReplaceChild substitutes the child at index.
func (f *Fragment) ReplaceChild(index int, node *Node) *Fragment {
	current := f.content[index]
	if current == node {
		return f
	}
	content := make([]*Node, len(f.content))
	copy(content, f.content)
	content[index] = node
	return &Fragment{content: content, size: f.size + node.NodeSize() - current.NodeSize()}
}

func (f *Fragment) AddToStart(node *Node) *Fragment {
	return &Fragment{content: append([]*Node{node}, f.content...), size: f.size + node.NodeSize()}
}

func (f *Fragment) AddToEnd(node *Node) *Fragment {
	content := make([]*Node, len(f.content), len(f.content)+1)
	copy(content, f.content)
	return &Fragment{content: append(content, node), size: f.size + node.NodeSize()}
}

// FindIndex returns the index of the child at or after pos and that child's
// start offset. A position on a child boundary resolves to the later child.
func (f *Fragment) FindIndex(pos int) (index, offset int, err error) {
	if pos == 0 {
		return 0, 0, nil
	}
	if pos == f.size {
		return len(f.content), pos, nil
	}
	if pos > f.size || pos < 0 {
		return 0, 0, errPositionOutOfRange
	}
	cur := 0
	for i, child := range f.content {
		end := cur + child.NodeSize()
		if end >= pos {
			if end == pos {
				return i + 1, end, nil
			}
			return i, cur, nil
		}
		cur = end
	}
	return len(f.content), f.size, nil
}

func (f *Fragment) nodesBetween(from, to int, fn func(*Node, int, *Node, int) bool, nodeStart int, parent *Node) {
	pos := 0
	for i := 0; pos < to && i < len(f.content); i++ {
		child := f.content[i]
		end := pos + child.NodeSize()
		if end > from && fn(child, nodeStart+pos, parent, i) && child.ContentSize() > 0 {
			start := pos + 1
			child.Content.nodesBetween(max(0, from-start), min(child.ContentSize(), to-start), fn, nodeStart+start, child)
		}
		pos = end
	}
}

// NodesBetween walks the nodes overlapping the range; see Node.NodesBetween.
func (f *Fragment) NodesBetween(from, to int, fn func(node *Node, pos int, parent *Node, index int) bool) {
	f.nodesBetween(from, to, fn, 0, nil)
}

// TextBetween concatenates text in the range; see Node.TextBetween.
func (f *Fragment) TextBetween(from, to int, blockSep, leafText string) string {
	var b []byte
	first := true
	f.nodesBetween(from, to, func(node *Node, pos int, _ *Node, _ int) bool {
		var text string
		switch {
		case node.IsText():
			text = sliceRunes(node.Text, max(from, pos)-pos, to-pos)
		case node.IsLeaf():
			text = leafText
		}
		if ((node.IsBlock() && node.IsLeaf() && text != "") || node.IsTextblock()) && blockSep != "" {
			if first {
				first = false
			} else {
				b = append(b, blockSep...)
			}
		}
		b = append(b, text...)
		return true
	}, 0, nil)
	return string(b)
}

// Eq compares two fragments structurally.
func (f *Fragment) Eq(other *Fragment) bool {
	if len(f.content) != len(other.content) {
		return false
	}
	for i := range f.content {
		if !f.content[i].Eq(other.content[i]) {
			return false
		}
	}
	return true
}

func (f *Fragment) innerString() string {
	parts := make([]string, len(f.content))
	for i, c := range f.content {
		parts[i] = c.String()
	}
	return joinStrings(parts)
}

func (f *Fragment) String() string { return "<" + f.innerString() + ">" }
