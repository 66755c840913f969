package model

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Node is an immutable document node. Text nodes carry Text and no content;
// every other node carries a (possibly empty) Content fragment.
type Node struct {
	Type    *NodeType
	Attrs   map[string]any
	Content *Fragment
	Marks   []*Mark
	Text    string
}

// NodeSize is the number of positions the node occupies in its parent: the
// rune count for text, 1 for leaves, and content size plus 2 otherwise.
func (n *Node) NodeSize() int {
	switch {
	case n.IsText():
		return utf8.RuneCountInString(n.Text)
	case n.IsLeaf():
		return 1
	default:
		return n.Content.Size() + 2
	}
}

func (n *Node) ContentSize() int { return n.Content.Size() }

func (n *Node) ChildCount() int { return n.Content.ChildCount() }

func (n *Node) Child(i int) *Node { return n.Content.Child(i) }

func (n *Node) MaybeChild(i int) *Node { return n.Content.MaybeChild(i) }

func (n *Node) FirstChild() *Node { return n.Content.FirstChild() }

func (n *Node) LastChild() *Node { return n.Content.LastChild() }

func (n *Node) IsText() bool { return n.Type.IsText() }

func (n *Node) IsBlock() bool { return n.Type.IsBlock() }

func (n *Node) IsInline() bool { return n.Type.IsInline() }

func (n *Node) IsTextblock() bool { return n.Type.IsTextblock() }

func (n *Node) InlineContent() bool { return n.Type.InlineContent() }

func (n *Node) IsLeaf() bool { return n.Type.IsLeaf() }

func (n *Node) IsAtom() bool { return n.Type.IsAtom() }

// Attr returns a string attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	switch v := n.Attrs[name].(type) {
	case string:
		return v
	case nil:
		return ""
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// IntAttr returns an integer attribute, or def when absent or not numeric.
func (n *Node) IntAttr(name string, def int) int {
	switch v := n.Attrs[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// TextContent concatenates all text in the node.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	return n.TextBetween(0, n.ContentSize(), "", "")
}

// TextBetween returns the text between two content positions. blockSep is
// inserted between blocks and leafText stands in for inline leaves.
func (n *Node) TextBetween(from, to int, blockSep, leafText string) string {
	if n.IsText() {
		return sliceRunes(n.Text, from, to)
	}
	return n.Content.TextBetween(from, to, blockSep, leafText)
}

// NodesBetween calls f for every node overlapping the content range. pos is
// the node's absolute start. Returning false skips the node's children.
func (n *Node) NodesBetween(from, to int, f func(node *Node, pos int, parent *Node, index int) bool) {
	n.Content.nodesBetween(from, to, f, 0, n)
}

// Descendants calls f for every descendant.
func (n *Node) Descendants(f func(node *Node, pos int, parent *Node, index int) bool) {
	n.NodesBetween(0, n.ContentSize(), f)
}

// NodeAt returns the node starting directly after pos, or nil.
func (n *Node) NodeAt(pos int) *Node {
	node := n
	for {
		index, offset, err := node.Content.FindIndex(pos)
		if err != nil {
			return nil
		}
		child := node.MaybeChild(index)
		if child == nil {
			return nil
		}
		if offset == pos || child.IsText() {
			return child
		}
		pos -= offset + 1
		node = child
	}
}

// Copy returns a node with the same markup and new content.
func (n *Node) Copy(content *Fragment) *Node {
	if content == nil {
		content = EmptyFragment
	}
	if content == n.Content {
		return n
	}
	return &Node{Type: n.Type, Attrs: n.Attrs, Content: content, Marks: n.Marks}
}

// Mark returns the node with the given mark set.
func (n *Node) Mark(marks []*Mark) *Node {
	if SameMarkSet(marks, n.Marks) {
		return n
	}
	return &Node{Type: n.Type, Attrs: n.Attrs, Content: n.Content, Marks: marks, Text: n.Text}
}

// WithText returns a text node with the same marks and different text.
func (n *Node) WithText(text string) *Node {
	if text == n.Text {
		return n
	}
	return &Node{Type: n.Type, Attrs: n.Attrs, Content: EmptyFragment, Marks: n.Marks, Text: text}
}

// Cut returns the part of the node between two content positions.
func (n *Node) Cut(from, to int) *Node {
	if n.IsText() {
		if from == 0 && to == utf8.RuneCountInString(n.Text) {
			return n
		}
		return n.WithText(sliceRunes(n.Text, from, to))
	}
	if from == 0 && to == n.ContentSize() {
		return n
	}
	return n.Copy(n.Content.Cut(from, to))
}

// SameMarkup reports whether two nodes have the same type, attributes and
// marks.
func (n *Node) SameMarkup(other *Node) bool {
	return n.HasMarkup(other.Type, other.Attrs, other.Marks)
}

func (n *Node) HasMarkup(t *NodeType, attrs map[string]any, marks []*Mark) bool {
	return n.Type == t && attrsEqual(n.Attrs, t.computeAttrs(attrs)) && SameMarkSet(n.Marks, marks)
}

// Eq compares two nodes structurally.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if other == nil || !n.SameMarkup(other) || n.Text != other.Text {
		return false
	}
	return n.Content.Eq(other.Content)
}

// CanReplace reports whether replacing the children between from and to
// (indexes) with replacement yields valid content.
func (n *Node) CanReplace(from, to int, replacement *Fragment) bool {
	kids := n.Content.content
	seq := make([]*Node, 0, len(kids)+1)
	seq = append(seq, kids[:from]...)
	if replacement != nil {
		seq = append(seq, replacement.content...)
	}
	seq = append(seq, kids[to:]...)
	if !n.Type.content.matchNodes(seq) {
		return false
	}
	if replacement != nil {
		for _, c := range replacement.content {
			if !n.Type.AllowsMarks(c.Marks) {
				return false
			}
		}
	}
	return true
}

// CanReplaceWith reports whether the children between from and to can be
// replaced by one node of type t.
func (n *Node) CanReplaceWith(from, to int, t *NodeType) bool {
	kids := n.Content.content
	types := make([]*NodeType, 0, len(kids)+1)
	for _, k := range kids[:from] {
		types = append(types, k.Type)
	}
	types = append(types, t)
	for _, k := range kids[to:] {
		types = append(types, k.Type)
	}
	return n.Type.content.matchTypes(types)
}

// CanAppend reports whether other's content can be appended to this node.
func (n *Node) CanAppend(other *Node) bool {
	return n.CanReplace(n.ChildCount(), n.ChildCount(), other.Content)
}

// RangeHasMark reports whether any inline node in the range carries a mark
// of the given type.
func (n *Node) RangeHasMark(from, to int, mt *MarkType) bool {
	found := false
	if to > from {
		n.NodesBetween(from, to, func(node *Node, _ int, _ *Node, _ int) bool {
			if mt.IsInSet(node.Marks) != nil {
				found = true
			}
			return !found
		})
	}
	return found
}

// Slice cuts out the content between two positions.
func (n *Node) Slice(from, to int) (*Slice, error) {
	if from == to {
		return EmptySlice, nil
	}
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	depth := rFrom.SharedDepth(to)
	start := rFrom.Start(depth)
	node := rFrom.Node(depth)
	content := node.Content.Cut(rFrom.Pos-start, rTo.Pos-start)
	return NewSlice(content, rFrom.Depth-depth, rTo.Depth-depth), nil
}

// Replace replaces the range with a slice, which must fit.
func (n *Node) Replace(from, to int, slice *Slice) (*Node, error) {
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	return replace(rFrom, rTo, slice)
}

// String renders a compact debug form like paragraph("a", bold("b")).
func (n *Node) String() string {
	if n.IsText() {
		s := strconv.Quote(n.Text)
		for i := len(n.Marks) - 1; i >= 0; i-- {
			s = n.Marks[i].Type.Name + "(" + s + ")"
		}
		return s
	}
	name := n.Type.Name
	if n.Type.Name == "heading" {
		name += strconv.Itoa(n.IntAttr("level", 1))
	}
	if n.Content.Size() == 0 {
		return name
	}
	return name + "(" + n.Content.innerString() + ")"
}

func sliceRunes(s string, from, to int) string {
	if from <= 0 && to < 0 {
		return s
	}
	r := []rune(s)
	if from < 0 {
		from = 0
	}
	if to > len(r) || to < 0 {
		to = len(r)
	}
	if from >= to {
		return ""
	}
	return string(r[from:to])
}

func joinStrings(parts []string) string { return strings.Join(parts, ", ") }
