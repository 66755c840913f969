package model

import "fmt"

// ReplaceError is returned when a slice does not fit the replaced range.
type ReplaceError struct {
	msg string
}

func (e *ReplaceError) Error() string { return e.msg }

func replaceErr(format string, args ...any) error {
	return &ReplaceError{msg: fmt.Sprintf(format, args...)}
}

// Slice is a piece of a document. OpenStart and OpenEnd count how many
// ancestor levels are cut open at each side.
type Slice struct {
	Content   *Fragment
	OpenStart int
	OpenEnd   int
}

// EmptySlice has no content.
var EmptySlice = &Slice{Content: EmptyFragment}

func NewSlice(content *Fragment, openStart, openEnd int) *Slice {
	return &Slice{Content: content, OpenStart: openStart, OpenEnd: openEnd}
}

// Size is the number of positions the slice adds when inserted.
func (s *Slice) Size() int { return s.Content.Size() - s.OpenStart - s.OpenEnd }

// InsertAt inserts fragment at pos inside the slice. It returns nil when pos
// points into a text node.
func (s *Slice) InsertAt(pos int, fragment *Fragment) *Slice {
	content := insertInto(s.Content, pos+s.OpenStart, fragment)
	if content == nil {
		return nil
	}
	return NewSlice(content, s.OpenStart, s.OpenEnd)
}

func insertInto(content *Fragment, dist int, insert *Fragment) *Fragment {
	index, offset, err := content.FindIndex(dist)
	if err != nil {
		return nil
	}
	child := content.MaybeChild(index)
	if offset == dist || (child != nil && child.IsText()) {
		return content.Cut(0, dist).Append(insert).Append(content.Cut(dist, content.Size()))
	}
	inner := insertInto(child.Content, dist-offset-1, insert)
	if inner == nil {
		return nil
	}
	return content.ReplaceChild(index, child.Copy(inner))
}

func replace(from, to *ResolvedPos, slice *Slice) (*Node, error) {
	if slice.OpenStart > from.Depth {
		return nil, replaceErr("inserted content deeper than insertion position")
	}
	if from.Depth-slice.OpenStart != to.Depth-slice.OpenEnd {
		return nil, replaceErr("inconsistent open depths")
	}
	return replaceOuter(from, to, slice, 0)
}

func replaceOuter(from, to *ResolvedPos, slice *Slice, depth int) (*Node, error) {
	index := from.Index(depth)
	node := from.Node(depth)
	switch {
	case index == to.Index(depth) && depth < from.Depth-slice.OpenStart:
		inner, err := replaceOuter(from, to, slice, depth+1)
		if err != nil {
			return nil, err
		}
		return node.Copy(node.Content.ReplaceChild(index, inner)), nil
	case slice.Content.Size() == 0:
		content, err := replaceTwoWay(from, to, depth)
		if err != nil {
			return nil, err
		}
		return closeNode(node, content)
	case slice.OpenStart == 0 && slice.OpenEnd == 0 && from.Depth == depth && to.Depth == depth:
		parent := from.Parent()
		content := parent.Content
		joined := content.Cut(0, from.ParentOffset).Append(slice.Content).Append(content.Cut(to.ParentOffset, content.Size()))
		return closeNode(parent, joined)
	default:
		start, end, err := prepareSliceForReplace(slice, from)
		if err != nil {
			return nil, err
		}
		content, err := replaceThreeWay(from, start, end, to, depth)
		if err != nil {
			return nil, err
		}
		return closeNode(node, content)
	}
}

func checkJoin(main, sub *Node) error {
	if !sub.Type.CompatibleContent(main.Type) {
		return replaceErr("cannot join %s onto %s", sub.Type.Name, main.Type.Name)
	}
	return nil
}

func joinable(before, after *ResolvedPos, depth int) (*Node, error) {
	node := before.Node(depth)
	if err := checkJoin(node, after.Node(depth)); err != nil {
		return nil, err
	}
	return node, nil
}

func addNode(child *Node, target []*Node) []*Node {
	last := len(target) - 1
	if last >= 0 && child.IsText() && target[last].IsText() && child.SameMarkup(target[last]) {
		target[last] = child.WithText(target[last].Text + child.Text)
		return target
	}
	return append(target, child)
}

func addRange(start, end *ResolvedPos, depth int, target []*Node) []*Node {
	ref := end
	if ref == nil {
		ref = start
	}
	node := ref.Node(depth)
	startIndex := 0
	endIndex := node.ChildCount()
	if end != nil {
		endIndex = end.Index(depth)
	}
	if start != nil {
		startIndex = start.Index(depth)
		if start.Depth > depth {
			startIndex++
		} else if start.TextOffset() > 0 {
			target = addNode(start.NodeAfter(), target)
			startIndex++
		}
	}
	for i := startIndex; i < endIndex; i++ {
		target = addNode(node.Child(i), target)
	}
	if end != nil && end.Depth == depth && end.TextOffset() > 0 {
		target = addNode(end.NodeBefore(), target)
	}
	return target
}

func closeNode(node *Node, content *Fragment) (*Node, error) {
	if err := node.Type.CheckContent(content); err != nil {
		return nil, err
	}
	return node.Copy(content), nil
}

func replaceThreeWay(from, start, end, to *ResolvedPos, depth int) (*Fragment, error) {
	var openStart, openEnd *Node
	var err error
	if from.Depth > depth {
		if openStart, err = joinable(from, start, depth+1); err != nil {
			return nil, err
		}
	}
	if to.Depth > depth {
		if openEnd, err = joinable(end, to, depth+1); err != nil {
			return nil, err
		}
	}

	var content []*Node
	content = addRange(nil, from, depth, content)
	if openStart != nil && openEnd != nil && start.Index(depth) == end.Index(depth) {
		if err := checkJoin(openStart, openEnd); err != nil {
			return nil, err
		}
		inner, err := replaceThreeWay(from, start, end, to, depth+1)
		if err != nil {
			return nil, err
		}
		closed, err := closeNode(openStart, inner)
		if err != nil {
			return nil, err
		}
		content = addNode(closed, content)
	} else {
		if openStart != nil {
			inner, err := replaceTwoWay(from, start, depth+1)
			if err != nil {
				return nil, err
			}
			closed, err := closeNode(openStart, inner)
			if err != nil {
				return nil, err
			}
			content = addNode(closed, content)
		}
		content = addRange(start, end, depth, content)
		if openEnd != nil {
			inner, err := replaceTwoWay(end, to, depth+1)
			if err != nil {
				return nil, err
			}
			closed, err := closeNode(openEnd, inner)
			if err != nil {
				return nil, err
			}
			content = addNode(closed, content)
		}
	}
	content = addRange(to, nil, depth, content)
	return &Fragment{content: content, size: sizeOf(content)}, nil
}

func replaceTwoWay(from, to *ResolvedPos, depth int) (*Fragment, error) {
	var content []*Node
	content = addRange(nil, from, depth, content)
	if from.Depth > depth {
		t, err := joinable(from, to, depth+1)
		if err != nil {
			return nil, err
		}
		inner, err := replaceTwoWay(from, to, depth+1)
		if err != nil {
			return nil, err
		}
		closed, err := closeNode(t, inner)
		if err != nil {
			return nil, err
		}
		content = addNode(closed, content)
	}
	content = addRange(to, nil, depth, content)
	return &Fragment{content: content, size: sizeOf(content)}, nil
}

func prepareSliceForReplace(slice *Slice, along *ResolvedPos) (*ResolvedPos, *ResolvedPos, error) {
	extra := along.Depth - slice.OpenStart
	parent := along.Node(extra)
	node := parent.Copy(slice.Content)
	for i := extra - 1; i >= 0; i-- {
		node = along.Node(i).Copy(NewFragment(node))
	}
	start, err := node.Resolve(slice.OpenStart + extra)
	if err != nil {
		return nil, nil, err
	}
	end, err := node.Resolve(node.ContentSize() - slice.OpenEnd - extra)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func sizeOf(nodes []*Node) int {
	size := 0
	for _, n := range nodes {
		size += n.NodeSize()
	}
	return size
}
