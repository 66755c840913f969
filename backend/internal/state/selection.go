// Package state holds the editor state: a document, a selection and the
// stored marks, updated through transactions.
package state

import (
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/transform"
)

// Selection is the single current selection of an editor state.
type Selection interface {
	Anchor() int
	Head() int
	From() int
	To() int
	ResolvedFrom() *model.ResolvedPos
	ResolvedTo() *model.ResolvedPos
	Empty() bool
	// Map moves the selection into a changed document.
	Map(doc *model.Node, mapping transform.Mappable) Selection
	Eq(other Selection) bool
	JSON() SelectionJSON
}

// SelectionJSON is the wire form of a selection.
type SelectionJSON struct {
	Type   string `json:"type"`
	Anchor int    `json:"anchor"`
	Head   int    `json:"head"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// TextSelection is a caret or a text range. Both ends point into inline
// content.
type TextSelection struct {
	anchor, head *model.ResolvedPos
}

// NewTextSelection builds a text selection from resolved ends.
func NewTextSelection(anchor, head *model.ResolvedPos) *TextSelection {
	return &TextSelection{anchor: anchor, head: head}
}

// TextSelectionBetween creates a text selection, clamping positions into the
// document and moving ends that do not point into inline content to the
// nearest valid place.
func TextSelectionBetween(doc *model.Node, anchor, head int) Selection {
	rAnchor := resolveClamped(doc, anchor)
	rHead := resolveClamped(doc, head)
	if !rHead.Parent().InlineContent() {
		dir := 1
		if anchor > head {
			dir = -1
		}
		sel := Near(rHead, dir)
		rHead = sel.ResolvedTo()
		if dir < 0 {
			rHead = sel.ResolvedFrom()
		}
		if !rHead.Parent().InlineContent() {
			return sel
		}
	}
	if !rAnchor.Parent().InlineContent() {
		if anchor == head {
			rAnchor = rHead
		} else {
			dir := -1
			if anchor > head {
				dir = 1
			}
			sel := Near(rAnchor, dir)
			rAnchor = sel.ResolvedFrom()
			if !rAnchor.Parent().InlineContent() {
				rAnchor = rHead
			}
		}
	}
	return NewTextSelection(rAnchor, rHead)
}

func (s *TextSelection) Anchor() int { return s.anchor.Pos }

func (s *TextSelection) Head() int { return s.head.Pos }

func (s *TextSelection) From() int { return min(s.anchor.Pos, s.head.Pos) }

func (s *TextSelection) To() int { return max(s.anchor.Pos, s.head.Pos) }

func (s *TextSelection) ResolvedFrom() *model.ResolvedPos {
	if s.anchor.Pos <= s.head.Pos {
		return s.anchor
	}
	return s.head
}

func (s *TextSelection) ResolvedTo() *model.ResolvedPos {
	if s.anchor.Pos > s.head.Pos {
		return s.anchor
	}
	return s.head
}

// ResolvedHead is the moving end of the selection.
func (s *TextSelection) ResolvedHead() *model.ResolvedPos { return s.head }

func (s *TextSelection) Empty() bool { return s.anchor.Pos == s.head.Pos }

// Cursor returns the caret position for an empty selection, or nil.
func (s *TextSelection) Cursor() *model.ResolvedPos {
	if s.Empty() {
		return s.head
	}
	return nil
}

func (s *TextSelection) Map(doc *model.Node, mapping transform.Mappable) Selection {
	rHead := resolveClamped(doc, mapping.Map(s.head.Pos, 1))
	if !rHead.Parent().InlineContent() {
		return Near(rHead, 1)
	}
	rAnchor := resolveClamped(doc, mapping.Map(s.anchor.Pos, 1))
	if !rAnchor.Parent().InlineContent() {
		rAnchor = rHead
	}
	return NewTextSelection(rAnchor, rHead)
}

func (s *TextSelection) Eq(other Selection) bool {
	o, ok := other.(*TextSelection)
	return ok && o.anchor.Pos == s.anchor.Pos && o.head.Pos == s.head.Pos
}

func (s *TextSelection) JSON() SelectionJSON {
	return SelectionJSON{Type: "text", Anchor: s.Anchor(), Head: s.Head(), From: s.From(), To: s.To()}
}

// NodeSelection selects a single node.
type NodeSelection struct {
	from, to *model.ResolvedPos
	node     *model.Node
}

// NewNodeSelection selects the node starting at pos.
func NewNodeSelection(doc *model.Node, pos int) (*NodeSelection, bool) {
	rFrom, err := doc.Resolve(pos)
	if err != nil {
		return nil, false
	}
	node := rFrom.NodeAfter()
	if node == nil || node.IsText() {
		return nil, false
	}
	rTo, err := doc.Resolve(pos + node.NodeSize())
	if err != nil {
		return nil, false
	}
	return &NodeSelection{from: rFrom, to: rTo, node: node}, true
}

// Node is the selected node.
func (s *NodeSelection) Node() *model.Node { return s.node }

func (s *NodeSelection) Anchor() int { return s.from.Pos }

func (s *NodeSelection) Head() int { return s.to.Pos }

func (s *NodeSelection) From() int { return s.from.Pos }

func (s *NodeSelection) To() int { return s.to.Pos }

func (s *NodeSelection) ResolvedFrom() *model.ResolvedPos { return s.from }

func (s *NodeSelection) ResolvedTo() *model.ResolvedPos { return s.to }

func (s *NodeSelection) Empty() bool { return false }

func (s *NodeSelection) Map(doc *model.Node, mapping transform.Mappable) Selection {
	r := mapping.MapResult(s.from.Pos, 1)
	rPos := resolveClamped(doc, r.Pos)
	if !r.Deleted {
		if sel, ok := NewNodeSelection(doc, r.Pos); ok {
			return sel
		}
	}
	return Near(rPos, 1)
}

func (s *NodeSelection) Eq(other Selection) bool {
	o, ok := other.(*NodeSelection)
	return ok && o.from.Pos == s.from.Pos
}

func (s *NodeSelection) JSON() SelectionJSON {
	return SelectionJSON{Type: "node", Anchor: s.Anchor(), Head: s.Head(), From: s.From(), To: s.To()}
}

// Near finds a valid selection at or near rPos, searching in the bias
// direction first.
func Near(rPos *model.ResolvedPos, bias int) Selection {
	if rPos.Parent().InlineContent() {
		return NewTextSelection(rPos, rPos)
	}
	doc := rPos.Doc()
	if sel := findFrom(doc, rPos.Pos, bias); sel != nil {
		return sel
	}
	if sel := findFrom(doc, rPos.Pos, -bias); sel != nil {
		return sel
	}
	return NewTextSelection(rPos, rPos)
}

// AtStart returns the first valid selection in the document.
func AtStart(doc *model.Node) Selection {
	if sel := findFrom(doc, 0, 1); sel != nil {
		return sel
	}
	r, _ := doc.Resolve(0)
	return NewTextSelection(r, r)
}

// AtEnd returns the last valid selection in the document.
func AtEnd(doc *model.Node) Selection {
	if sel := findFrom(doc, doc.ContentSize(), -1); sel != nil {
		return sel
	}
	r, _ := doc.Resolve(doc.ContentSize())
	return NewTextSelection(r, r)
}

// findFrom looks for the closest textblock edge or selectable block atom
// from pos in direction dir.
func findFrom(doc *model.Node, pos, dir int) Selection {
	best := -1
	bestNode := false
	doc.Descendants(func(node *model.Node, at int, _ *model.Node, _ int) bool {
		switch {
		case node.IsTextblock():
			start, end := at+1, at+1+node.ContentSize()
			if dir > 0 && end >= pos && (best < 0) {
				best, bestNode = max(start, min(pos, end)), false
				if pos < start {
					best = start
				}
			}
			if dir < 0 && start <= pos {
				best, bestNode = min(end, max(pos, start)), false
			}
			return false
		case node.IsBlock() && node.IsAtom():
			if dir > 0 && at >= pos && best < 0 {
				best, bestNode = at, true
			}
			if dir < 0 && at+1 <= pos {
				best, bestNode = at, true
			}
			return false
		}
		return true
	})
	if best < 0 {
		return nil
	}
	if bestNode {
		if sel, ok := NewNodeSelection(doc, best); ok {
			return sel
		}
		return nil
	}
	r, err := doc.Resolve(best)
	if err != nil {
		return nil
	}
	return NewTextSelection(r, r)
}

func resolveClamped(doc *model.Node, pos int) *model.ResolvedPos {
	pos = max(0, min(pos, doc.ContentSize()))
	r, _ := doc.Resolve(pos)
	return r
}
