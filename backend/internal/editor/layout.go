package editor

import (
	"blockEditor/backend/internal/model"
)

// Rect is a rectangle in editor coordinates, in pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Union returns the smallest rect covering r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Layout metrics. Text is monospaced and wraps at the editor's right edge.
const (
	CharWidth   = 8.0
	LineHeight  = 24.0
	BlockGap    = 8.0
	NestIndent  = 24.0
	RuleHeight  = 16.0
	InputHeight = 48.0
)

// DefaultBounds is the editor body used when no bounds are configured.
var DefaultBounds = Rect{Left: 0, Top: 0, Right: 720, Bottom: 0}

// layout holds the caret rect of every document position.
type layout struct {
	carets []Rect
	set    []bool
	bottom float64
}

func lineHeight(node *model.Node) float64 {
	if node.Type.Name != "heading" {
		return LineHeight
	}
	switch node.IntAttr("level", 1) {
	case 1:
		return 40
	case 2:
		return 32
	case 3:
		return 28
	}
	return LineHeight
}

func blockHeight(node *model.Node) float64 {
	switch node.Type.Name {
	case "horizontalRule":
		return RuleHeight
	case "youtube":
		return float64(node.IntAttr("height", 480))
	case "imagePlaceholder", "videoPlaceholder":
		return InputHeight
	}
	return LineHeight
}

func nests(node *model.Node) bool {
	switch node.Type.Name {
	case "bulletList", "orderedList", "blockquote":
		return true
	}
	return false
}

func newLayout(doc *model.Node, bounds Rect) *layout {
	size := doc.ContentSize()
	l := &layout{carets: make([]Rect, size+1), set: make([]bool, size+1)}
	l.bottom = l.blocks(doc.Content, 0, bounds.Left, bounds.Right, bounds.Top)
	return l
}

func (l *layout) caret(pos int, x, top, h float64) {
	if pos < 0 || pos >= len(l.carets) || l.set[pos] {
		return
	}
	l.carets[pos] = Rect{Left: x, Top: top, Right: x, Bottom: top + h}
	l.set[pos] = true
}

// blocks lays out block children starting at pos and returns the bottom edge.
func (l *layout) blocks(content *model.Fragment, pos int, left, right, y float64) float64 {
	content.ForEach(func(child *model.Node, offset, index int) {
		if index > 0 {
			y += BlockGap
		}
		start := pos + offset
		l.caret(start, left, y, LineHeight)
		switch {
		case child.IsTextblock():
			y = l.text(child, start+1, left, right, y)
		case child.IsLeaf():
			y += blockHeight(child)
		default:
			inner := left
			if nests(child) {
				inner += NestIndent
			}
			l.caret(start+1, inner, y, LineHeight)
			y = l.blocks(child.Content, start+1, inner, right, y)
			l.caret(start+child.NodeSize()-1, inner, y-LineHeight, LineHeight)
		}
		l.caret(start+child.NodeSize(), left, y-LineHeight, LineHeight)
	})
	return y
}

// text lays out a textblock's inline content and returns its bottom edge.
func (l *layout) text(node *model.Node, pos int, left, right, y float64) float64 {
	lh := lineHeight(node)
	x, top := left, y
	l.caret(pos, x, top, lh)
	node.Content.ForEach(func(child *model.Node, offset, _ int) {
		at := pos + offset
		switch {
		case child.IsText():
			i := 0
			for range child.Text {
				if x+CharWidth > right && x > left {
					x, top = left, top+lh
				}
				x += CharWidth
				i++
				l.caret(at+i, x, top, lh)
			}
		case child.Type.Name == "hardBreak":
			x, top = left, top+lh
			l.caret(at+1, x, top, lh)
		case child.IsLeaf():
			x += CharWidth
			l.caret(at+1, x, top, lh)
		default:
			// Inline boxes with content, such as images with a caption,
			// sit on their own line with the caption below.
			if x > left {
				x, top = left, top+lh
			}
			w := min(float64(child.IntAttr("width", 400)), right-left)
			top += w * 3 / 4
			cx := left
			for i := 1; i < child.NodeSize(); i++ {
				l.caret(at+i, cx, top, lh)
				cx += CharWidth
			}
			if child.ContentSize() > 0 {
				top += lh
			}
			x = left
			l.caret(at+child.NodeSize(), x, top, lh)
		}
	})
	return top + lh
}

func (l *layout) coords(pos int) Rect {
	pos = max(0, min(pos, len(l.carets)-1))
	for p := pos; p >= 0; p-- {
		if l.set[p] {
			return l.carets[p]
		}
	}
	return Rect{}
}

func (ed *Editor) currentLayout() *layout {
	if ed.layout == nil {
		ed.layout = newLayout(ed.state.Doc, ed.bounds)
	}
	return ed.layout
}

// CoordsAtPos returns the zero-width caret rect at pos.
func (ed *Editor) CoordsAtPos(pos int) Rect {
	return ed.currentLayout().coords(pos)
}

// RectBetween returns the rect covering the carets at from and to.
func (ed *Editor) RectBetween(from, to int) Rect {
	l := ed.currentLayout()
	return l.coords(from).Union(l.coords(to))
}

// Bounds returns the editor body, extended downwards to fit the content.
func (ed *Editor) Bounds() Rect {
	b := ed.bounds
	b.Bottom = max(b.Bottom, ed.currentLayout().bottom)
	return b
}
