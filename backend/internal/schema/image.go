package schema

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

const (
	// MinImageWidth is the smallest width a drag can resize an image to.
	MinImageWidth = 50
	// DefaultImageWidth is the rendered width of an image without a width
	// attribute.
	DefaultImageWidth = 400

	resizerID = "image-resizer"
)

// imageDescriptor is an inline image whose own inline content is its
// caption.
func imageDescriptor() *Descriptor {
	imgAttrs := func(img *html.Node) map[string]any {
		return map[string]any{
			"src":   attrOr(img, "src"),
			"alt":   attrOr(img, "alt"),
			"title": attrOr(img, "title"),
			"width": attrOr(img, "width"),
		}
	}
	return &Descriptor{
		Name: "imageNode",
		Node: &model.NodeSpec{
			Content:   "inline*",
			Group:     "inline",
			Inline:    true,
			Isolating: true,
			Attrs: map[string]*model.AttributeSpec{
				"src": {}, "alt": {}, "title": {}, "width": {}, "postId": {},
			},
		},
		Parse: []ParseRule{
			{
				Tag:   "span",
				Match: func(el *html.Node) bool { _, ok := attr(el, "data-image-container"); return ok },
				Attrs: func(el *html.Node) map[string]any {
					if img := firstElement(el, "img"); img != nil {
						return imgAttrs(img)
					}
					return map[string]any{"src": ""}
				},
				Content: func(el *html.Node) *html.Node {
					return firstElement(el, "span")
				},
			},
			{
				Tag:     "img",
				Attrs:   imgAttrs,
				Content: func(*html.Node) *html.Node { return nil },
			},
		},
		Render: renderImage,
		Commands: map[string]CommandFunc{
			"setImage": func(args map[string]any) commands.Command { return SetImage(stringArg(args, "src")) },
		},
		NewView: newImageView,
	}
}

// renderImage renders the container with its image and, only when the
// caption is not empty, the caption wrapper.
func renderImage(node *model.Node) (*html.Node, *html.Node) {
	container := element("span", "data-image-container", "true")
	img := element("img")
	for _, key := range []string{"src", "alt", "title", "width"} {
		setAttr(img, key, node.Attr(key))
	}
	container.AppendChild(img)
	if node.ContentSize() == 0 {
		return container, nil
	}
	caption := element("span")
	container.AppendChild(caption)
	return container, caption
}

func firstElement(el *html.Node, tag string) *html.Node {
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// SetImage replaces the selection with an image.
func SetImage(src string) commands.Command {
	return func(tr *state.Transaction) bool {
		nt := tr.Doc.Type.Schema.Nodes["imageNode"]
		if nt == nil {
			return false
		}
		return commands.InsertContent(nt.Create(map[string]any{"src": src}, nil, nil))(tr)
	}
}

// ImageView renders an image with a resize handle. The width it tracks is
// view state only and is never written back to the node.
type ImageView struct {
	node    *model.Node
	width   float64
	resizer *ImageResizer
}

func newImageView(host ViewHost, node *model.Node, _ func() int) View {
	v := &ImageView{node: node, width: float64(node.IntAttr("width", DefaultImageWidth))}
	v.resizer = NewImageResizer(host.Events(), v.resize)
	return v
}

func (v *ImageView) resize(dx, _ float64) {
	v.width = max(v.width+dx, MinImageWidth)
}

// Width is the current rendered width.
func (v *ImageView) Width() float64 { return v.width }

// Resizer exposes the drag handler of the view.
func (v *ImageView) Resizer() *ImageResizer { return v.resizer }

func (v *ImageView) PointerDown(target string, x, y float64) bool {
	if target != resizerID {
		return false
	}
	v.resizer.PointerDown(x, y)
	return true
}

func (v *ImageView) Update(node *model.Node) bool {
	if node.Type != v.node.Type {
		return false
	}
	v.node = node
	return true
}

func (v *ImageView) Destroy() { v.resizer.Release() }

func (v *ImageView) Style() string {
	return fmt.Sprintf("width: %spx", strconv.FormatFloat(v.width, 'f', -1, 64))
}

func (v *ImageView) State() map[string]any {
	return map[string]any{
		"src":      v.node.Attr("src"),
		"width":    v.width,
		"dragging": v.resizer.Dragging(),
	}
}

// ImageResizer turns a pointer drag into width deltas. A drag registers its
// move and up listeners on pointer down and removes them on pointer up, so
// each drag adds exactly one listener of each kind.
type ImageResizer struct {
	target   *EventTarget
	onResize func(dx, dy float64)

	dragging   bool
	start      PointerEvent
	last       PointerEvent
	moveHandle int
	upHandle   int
}

// NewImageResizer creates a resizer that reports per-move deltas to
// onResize.
func NewImageResizer(target *EventTarget, onResize func(dx, dy float64)) *ImageResizer {
	return &ImageResizer{target: target, onResize: onResize}
}

// PointerDown starts a drag. A second pointer down during a drag is ignored.
func (r *ImageResizer) PointerDown(x, y float64) {
	if r.dragging {
		return
	}
	r.dragging = true
	r.start = PointerEvent{X: x, Y: y}
	r.last = r.start
	r.moveHandle = r.target.AddEventListener("pointermove", r.onMove)
	r.upHandle = r.target.AddEventListener("pointerup", r.onUp)
}

func (r *ImageResizer) onMove(ev PointerEvent) {
	if !r.dragging {
		return
	}
	dx, dy := ev.X-r.last.X, ev.Y-r.last.Y
	r.last = ev
	if r.onResize != nil {
		r.onResize(dx, dy)
	}
}

func (r *ImageResizer) onUp(PointerEvent) { r.Release() }

// Release ends the drag and unregisters its listeners. It is a no-op when no
// drag is in progress.
func (r *ImageResizer) Release() {
	if !r.dragging {
		return
	}
	r.dragging = false
	r.target.RemoveEventListener("pointermove", r.moveHandle)
	r.target.RemoveEventListener("pointerup", r.upHandle)
	r.start, r.last = PointerEvent{}, PointerEvent{}
}

// Dragging reports whether a drag is in progress.
func (r *ImageResizer) Dragging() bool { return r.dragging }
