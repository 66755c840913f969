package schema

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"blockEditor/backend/internal/model"
)

// Decoration is a render-only annotation. Inline decorations wrap the text
// in [From, To) in a span; node decorations add their class and attributes
// to the element of the node starting at From.
type Decoration struct {
	From, To int
	Class    string
	Attrs    map[string]string
	Node     bool
}

// RenderOptions adds view-only output to a rendering.
type RenderOptions struct {
	Decorations []Decoration
	// NodeAttrs returns extra attributes for the element of the node at pos.
	NodeAttrs func(node *model.Node, pos int) map[string]string
}

// SerializeHTML renders the document content as HTML.
func (r *Registry) SerializeHTML(doc *model.Node) string {
	return r.Render(doc, RenderOptions{})
}

// Render renders the document content with decorations applied.
func (r *Registry) Render(doc *model.Node, opts RenderOptions) string {
	var sb strings.Builder
	doc.Content.ForEach(func(child *model.Node, offset, _ int) {
		_ = html.Render(&sb, r.renderNode(child, offset, opts))
	})
	return sb.String()
}

func (r *Registry) renderNode(node *model.Node, pos int, opts RenderOptions) *html.Node {
	var dom, hole *html.Node
	if d, ok := r.byName[node.Type.Name]; ok && d.Render != nil {
		dom, hole = d.Render(node)
	} else {
		dom = element("div")
		hole = dom
	}
	for _, deco := range opts.Decorations {
		if deco.Node && deco.From == pos {
			mergeAttrs(dom, deco.Class, deco.Attrs)
		}
	}
	if opts.NodeAttrs != nil {
		mergeAttrs(dom, "", opts.NodeAttrs(node, pos))
	}
	if hole == nil {
		return dom
	}
	if node.InlineContent() {
		r.renderInline(node.Content, pos+1, hole, opts)
		return dom
	}
	node.Content.ForEach(func(child *model.Node, offset, _ int) {
		hole.AppendChild(r.renderNode(child, pos+1+offset, opts))
	})
	return dom
}

type openMark struct {
	mark *model.Mark
	hole *html.Node
}

// renderInline writes inline content into parent, reusing the open mark
// elements shared with the previous child.
func (r *Registry) renderInline(content *model.Fragment, start int, parent *html.Node, opts RenderOptions) {
	var open []openMark
	current := func() *html.Node {
		if len(open) == 0 {
			return parent
		}
		return open[len(open)-1].hole
	}
	content.ForEach(func(child *model.Node, offset, _ int) {
		keep := 0
		for keep < len(open) && keep < len(child.Marks) && open[keep].mark.Eq(child.Marks[keep]) {
			keep++
		}
		open = open[:keep]
		for _, m := range child.Marks[keep:] {
			dom, hole := r.renderMark(m)
			current().AppendChild(dom)
			open = append(open, openMark{mark: m, hole: hole})
		}
		pos := start + offset
		if child.IsText() {
			for _, seg := range decorate(child.Text, pos, opts.Decorations) {
				current().AppendChild(seg)
			}
			return
		}
		current().AppendChild(r.renderNode(child, pos, opts))
	})
}

func (r *Registry) renderMark(m *model.Mark) (*html.Node, *html.Node) {
	if d, ok := r.byName[m.Type.Name]; ok && d.RenderMark != nil {
		return d.RenderMark(m)
	}
	n := element("span")
	return n, n
}

// decorate splits text starting at pos along the inline decorations that
// cover it.
func decorate(text string, pos int, decos []Decoration) []*html.Node {
	runes := []rune(text)
	end := pos + len(runes)
	cuts := []int{pos, end}
	var hits []Decoration
	for _, d := range decos {
		if d.Node || d.From >= d.To || d.To <= pos || d.From >= end {
			continue
		}
		hits = append(hits, d)
		cuts = append(cuts, max(d.From, pos), min(d.To, end))
	}
	textNode := func(s string) *html.Node { return &html.Node{Type: html.TextNode, Data: s} }
	if len(hits) == 0 {
		return []*html.Node{textNode(text)}
	}
	sort.Ints(cuts)
	var out []*html.Node
	for i := 0; i+1 < len(cuts); i++ {
		from, to := cuts[i], cuts[i+1]
		if from == to {
			continue
		}
		seg := textNode(string(runes[from-pos : to-pos]))
		var classes []string
		attrs := map[string]string{}
		for _, d := range hits {
			if d.From <= from && d.To >= to {
				if d.Class != "" {
					classes = append(classes, d.Class)
				}
				for k, v := range d.Attrs {
					attrs[k] = v
				}
			}
		}
		if len(classes) == 0 && len(attrs) == 0 {
			out = append(out, seg)
			continue
		}
		span := element("span")
		mergeAttrs(span, strings.Join(classes, " "), attrs)
		span.AppendChild(seg)
		out = append(out, span)
	}
	return out
}

// mergeAttrs appends class to the element's class list and sets attrs,
// replacing existing values.
func mergeAttrs(el *html.Node, class string, attrs map[string]string) {
	if class != "" {
		if v, ok := attr(el, "class"); ok && v != "" {
			replaceAttr(el, "class", v+" "+class)
		} else {
			replaceAttr(el, "class", class)
		}
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		replaceAttr(el, k, attrs[k])
	}
}

func replaceAttr(el *html.Node, key, val string) {
	for i := range el.Attr {
		if el.Attr[i].Key == key {
			el.Attr[i].Val = val
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: key, Val: val})
}
