package schema

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"blockEditor/backend/internal/model"
)

var (
	collapsible = regexp.MustCompile(`[ \t\r\n\f]+`)

	// Unknown elements that still start a new block.
	blockTags = map[string]bool{
		"address": true, "article": true, "aside": true, "dd": true, "div": true,
		"dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
		"footer": true, "form": true, "header": true, "main": true, "nav": true,
		"section": true, "table": true, "tbody": true, "td": true, "tfoot": true,
		"th": true, "thead": true, "tr": true,
	}
	ignoredTags = map[string]bool{
		"head": true, "link": true, "meta": true, "noscript": true, "script": true,
		"style": true, "template": true, "title": true,
	}
)

type parseContext struct {
	typ      *model.NodeType
	attrs    map[string]any
	content  []*model.Node
	implicit bool
	preserve bool
}

type domParser struct {
	reg    *Registry
	schema *model.Schema
	stack  []*parseContext
	marks  []*model.Mark
}

// ParseHTML builds a document from an HTML fragment. Elements without a
// parse rule are transparent: their children are parsed in place.
func (r *Registry) ParseHTML(src string) (*model.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	p := &domParser{reg: r, schema: r.schema}
	p.stack = []*parseContext{{typ: r.schema.TopNodeType}}
	for _, n := range nodes {
		p.addNode(n)
	}
	for len(p.stack) > 1 {
		p.closeTop()
	}
	doc := p.finish(p.stack[0])
	if doc == nil {
		return nil, fmt.Errorf("parse html: empty document")
	}
	return doc, nil
}

// ParseMarkdown converts Markdown to HTML and parses the result.
func (r *Registry) ParseMarkdown(src string) (*model.Node, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return r.ParseHTML(buf.String())
}

func (p *domParser) top() *parseContext { return p.stack[len(p.stack)-1] }

func (p *domParser) addNode(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.addText(n.Data)
	case html.ElementNode:
		p.addElement(n)
	}
}

func (p *domParser) addChildren(el *html.Node) {
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		p.addNode(c)
	}
}

func (p *domParser) addElement(el *html.Node) {
	if ignoredTags[el.Data] {
		return
	}
	if el.Data == "br" && p.top().preserve {
		p.addText("\n")
		return
	}
	if desc, rule, ok := p.reg.matchNode(el); ok {
		p.addMatched(el, p.schema.Nodes[desc.Name], rule)
		return
	}
	if desc, rule, ok := p.reg.matchMark(el); ok {
		var attrs map[string]any
		if rule.Attrs != nil {
			attrs = rule.Attrs(el)
		}
		saved := p.marks
		p.marks = p.schema.Marks[desc.Name].Create(attrs).AddToSet(p.marks)
		p.addChildren(el)
		p.marks = saved
		return
	}
	if blockTags[el.Data] {
		p.closeImplicitTextblock()
		p.addChildren(el)
		p.closeImplicitTextblock()
		return
	}
	p.addChildren(el)
}

func (p *domParser) addMatched(el *html.Node, nt *model.NodeType, rule ParseRule) {
	var attrs map[string]any
	if rule.Attrs != nil {
		attrs = rule.Attrs(el)
	}
	if nt.IsLeaf() {
		if p.findPlace(nt) {
			top := p.top()
			top.content = append(top.content, nt.Create(attrs, nil, nil))
		}
		return
	}
	if !p.findPlace(nt) {
		p.addChildren(el)
		return
	}
	depth := len(p.stack)
	p.stack = append(p.stack, &parseContext{
		typ:      nt,
		attrs:    attrs,
		preserve: rule.PreserveWhitespace || nt.IsCode(),
	})
	src := el
	if rule.Content != nil {
		src = rule.Content(el)
	}
	switch {
	case src == nil:
	case rule.PreserveWhitespace:
		p.addText(preText(src))
	default:
		saved := p.marks
		if !nt.IsInline() {
			p.marks = nil
		}
		p.addChildren(src)
		p.marks = saved
	}
	for len(p.stack) > depth {
		p.closeTop()
	}
}

// preText collects the text of a preformatted element, turning line breaks
// into newlines.
func preText(el *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				sb.WriteString(c.Data)
			case c.Type == html.ElementNode && c.Data == "br":
				sb.WriteByte('\n')
			default:
				walk(c)
			}
		}
	}
	walk(el)
	return sb.String()
}

func (p *domParser) addText(text string) {
	top := p.top()
	if !top.preserve {
		text = collapsible.ReplaceAllString(text, " ")
		if !top.typ.InlineContent() && strings.TrimSpace(text) == "" {
			return
		}
	}
	if text == "" || !p.findPlace(p.schema.Nodes["text"]) {
		return
	}
	top = p.top()
	if !top.preserve && strings.HasPrefix(text, " ") && p.atLineStart(top) {
		text = text[1:]
	}
	if text == "" {
		return
	}
	top.content = append(top.content, p.schema.Text(text, top.typ.AllowedMarks(p.marks)))
}

func (p *domParser) atLineStart(ctx *parseContext) bool {
	if len(ctx.content) == 0 {
		return true
	}
	last := ctx.content[len(ctx.content)-1]
	if last.IsText() {
		return strings.HasSuffix(last.Text, " ")
	}
	return last.Type.Name == "hardBreak"
}

// findPlace makes the top context one that can hold a node of type nt,
// closing contexts or opening implicit wrappers as needed.
func (p *domParser) findPlace(nt *model.NodeType) bool {
	for d := len(p.stack) - 1; d >= 0; d-- {
		ctx := p.stack[d]
		if ctx.typ.AllowsChild(nt) {
			p.closeTo(d)
			return true
		}
		if wrappers := p.findWrapping(ctx.typ, nt); wrappers != nil {
			p.closeTo(d)
			for _, w := range wrappers {
				p.stack = append(p.stack, &parseContext{typ: w, implicit: true, preserve: w.IsCode()})
			}
			return true
		}
	}
	return false
}

// findWrapping returns at most two node types that, nested inside parent,
// can hold nt. The parent's default child type is tried first.
func (p *domParser) findWrapping(parent, nt *model.NodeType) []*model.NodeType {
	candidates := func(outer *model.NodeType) []*model.NodeType {
		var out []*model.NodeType
		if def := outer.DefaultTypeAt(nil); def != nil {
			out = append(out, def)
		}
		for _, t := range p.schema.NodeTypes() {
			if t.IsText() || t.IsLeaf() || t == parent || !outer.AllowsChild(t) {
				continue
			}
			if t.IsInline() && !outer.InlineContent() {
				continue
			}
			out = append(out, t)
		}
		return out
	}
	for _, w := range candidates(parent) {
		if w.AllowsChild(nt) {
			return []*model.NodeType{w}
		}
	}
	for _, w := range candidates(parent) {
		for _, w2 := range candidates(w) {
			if w2.AllowsChild(nt) {
				return []*model.NodeType{w, w2}
			}
		}
	}
	return nil
}

func (p *domParser) closeTo(depth int) {
	for len(p.stack)-1 > depth {
		p.closeTop()
	}
}

func (p *domParser) closeImplicitTextblock() {
	for len(p.stack) > 1 {
		top := p.top()
		if !top.implicit || !top.typ.InlineContent() {
			return
		}
		p.closeTop()
	}
}

func (p *domParser) closeTop() {
	ctx := p.top()
	p.stack = p.stack[:len(p.stack)-1]
	if node := p.finish(ctx); node != nil {
		parent := p.top()
		parent.content = append(parent.content, node)
	}
}

// finish turns a context into a node. Implicit contexts that collected
// nothing are dropped.
func (p *domParser) finish(ctx *parseContext) *model.Node {
	content := ctx.content
	if ctx.typ.InlineContent() && !ctx.preserve && len(content) > 0 {
		if last := content[len(content)-1]; last.IsText() && strings.HasSuffix(last.Text, " ") {
			trimmed := strings.TrimSuffix(last.Text, " ")
			content = content[:len(content)-1]
			if trimmed != "" {
				content = append(content, last.WithText(trimmed))
			}
		}
	}
	if ctx.implicit && len(content) == 0 {
		return nil
	}
	return ctx.typ.Create(ctx.attrs, fixContent(ctx.typ, content), nil)
}

// fixContent drops children the type cannot hold and fills in a default
// first child when the content would otherwise be invalid.
func fixContent(nt *model.NodeType, content []*model.Node) *model.Fragment {
	kept := make([]*model.Node, 0, len(content))
	for _, child := range content {
		if !nt.AllowsChild(child.Type) {
			continue
		}
		if child.IsText() && !nt.AllowsMarks(child.Marks) {
			child = child.Mark(nt.AllowedMarks(child.Marks))
		}
		kept = append(kept, child)
	}
	frag := model.NewFragment(kept...)
	if nt.ValidContent(frag) {
		return frag
	}
	if def := nt.DefaultTypeAt(nil); def != nil && (len(kept) == 0 || kept[0].Type != def) {
		filled := append([]*model.Node{fillNode(def)}, kept...)
		if f := model.NewFragment(filled...); nt.ValidContent(f) {
			return f
		}
	}
	return frag
}

// fillNode creates the smallest valid node of type nt.
func fillNode(nt *model.NodeType) *model.Node {
	if def := nt.DefaultTypeAt(nil); def != nil && !nt.ValidContent(model.EmptyFragment) {
		return nt.Create(nil, model.NewFragment(fillNode(def)), nil)
	}
	return nt.Create(nil, nil, nil)
}
