package schema

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

var noMarks = ""

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// setAttr adds an attribute unless the value is empty.
func setAttr(n *html.Node, key, val string) {
	if val != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
}

func attr(el *html.Node, key string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(el *html.Node, key string) any {
	if v, ok := attr(el, key); ok && v != "" {
		return v
	}
	return nil
}

func hasClass(el *html.Node, class string) bool {
	v, _ := attr(el, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func wrap(tag string, attrs ...string) RenderFunc {
	return func(*model.Node) (*html.Node, *html.Node) {
		n := element(tag, attrs...)
		return n, n
	}
}

func leaf(tag string) RenderFunc {
	return func(*model.Node) (*html.Node, *html.Node) {
		return element(tag), nil
	}
}

func docDescriptor() *Descriptor {
	return &Descriptor{Name: "doc", Node: &model.NodeSpec{Content: "block+"}}
}

func textDescriptor() *Descriptor {
	return &Descriptor{Name: "text", Node: &model.NodeSpec{Group: "inline"}}
}

func paragraphDescriptor() *Descriptor {
	return &Descriptor{
		Name:   "paragraph",
		Node:   &model.NodeSpec{Content: "inline*", Group: "block"},
		Parse:  []ParseRule{{Tag: "p"}},
		Render: wrap("p"),
		Commands: map[string]CommandFunc{
			"setParagraph": func(map[string]any) commands.Command { return commands.SetNode("paragraph", nil) },
		},
	}
}

func headingDescriptor() *Descriptor {
	var rules []ParseRule
	for level := 1; level <= 6; level++ {
		rules = append(rules, ParseRule{
			Tag:   "h" + strconv.Itoa(level),
			Attrs: func(*html.Node) map[string]any { return map[string]any{"level": level} },
		})
	}
	return &Descriptor{
		Name: "heading",
		Node: &model.NodeSpec{
			Content: "inline*",
			Group:   "block",
			Attrs:   map[string]*model.AttributeSpec{"level": {Default: 1}},
		},
		Parse: rules,
		Render: func(node *model.Node) (*html.Node, *html.Node) {
			level := min(max(node.IntAttr("level", 1), 1), 6)
			n := element("h" + strconv.Itoa(level))
			return n, n
		},
		Commands: map[string]CommandFunc{
			"setHeading": func(args map[string]any) commands.Command {
				return commands.SetNode("heading", map[string]any{"level": intArg(args, "level", 1)})
			},
			"toggleHeading": func(args map[string]any) commands.Command {
				return commands.ToggleNode("heading", "paragraph", map[string]any{"level": intArg(args, "level", 1)})
			},
		},
	}
}

func blockquoteDescriptor() *Descriptor {
	return &Descriptor{
		Name:   "blockquote",
		Node:   &model.NodeSpec{Content: "block+", Group: "block"},
		Parse:  []ParseRule{{Tag: "blockquote"}},
		Render: wrap("blockquote"),
		Commands: map[string]CommandFunc{
			"setBlockquote": func(map[string]any) commands.Command { return commands.SetBlockquote() },
		},
	}
}

func bulletListDescriptor() *Descriptor {
	return &Descriptor{
		Name:   "bulletList",
		Node:   &model.NodeSpec{Content: "listItem+", Group: "block list"},
		Parse:  []ParseRule{{Tag: "ul"}},
		Render: wrap("ul"),
		Commands: map[string]CommandFunc{
			"toggleBulletList": func(map[string]any) commands.Command { return commands.ToggleBulletList() },
		},
	}
}

func orderedListDescriptor() *Descriptor {
	return &Descriptor{
		Name: "orderedList",
		Node: &model.NodeSpec{
			Content: "listItem+",
			Group:   "block list",
			Attrs:   map[string]*model.AttributeSpec{"start": {Default: 1}},
		},
		Parse: []ParseRule{{
			Tag: "ol",
			Attrs: func(el *html.Node) map[string]any {
				start := 1
				if v, ok := attr(el, "start"); ok {
					if n, err := strconv.Atoi(v); err == nil {
						start = n
					}
				}
				return map[string]any{"start": start}
			},
		}},
		Render: func(node *model.Node) (*html.Node, *html.Node) {
			n := element("ol")
			if start := node.IntAttr("start", 1); start != 1 {
				setAttr(n, "start", strconv.Itoa(start))
			}
			return n, n
		},
		Commands: map[string]CommandFunc{
			"toggleOrderedList": func(map[string]any) commands.Command { return commands.ToggleOrderedList() },
		},
	}
}

func listItemDescriptor() *Descriptor {
	return &Descriptor{
		Name:   "listItem",
		Node:   &model.NodeSpec{Content: "paragraph block*"},
		Parse:  []ParseRule{{Tag: "li"}},
		Render: wrap("li"),
		Commands: map[string]CommandFunc{
			"liftListItem":  func(map[string]any) commands.Command { return commands.LiftListItem("listItem") },
			"splitListItem": func(map[string]any) commands.Command { return commands.SplitBlock() },
		},
	}
}

func codeBlockDescriptor() *Descriptor {
	return &Descriptor{
		Name: "codeBlock",
		Node: &model.NodeSpec{
			Content: "text*",
			Group:   "block",
			Code:    true,
			Marks:   &noMarks,
			Attrs:   map[string]*model.AttributeSpec{"language": {}},
		},
		Parse: []ParseRule{{
			Tag:                "pre",
			PreserveWhitespace: true,
			Attrs: func(el *html.Node) map[string]any {
				for c := el.FirstChild; c != nil; c = c.NextSibling {
					if c.Type != html.ElementNode || c.Data != "code" {
						continue
					}
					v, _ := attr(c, "class")
					for _, class := range strings.Fields(v) {
						if lang, ok := strings.CutPrefix(class, "language-"); ok {
							return map[string]any{"language": lang}
						}
					}
				}
				return nil
			},
		}},
		Render: func(node *model.Node) (*html.Node, *html.Node) {
			pre, code := element("pre"), element("code")
			if lang := node.Attr("language"); lang != "" {
				setAttr(code, "class", "language-"+lang)
			}
			pre.AppendChild(code)
			return pre, code
		},
		Commands: map[string]CommandFunc{
			"setCodeBlock": func(args map[string]any) commands.Command {
				var attrs map[string]any
				if lang := stringArg(args, "language"); lang != "" {
					attrs = map[string]any{"language": lang}
				}
				return commands.SetCodeBlock(attrs)
			},
		},
	}
}

func horizontalRuleDescriptor() *Descriptor {
	return &Descriptor{
		Name:   "horizontalRule",
		Node:   &model.NodeSpec{Group: "block"},
		Parse:  []ParseRule{{Tag: "hr"}},
		Render: leaf("hr"),
		Commands: map[string]CommandFunc{
			"setHorizontalRule": func(map[string]any) commands.Command { return commands.SetHorizontalRule() },
		},
	}
}

func hardBreakDescriptor() *Descriptor {
	return &Descriptor{
		Name:   "hardBreak",
		Node:   &model.NodeSpec{Group: "inline", Inline: true},
		Parse:  []ParseRule{{Tag: "br"}},
		Render: leaf("br"),
		Commands: map[string]CommandFunc{
			"setHardBreak": func(map[string]any) commands.Command {
				return func(tr *state.Transaction) bool {
					nt := tr.Doc.Type.Schema.Nodes["hardBreak"]
					return commands.InsertContent(nt.Create(nil, nil, nil))(tr)
				}
			},
		},
	}
}

func linkDescriptor() *Descriptor {
	inclusive := false
	return &Descriptor{
		Name: "link",
		Mark: &model.MarkSpec{
			Inclusive: &inclusive,
			Attrs: map[string]*model.AttributeSpec{
				"href":   {},
				"target": {Default: "_blank"},
			},
		},
		Parse: []ParseRule{{
			Tag:   "a",
			Match: func(el *html.Node) bool { _, ok := attr(el, "href"); return ok },
			Attrs: func(el *html.Node) map[string]any {
				attrs := map[string]any{"href": attrOr(el, "href")}
				if target := attrOr(el, "target"); target != nil {
					attrs["target"] = target
				}
				return attrs
			},
		}},
		RenderMark: func(mark *model.Mark) (*html.Node, *html.Node) {
			a := element("a")
			if target, _ := mark.Attrs["target"].(string); target != "" {
				setAttr(a, "target", target)
			}
			setAttr(a, "rel", "noopener noreferrer nofollow")
			if href, _ := mark.Attrs["href"].(string); href != "" {
				setAttr(a, "href", href)
			}
			return a, a
		},
		Commands: map[string]CommandFunc{
			"setLink": func(args map[string]any) commands.Command {
				target := stringArg(args, "target")
				if target == "" {
					target = "_blank"
				}
				return commands.SetLink(stringArg(args, "href"), target)
			},
			"unsetLink": func(map[string]any) commands.Command { return commands.UnsetLink() },
		},
	}
}

// markDescriptor builds a plain formatting mark rendered as tag, with
// set/unset/toggle commands named after suffix.
func markDescriptor(name, tag, suffix string, parseTags ...string) *Descriptor {
	rules := make([]ParseRule, 0, len(parseTags))
	for _, t := range parseTags {
		rules = append(rules, ParseRule{Tag: t})
	}
	return &Descriptor{
		Name:  name,
		Mark:  &model.MarkSpec{},
		Parse: rules,
		RenderMark: func(*model.Mark) (*html.Node, *html.Node) {
			n := element(tag)
			return n, n
		},
		Commands: map[string]CommandFunc{
			"set" + suffix:    func(map[string]any) commands.Command { return commands.SetMark(name, nil) },
			"unset" + suffix:  func(map[string]any) commands.Command { return commands.UnsetMark(name, false) },
			"toggle" + suffix: func(map[string]any) commands.Command { return commands.ToggleMark(name, nil) },
		},
	}
}
